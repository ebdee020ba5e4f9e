// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package rest implements storage.Store against a PostgREST-compatible
// endpoint such as Supabase.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/mailroom/storage"
)

const (
	// DefaultTimeout bounds every request unless overridden.
	DefaultTimeout = 15 * time.Second

	restPath         = "/rest/v1/"
	maxErrorBodySize = 4096

	preferRepresentation = "return=representation"
	preferMinimal        = "return=minimal"
	preferMergeUpsert    = "resolution=merge-duplicates,return=representation"
)

// Client is a storage.Store backed by PostgREST over HTTP.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

var _ storage.Store = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout >= 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the project at baseURL authenticating with
// serviceKey. A trailing slash on baseURL is ignored.
func New(baseURL, serviceKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "rest-store")
	return c
}

// Close is a no-op; the client holds no long-lived resources.
func (c *Client) Close() error {
	return nil
}

// Select issues GET /rest/v1/<table> with the query rendered as parameters.
func (c *Client) Select(ctx context.Context, table string, q storage.Query) ([]storage.Row, error) {
	if err := q.Validate(); err != nil {
		return nil, &storage.StorageError{Op: "select", Table: table, Err: err}
	}

	params := url.Values{}
	if len(q.Columns) > 0 {
		params.Set("select", strings.Join(q.Columns, ","))
	}
	addFilters(params, q.Filters)
	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			parts[i] = o.Expr()
		}
		params.Set("order", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}

	body, err := c.do(ctx, "select", http.MethodGet, table, params, nil, "")
	if err != nil {
		return nil, err
	}
	rows, err := storage.DecodeRows(body)
	if err != nil {
		return nil, &storage.StorageError{Op: "select", Table: table, Err: err}
	}
	if rows == nil {
		rows = []storage.Row{}
	}
	return rows, nil
}

// Insert issues POST /rest/v1/<table>.
func (c *Client) Insert(ctx context.Context, table string, row storage.Row, returnRepresentation bool) (storage.Row, error) {
	prefer := preferMinimal
	if returnRepresentation {
		prefer = preferRepresentation
	}
	body, err := c.do(ctx, "insert", http.MethodPost, table, nil, row, prefer)
	if err != nil {
		return nil, err
	}
	if !returnRepresentation {
		return nil, nil
	}
	return firstRow("insert", table, body)
}

// Upsert issues POST /rest/v1/<table> with merge-duplicates resolution.
func (c *Client) Upsert(ctx context.Context, table string, row storage.Row, conflictKey string) (storage.Row, error) {
	params := url.Values{}
	if conflictKey != "" {
		params.Set("on_conflict", conflictKey)
	}
	body, err := c.do(ctx, "upsert", http.MethodPost, table, params, row, preferMergeUpsert)
	if err != nil {
		return nil, err
	}
	return firstRow("upsert", table, body)
}

// Patch issues PATCH /rest/v1/<table> with match rendered as filters.
func (c *Client) Patch(ctx context.Context, table string, match []storage.Filter, updates storage.Row) error {
	if err := (storage.Query{Filters: match}).Validate(); err != nil {
		return &storage.StorageError{Op: "patch", Table: table, Err: err}
	}
	params := url.Values{}
	addFilters(params, match)
	_, err := c.do(ctx, "patch", http.MethodPatch, table, params, updates, "")
	return err
}

func (c *Client) do(ctx context.Context, op, method, table string, params url.Values, payload any, prefer string) ([]byte, error) {
	fail := func(err error) error {
		return &storage.StorageError{Op: op, Table: table, Err: err, Timeout: isTimeout(err)}
	}

	endpoint := c.baseURL + restPath + url.PathEscape(table)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fail(fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err))
		}
		body = bytes.NewReader(data)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fail(err)
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "table", table, "error", err)
		return nil, fail(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(err)
	}
	c.logger.Debug("request complete", "op", op, "table", table, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &storage.StorageError{
			Op:     op,
			Table:  table,
			Status: resp.StatusCode,
			Body:   truncate(strings.TrimSpace(string(data))),
		}
		if resp.StatusCode == http.StatusConflict {
			se.Err = storage.ErrDuplicateKey
		}
		return nil, se
	}
	return data, nil
}

// firstRow returns the first element of an array response, or the object
// itself. An empty response yields a nil row.
func firstRow(op, table string, body []byte) (storage.Row, error) {
	rows, err := storage.DecodeRows(body)
	if err != nil {
		return nil, &storage.StorageError{Op: op, Table: table, Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func addFilters(params url.Values, filters []storage.Filter) {
	for _, f := range filters {
		params.Add(f.Column, f.Expr())
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string) string {
	if len(s) <= maxErrorBodySize {
		return s
	}
	return s[:maxErrorBodySize]
}
