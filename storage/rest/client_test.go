package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/poiesic/mailroom/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   map[string]any
}

func newServer(t *testing.T, status int, response string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Header: r.Header.Clone()}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSelect_RendersQuery(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `[{"id":"t1","message_count":4}]`)
	c := New(srv.URL+"/", "secret")

	rows, err := c.Select(context.Background(), "conversation_threads", storage.Query{
		Columns: []string{"id", "message_count"},
		Filters: []storage.Filter{storage.Eq("user_id", "u1"), storage.Eq("topic", "email")},
		Order:   []storage.Order{storage.Desc("created_at")},
		Limit:   1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Int("message_count"))

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodGet, call.Method)
	assert.Equal(t, "/rest/v1/conversation_threads", call.Path)
	assert.Equal(t, "id,message_count", call.Query.Get("select"))
	assert.Equal(t, "eq.u1", call.Query.Get("user_id"))
	assert.Equal(t, "eq.email", call.Query.Get("topic"))
	assert.Equal(t, "created_at.desc", call.Query.Get("order"))
	assert.Equal(t, "1", call.Query.Get("limit"))
	assert.Equal(t, "secret", call.Header.Get("apikey"))
	assert.Equal(t, "Bearer secret", call.Header.Get("Authorization"))
	assert.Equal(t, "application/json", call.Header.Get("Accept"))
}

func TestSelect_EmptyResult(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `[]`)
	c := New(srv.URL, "k")

	rows, err := c.Select(context.Background(), "messages", storage.Query{})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestInsert_Representation(t *testing.T) {
	srv, calls := newServer(t, http.StatusCreated, `[{"id":"m1","raw_text":"hi"}]`)
	c := New(srv.URL, "k")

	row, err := c.Insert(context.Background(), "messages", storage.Row{"id": "m1", "raw_text": "hi"}, true)
	require.NoError(t, err)
	assert.Equal(t, "m1", row.String("id"))

	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "return=representation", call.Header.Get("Prefer"))
	assert.Equal(t, "application/json", call.Header.Get("Content-Type"))
	assert.Equal(t, "hi", call.Body["raw_text"])
}

func TestInsert_Minimal(t *testing.T) {
	srv, calls := newServer(t, http.StatusCreated, ``)
	c := New(srv.URL, "k")

	row, err := c.Insert(context.Background(), "agent_errors", storage.Row{"id": "e1"}, false)
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.Equal(t, "return=minimal", (*calls)[0].Header.Get("Prefer"))
}

func TestUpsert_OnConflict(t *testing.T) {
	srv, calls := newServer(t, http.StatusCreated, `[{"message_id":"m1"}]`)
	c := New(srv.URL, "k")

	row, err := c.Upsert(context.Background(), "message_embeddings", storage.Row{"message_id": "m1", "embedding": []float32{0.1}}, "message_id")
	require.NoError(t, err)
	assert.Equal(t, "m1", row.String("message_id"))

	call := (*calls)[0]
	assert.Equal(t, "message_id", call.Query.Get("on_conflict"))
	assert.Equal(t, "resolution=merge-duplicates,return=representation", call.Header.Get("Prefer"))
}

func TestUpsert_NoConflictKey(t *testing.T) {
	srv, calls := newServer(t, http.StatusCreated, `[]`)
	c := New(srv.URL, "k")

	row, err := c.Upsert(context.Background(), "t", storage.Row{"id": "x"}, "")
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.False(t, (*calls)[0].Query.Has("on_conflict"))
}

func TestPatch(t *testing.T) {
	srv, calls := newServer(t, http.StatusNoContent, ``)
	c := New(srv.URL, "k")

	err := c.Patch(context.Background(), "conversation_threads",
		[]storage.Filter{storage.Eq("id", "t1")},
		storage.Row{"message_count": 2})
	require.NoError(t, err)

	call := (*calls)[0]
	assert.Equal(t, http.MethodPatch, call.Method)
	assert.Equal(t, "eq.t1", call.Query.Get("id"))
	assert.Equal(t, float64(2), call.Body["message_count"])
}

func TestNon2xxIsStorageError(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadRequest, `{"message":"bad column"}`)
	c := New(srv.URL, "k")

	_, err := c.Select(context.Background(), "messages", storage.Query{})
	require.Error(t, err)

	var se *storage.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 400, se.Status)
	assert.Equal(t, "select", se.Op)
	assert.Equal(t, "messages", se.Table)
	assert.Contains(t, se.Body, "bad column")
	assert.Contains(t, err.Error(), "400")
}

func TestConflictIsDuplicateKey(t *testing.T) {
	srv, _ := newServer(t, http.StatusConflict, `{"code":"23505"}`)
	c := New(srv.URL, "k")

	_, err := c.Insert(context.Background(), "messages", storage.Row{"id": "m1"}, true)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	c := New(srv.URL, "k", WithTimeout(50*time.Millisecond))

	_, err := c.Select(context.Background(), "messages", storage.Query{})
	require.Error(t, err)
	assert.True(t, storage.IsTimeout(err))
}

func TestInvalidQueryIsNotSent(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `[]`)
	c := New(srv.URL, "k")

	_, err := c.Select(context.Background(), "messages", storage.Query{Limit: -1})
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	assert.Empty(t, *calls)
}
