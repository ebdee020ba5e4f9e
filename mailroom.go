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

// Package mailroom wires the store, embedder, error log and ingestion
// pipeline together from a config.Config.
package mailroom

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/mailroom/ai"
	"github.com/poiesic/mailroom/ai/provider"
	"github.com/poiesic/mailroom/audit"
	"github.com/poiesic/mailroom/config"
	"github.com/poiesic/mailroom/ingestion"
	"github.com/poiesic/mailroom/reembed"
	"github.com/poiesic/mailroom/storage"
	"github.com/poiesic/mailroom/storage/badger"
	"github.com/poiesic/mailroom/storage/rest"
)

// ErrConfigRequired is returned when New is called without a config.
var ErrConfigRequired = errors.New("config required")

// Service is an assembled ingestion stack.
type Service struct {
	store    storage.Store
	ownStore bool
	embedder ai.Embedder
	pipeline *ingestion.Pipeline
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	store    storage.Store
	embedder ai.Embedder
	logger   *slog.Logger
}

// WithStore uses store instead of opening one from the config.
// The caller keeps ownership; Close does not close it.
func WithStore(store storage.Store) Option {
	return func(o *serviceOptions) {
		o.store = store
	}
}

// WithEmbedder uses embedder instead of building one from the config.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(o *serviceOptions) {
		o.embedder = embedder
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New assembles a Service from cfg. The store is opened from cfg.Store
// and the embedder built from cfg.AI() unless supplied through options;
// each is validated only when it is built here.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	store, ownStore := options.store, false
	if store == nil {
		var err error
		store, err = openStore(cfg, logger)
		if err != nil {
			return nil, err
		}
		ownStore = true
	}
	closeStore := func() {
		if ownStore {
			store.Close()
		}
	}

	embedder := options.embedder
	if embedder == nil {
		if err := cfg.ValidateEmbedding(); err != nil {
			closeStore()
			return nil, err
		}
		var err error
		embedder, err = provider.NewEmbedder(cfg.AI(), logger)
		if err != nil {
			closeStore()
			return nil, fmt.Errorf("create embedder: %w", err)
		}
	}

	auditLogger, err := audit.New(store, audit.WithLogger(logger))
	if err != nil {
		closeStore()
		return nil, err
	}

	pipeline, err := ingestion.NewPipeline(store, embedder, auditLogger, ingestion.WithLogger(logger))
	if err != nil {
		closeStore()
		return nil, err
	}

	return &Service{
		store:    store,
		ownStore: ownStore,
		embedder: embedder,
		pipeline: pipeline,
		logger:   logger,
	}, nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	switch cfg.Store {
	case config.StoreBadger:
		store, err := badger.OpenStore(cfg.BadgerPath, false,
			badger.WithLogger(logger), badger.WithTimeout(cfg.Timeout))
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return store, nil
	default:
		return rest.New(cfg.SupabaseURL, cfg.ServiceKey,
			rest.WithTimeout(cfg.Timeout), rest.WithLogger(logger)), nil
	}
}

// Close releases the store if the Service opened it.
func (s *Service) Close() error {
	if !s.ownStore {
		return nil
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing store", "err", err)
		return err
	}
	return nil
}

// Store returns the store shared by the pipeline and the audit trail.
func (s *Service) Store() storage.Store {
	return s.store
}

// Embedder returns the configured embedding client.
func (s *Service) Embedder() ai.Embedder {
	return s.embedder
}

// Pipeline returns the ingestion pipeline.
func (s *Service) Pipeline() *ingestion.Pipeline {
	return s.pipeline
}

// NewBatch returns a batch runner over the Service's pipeline.
// Callers must Release it.
func (s *Service) NewBatch(opts ...ingestion.BatchOption) (*ingestion.Batch, error) {
	opts = append([]ingestion.BatchOption{ingestion.WithBatchLogger(s.logger)}, opts...)
	return ingestion.NewBatch(s.pipeline, opts...)
}

// NewReembedder returns an embedding repair run over the Service's store.
func (s *Service) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(s.store, s.embedder, cfg, progress)
}
