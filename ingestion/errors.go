package ingestion

import "errors"

var (
	// ErrStoreRequired is returned when a store is not provided.
	ErrStoreRequired = errors.New("store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrAuditLoggerRequired is returned when an audit logger is not provided.
	ErrAuditLoggerRequired = errors.New("audit logger required")

	// ErrUserIDRequired is returned when a message has no owning user.
	ErrUserIDRequired = errors.New("user id required")

	// ErrPipelineRequired is returned when a batch is built without a pipeline.
	ErrPipelineRequired = errors.New("pipeline required")
)
