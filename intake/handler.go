// Package intake exposes the HTTP endpoint producers post events to.
package intake

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequiredFields are checked in order; the first absent one is reported.
var RequiredFields = []string{"user_id", "topic", "event", "payload"}

// Accepted is the acknowledgement returned for a valid event.
type Accepted struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

// Handler validates and acknowledges intake events.
// It performs no persistence and never calls the ingestion pipeline.
type Handler struct {
	maxBodyBytes int64
	logger       *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMaxBodyBytes limits the accepted request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// NewHandler creates an intake handler.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		maxBodyBytes: 1 << 20,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "intake")
	return h
}

// Ingest handles POST /api/ingest.
func (h *Handler) Ingest(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Debug("rejected oversized intake body", "limit", tooLarge.Limit)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": errBodyTooLarge.Message})
			return
		}
		respondError(c, errInvalidJSON)
		return
	}
	if err := Validate(body); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			respondError(c, ve)
			return
		}
		respondError(c, errInvalidJSON)
		return
	}

	h.logger.Debug("accepted intake event")
	c.JSON(http.StatusOK, Accepted{Status: "accepted", Mode: "live-no-db"})
}

// Health handles GET /api/health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Validate checks an intake body and returns a *ValidationError for the
// first problem found.
func Validate(body []byte) error {
	if len(body) == 0 {
		return errEmptyBody
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return errInvalidJSON
	}
	for _, name := range RequiredFields {
		if _, ok := fields[name]; !ok {
			return missing(name)
		}
	}

	var userID string
	if err := json.Unmarshal(fields["user_id"], &userID); err != nil {
		return errInvalidUserID
	}
	if _, err := uuid.Parse(userID); err != nil {
		return errInvalidUserID
	}
	return nil
}

func respondError(c *gin.Context, ve *ValidationError) {
	c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
}
