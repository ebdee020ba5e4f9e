package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// Table names used by the row store.
const (
	TableThreads    = "conversation_threads"
	TableMessages   = "messages"
	TableEmbeddings = "message_embeddings"
	TableErrors     = "agent_errors"
)

// DefaultTopic is the topic every email thread is filed under.
const DefaultTopic = "email"

// NewID returns a fresh random identifier for a stored row.
func NewID() string {
	return uuid.NewString()
}

// Fingerprint returns a short, stable BLAKE2b digest of text.
// It identifies message bodies in logs without exposing their contents.
func Fingerprint(text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// ThreadState is the lifecycle state of a conversation thread.
type ThreadState string

const (
	// ThreadStateOpen is the only state produced by ingestion.
	ThreadStateOpen ThreadState = "open"
	// ThreadStateClosed marks a thread that no longer receives messages.
	ThreadStateClosed ThreadState = "closed"
)

// Direction identifies whether a message was received or sent.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// ConversationThread groups the messages of one user under one topic.
type ConversationThread struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Topic        string      `json:"topic"`
	State        ThreadState `json:"state"`
	MessageCount int         `json:"message_count"`
	CreatedAt    time.Time   `json:"created_at"`
	LastUpdated  time.Time   `json:"last_updated"`
}

// Message is a single ingested text. It is immutable once stored.
type Message struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ThreadID   string    `json:"thread_id"`
	Direction  Direction `json:"direction"`
	RawText    string    `json:"raw_text"`
	Timestamp  time.Time `json:"timestamp"`
	ExternalID *string   `json:"external_id"` // Producer-supplied idempotency key, null when absent
}

// MessageEmbedding holds the semantic vector of a message, keyed by message ID.
type MessageEmbedding struct {
	MessageID string    `json:"message_id"`
	Embedding []float32 `json:"embedding"`
}

// AgentError is an append-only audit record of a subsystem failure.
type AgentError struct {
	ID              string    `json:"id"`
	ErrorID         string    `json:"error_id"`
	UserID          string    `json:"user_id"`
	AgentType       string    `json:"agent_type"`
	MessageUser     string    `json:"message_user"`
	MessageInternal string    `json:"message_internal"`
	CreatedAt       time.Time `json:"created_at"`
}
