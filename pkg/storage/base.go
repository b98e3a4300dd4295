// Package storage defines the persistence contracts for assistant records.
//
// Four record kinds are persisted: chat messages, long-term memories, user
// feedback, and usage events. Messages and memories carry an encrypted
// payload (nonce plus ciphertext with trailing tag); feedback may carry one; events are
// metadata only and never hold free text. Records are append-only: this
// layer has no update or delete path.
package storage

import (
	"context"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MessageRecord is one encrypted chat message.
type MessageRecord struct {
	// ID is the opaque unique identifier, immutable once created.
	ID string

	// CreatedAt is the UTC creation timestamp, immutable.
	CreatedAt time.Time

	// Role is RoleUser or RoleAssistant.
	Role string

	// Nonce is the 12-byte GCM nonce used to seal the content.
	Nonce []byte

	// Ciphertext is the sealed content followed by the 16-byte tag.
	Ciphertext []byte
}

// MemoryRecord is one encrypted long-term memory.
type MemoryRecord struct {
	ID        string
	CreatedAt time.Time

	// Type is a free-form tag such as "preference" or "habit".
	Type string

	// Score ranks the memory within its pinned group, higher first.
	Score float64

	// Pinned memories rank before all unpinned ones regardless of score.
	Pinned bool

	// Tags is an opaque string; the store never parses it.
	Tags string

	Nonce      []byte
	Ciphertext []byte
}

// FeedbackRecord is one user rating of a suggestion or reply.
//
// Feedback has no free-text payload, so Nonce and Ciphertext are usually
// nil and the record is stored unencrypted.
type FeedbackRecord struct {
	ID        string
	CreatedAt time.Time

	// TargetType names what was rated, e.g. "suggestion" or "message".
	TargetType string

	// TargetID is the id of the rated record. It is trusted as given;
	// no referential check is performed.
	TargetID string

	// Rating is an integer vote such as +1, -1, or -2.
	Rating int

	Nonce      []byte
	Ciphertext []byte
}

// EventRecord is one usage event. Metadata only, never encrypted.
type EventRecord struct {
	ID        string
	CreatedAt time.Time

	// AppName identifies the application that produced the event.
	AppName string

	// WindowTitle is nil when window-title tracking is disabled.
	WindowTitle *string

	// Mode is the assistant mode active when the event was recorded.
	Mode string
}

// Store is the persistence contract shared by all backends.
//
// Each operation is independently transactional; multi-step sequences in
// the orchestrator are deliberately not wrapped in a cross-operation
// transaction, so a crash between two saves can leave one persisted and
// not the other. Already-committed records stay valid.
type Store interface {
	// Init creates the schema if it does not exist. Safe to call on
	// every startup and before every turn.
	Init(ctx context.Context) error

	// SaveMessage inserts a single message row.
	SaveMessage(ctx context.Context, rec *MessageRecord) error

	// LoadRecentMessages returns the limit most recently created
	// messages, most recent first. Callers that need chronological
	// order must re-sort.
	LoadRecentMessages(ctx context.Context, limit int) ([]*MessageRecord, error)

	// SaveMemory inserts a single memory row.
	SaveMemory(ctx context.Context, rec *MemoryRecord) error

	// LoadRelevantMemories returns the top limit memories ranked by
	// pinned (true first), then score descending, then created_at
	// descending. The ranking policy is fixed.
	LoadRelevantMemories(ctx context.Context, limit int) ([]*MemoryRecord, error)

	// SaveFeedback inserts a single feedback row.
	SaveFeedback(ctx context.Context, rec *FeedbackRecord) error

	// SaveEvent inserts a single event row.
	SaveEvent(ctx context.Context, rec *EventRecord) error

	// LoadRecentEvents returns the limit most recent events, most
	// recent first.
	LoadRecentEvents(ctx context.Context, limit int) ([]*EventRecord, error)

	// Close releases the underlying connections.
	Close() error
}
