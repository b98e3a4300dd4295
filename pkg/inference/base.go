// Package inference defines the JSON contract with the remote inference
// service and the Provider interface the orchestrator calls.
//
// The wire format mirrors the local sidecar service: one POST /chat
// request per turn carrying the user message plus assembled context, one
// response carrying the reply, optional suggestions, and memory
// candidates. A GET /health probe is exposed for the surrounding shell.
package inference

import (
	"context"
	"time"
)

// ChatMessage is one decrypted message of the recent conversation window.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MemoryItem is one decrypted long-term memory sent as context.
type MemoryItem struct {
	Type    string  `json:"type"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Pinned  bool    `json:"pinned"`
	Tags    string  `json:"tags"`
}

// EventItem is one usage event sent as context. Metadata only.
type EventItem struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	AppName     string    `json:"app_name"`
	WindowTitle *string   `json:"window_title,omitempty"`
	Mode        string    `json:"mode"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	UserMessage    string        `json:"user_message"`
	Mode           string        `json:"mode"`
	RecentMessages []ChatMessage `json:"recent_messages"`
	Memories       []MemoryItem  `json:"memories"`
	Events         []EventItem   `json:"events"`
}

// SuggestionAction is one action attached to a suggestion. Only the fields
// relevant to its type are set.
type SuggestionAction struct {
	Type    string  `json:"type"`
	Minutes *int    `json:"minutes,omitempty"`
	App     *string `json:"app,omitempty"`
	Mode    *string `json:"mode,omitempty"`
}

// Suggestion is one actionable proposal returned by the service.
type Suggestion struct {
	Title   string             `json:"title"`
	Reason  string             `json:"reason"`
	Actions []SuggestionAction `json:"actions"`
}

// MemoryCandidate is a potential long-term memory extracted from the turn.
// Candidates at or above the promotion threshold are persisted
// automatically; the rest are left to the caller.
type MemoryCandidate struct {
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// ChatResponse is the body of the /chat response.
type ChatResponse struct {
	Reply            string            `json:"reply"`
	Suggestions      []Suggestion      `json:"suggestions"`
	MemoryCandidates []MemoryCandidate `json:"memory_candidates"`
}

// HealthStatus is the body of the /health response.
type HealthStatus struct {
	OK bool `json:"ok"`
}

// Provider is a chat inference backend.
//
// Implementations must not retry internally; any failure is reported as an
// error and the orchestrator decides how to recover.
type Provider interface {
	// Chat performs one inference request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Health reports whether the backend is reachable. Used by the
	// surrounding shell, not by the chat turn itself.
	Health(ctx context.Context) (bool, error)

	// Close releases any resources held by the provider.
	Close() error
}
