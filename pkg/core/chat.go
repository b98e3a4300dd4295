package core

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tabzero/tabzero-go/pkg/crypto"
	"github.com/tabzero/tabzero-go/pkg/inference"
	"github.com/tabzero/tabzero-go/pkg/storage"
)

// Context window sizes and the promotion policy for one chat turn.
const (
	recentMessageWindow  = 8
	relevantMemoryWindow = 6
	recentEventWindow    = 10

	// PromotionThreshold is the minimum candidate confidence for
	// automatic persistence as a long-term memory.
	PromotionThreshold = 0.85

	// appName tags self-usage events.
	appName = "TabZero"

	// selfWindowTitle is recorded only when window-title tracking is on.
	selfWindowTitle = "Chat"
)

// AAD record kinds. Each ciphertext is bound to "<kind>:<id>".
const (
	kindMessage = "message"
	kindMemory  = "memory"
)

// Send drives one full chat turn.
//
// The sequence is strictly ordered: persist the encrypted user message,
// record a self-usage event, assemble decrypted context (recent messages
// chronologically, ranked memories, recent events), issue one remote call,
// persist the encrypted reply, and auto-promote high-confidence memory
// candidates. A remote failure is never surfaced: the reply is replaced by
// a localized, mode-dependent fallback with no suggestions. Steps are not
// wrapped in a cross-operation transaction; a crash mid-turn leaves the
// already-committed records valid.
//
// Context cancellation aborts the turn before the current step persists
// anything further; completed steps are not rolled back. An empty or
// whitespace-only user message is rejected with ErrInvalidInput before
// anything is persisted.
func (c *Client) Send(ctx context.Context, userMessage string, opts ...SendOption) (*inference.ChatResponse, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, NewAssistantError("Send", ErrInvalidInput)
	}

	options := ApplySendOptions(c.config.Mode, c.config.Locale, opts)

	if err := c.store.Init(ctx); err != nil {
		return nil, NewAssistantError("Send", err)
	}

	userID := c.newID()
	if err := c.saveEncryptedMessage(ctx, userID, storage.RoleUser, userMessage); err != nil {
		return nil, NewAssistantError("Send", err)
	}

	if err := c.recordSelfEvent(ctx, options.Mode); err != nil {
		return nil, NewAssistantError("Send", err)
	}

	recentMessages, err := c.recentMessages(ctx)
	if err != nil {
		return nil, NewAssistantError("Send", err)
	}
	memories, err := c.relevantMemories(ctx)
	if err != nil {
		return nil, NewAssistantError("Send", err)
	}
	events, err := c.recentEvents(ctx)
	if err != nil {
		return nil, NewAssistantError("Send", err)
	}

	request := &inference.ChatRequest{
		UserMessage:    userMessage,
		Mode:           options.Mode,
		RecentMessages: recentMessages,
		Memories:       memories,
		Events:         events,
	}

	response, err := c.inference.Chat(ctx, request)
	if err != nil {
		// A canceled turn aborts; only genuine remote failures fall
		// back. The error never carries record plaintext.
		if ctx.Err() != nil {
			return nil, NewAssistantError("Send", ctx.Err())
		}
		c.log.Warn().Err(err).Str("mode", options.Mode).Msg("remote chat failed, using fallback reply")
		response = FallbackResponse(options.Mode, options.Locale)
	}

	assistantID := c.newID()
	if err := c.saveEncryptedMessage(ctx, assistantID, storage.RoleAssistant, response.Reply); err != nil {
		return nil, NewAssistantError("Send", err)
	}

	if err := c.promoteMemories(ctx, response.MemoryCandidates); err != nil {
		return nil, NewAssistantError("Send", err)
	}

	return response, nil
}

// SaveMemoryCandidate encrypts and persists one candidate as a non-pinned
// memory with an empty tag string. Used for automatic promotion and,
// independently, for manual promotion of sub-threshold candidates by the
// caller.
func (c *Client) SaveMemoryCandidate(ctx context.Context, candidate inference.MemoryCandidate) error {
	id := c.newID()
	nonce, ciphertext, err := c.crypto.Encrypt([]byte(candidate.Content), crypto.RecordAAD(kindMemory, id))
	if err != nil {
		return NewAssistantError("SaveMemoryCandidate", err)
	}

	record := &storage.MemoryRecord{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		Type:       candidate.Type,
		Score:      candidate.Confidence,
		Pinned:     false,
		Tags:       "",
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}
	if err := c.store.SaveMemory(ctx, record); err != nil {
		return NewAssistantError("SaveMemoryCandidate", err)
	}
	return nil
}

// SaveFeedback persists a rating immediately, unencrypted.
//
// The target id is trusted as given; no referential check is performed
// against prior records.
func (c *Client) SaveFeedback(ctx context.Context, targetType, targetID string, rating int) error {
	record := &storage.FeedbackRecord{
		ID:         c.newID(),
		CreatedAt:  time.Now().UTC(),
		TargetType: targetType,
		TargetID:   targetID,
		Rating:     rating,
	}
	if err := c.store.SaveFeedback(ctx, record); err != nil {
		return NewAssistantError("SaveFeedback", err)
	}
	return nil
}

// Health probes the inference backend. Intended for the surrounding
// shell's status display.
func (c *Client) Health(ctx context.Context) (bool, error) {
	return c.inference.Health(ctx)
}

func (c *Client) saveEncryptedMessage(ctx context.Context, id, role, content string) error {
	nonce, ciphertext, err := c.crypto.Encrypt([]byte(content), crypto.RecordAAD(kindMessage, id))
	if err != nil {
		return err
	}
	return c.store.SaveMessage(ctx, &storage.MessageRecord{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		Role:       role,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	})
}

// recordSelfEvent records the assistant's own usage. The window title is
// populated only when tracking is enabled.
func (c *Client) recordSelfEvent(ctx context.Context, mode string) error {
	record := &storage.EventRecord{
		ID:        c.newID(),
		CreatedAt: time.Now().UTC(),
		AppName:   appName,
		Mode:      mode,
	}
	if c.config.TrackWindowTitles {
		title := selfWindowTitle
		record.WindowTitle = &title
	}
	return c.store.SaveEvent(ctx, record)
}

// recentMessages loads and decrypts the conversation window. The store
// returns most-recent-first; callers receive chronological order.
func (c *Client) recentMessages(ctx context.Context) ([]inference.ChatMessage, error) {
	records, err := c.store.LoadRecentMessages(ctx, recentMessageWindow)
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	messages := make([]inference.ChatMessage, 0, len(records))
	for _, rec := range records {
		plaintext, err := c.crypto.Decrypt(rec.Nonce, rec.Ciphertext, crypto.RecordAAD(kindMessage, rec.ID))
		if err != nil {
			return nil, err
		}
		messages = append(messages, inference.ChatMessage{
			Role:    rec.Role,
			Content: string(plaintext),
		})
	}
	return messages, nil
}

// relevantMemories loads and decrypts the top-ranked memories. Ranking is
// the store's fixed pinned/score/recency policy.
func (c *Client) relevantMemories(ctx context.Context) ([]inference.MemoryItem, error) {
	records, err := c.store.LoadRelevantMemories(ctx, relevantMemoryWindow)
	if err != nil {
		return nil, err
	}

	memories := make([]inference.MemoryItem, 0, len(records))
	for _, rec := range records {
		plaintext, err := c.crypto.Decrypt(rec.Nonce, rec.Ciphertext, crypto.RecordAAD(kindMemory, rec.ID))
		if err != nil {
			return nil, err
		}
		memories = append(memories, inference.MemoryItem{
			Type:    rec.Type,
			Content: string(plaintext),
			Score:   rec.Score,
			Pinned:  rec.Pinned,
			Tags:    rec.Tags,
		})
	}
	return memories, nil
}

func (c *Client) recentEvents(ctx context.Context) ([]inference.EventItem, error) {
	records, err := c.store.LoadRecentEvents(ctx, recentEventWindow)
	if err != nil {
		return nil, err
	}

	events := make([]inference.EventItem, 0, len(records))
	for _, rec := range records {
		events = append(events, inference.EventItem{
			ID:          rec.ID,
			CreatedAt:   rec.CreatedAt,
			AppName:     rec.AppName,
			WindowTitle: rec.WindowTitle,
			Mode:        rec.Mode,
		})
	}
	return events, nil
}

// promoteMemories persists every candidate at or above the promotion
// threshold. Sub-threshold candidates stay in the response for the caller
// to promote manually.
func (c *Client) promoteMemories(ctx context.Context, candidates []inference.MemoryCandidate) error {
	for _, candidate := range candidates {
		if candidate.Confidence < PromotionThreshold {
			continue
		}
		if err := c.SaveMemoryCandidate(ctx, candidate); err != nil {
			return err
		}
	}
	return nil
}
