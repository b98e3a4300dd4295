package sqlite_test

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabzero/tabzero-go/pkg/storage"
	"github.com/tabzero/tabzero-go/pkg/storage/sqlite"
)

func newTestClient(t *testing.T) *sqlite.Client {
	t.Helper()
	client, err := sqlite.NewClient(&sqlite.Config{
		DBPath: filepath.Join(t.TempDir(), "assistant.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestInitIsIdempotent(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	// NewClient already ran Init once; running it again must not fail
	// and must not disturb existing rows.
	require.NoError(t, client.SaveEvent(ctx, &storage.EventRecord{
		ID:        "e1",
		CreatedAt: time.Now().UTC(),
		AppName:   "TabZero",
		Mode:      "Work",
	}))

	require.NoError(t, client.Init(ctx))
	require.NoError(t, client.Init(ctx))

	events, err := client.LoadRecentEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestLoadRecentMessagesOrder(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, client.SaveMessage(ctx, &storage.MessageRecord{
			ID:         string(rune('a' + i)),
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
			Role:       storage.RoleUser,
			Nonce:      []byte("nonce-123456"),
			Ciphertext: []byte("ciphertext-and-tag"),
		}))
	}

	records, err := client.LoadRecentMessages(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// The store returns most-recent-first for efficient limiting.
	assert.Equal(t, "e", records[0].ID)
	assert.Equal(t, "d", records[1].ID)
	assert.Equal(t, "c", records[2].ID)

	// After caller-side re-sorting the list is chronological.
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	for i := 1; i < len(records); i++ {
		assert.False(t, records[i].CreatedAt.Before(records[i-1].CreatedAt))
	}
}

func TestSubSecondOrdering(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Whole-second vs fractional timestamps must still order correctly
	// on the TEXT column.
	require.NoError(t, client.SaveMessage(ctx, &storage.MessageRecord{
		ID: "whole", CreatedAt: base.Add(time.Second),
		Role: storage.RoleUser, Nonce: []byte("n"), Ciphertext: []byte("c"),
	}))
	require.NoError(t, client.SaveMessage(ctx, &storage.MessageRecord{
		ID: "fractional", CreatedAt: base.Add(500 * time.Millisecond),
		Role: storage.RoleUser, Nonce: []byte("n"), Ciphertext: []byte("c"),
	}))

	records, err := client.LoadRecentMessages(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "whole", records[0].ID)
	assert.Equal(t, "fractional", records[1].ID)
}

func TestLoadRelevantMemoriesRanking(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	memories := []*storage.MemoryRecord{
		{ID: "low-unpinned", Score: 0.1, Pinned: false, CreatedAt: base},
		{ID: "high-unpinned", Score: 0.9, Pinned: false, CreatedAt: base.Add(time.Second)},
		{ID: "low-pinned", Score: 0.2, Pinned: true, CreatedAt: base.Add(2 * time.Second)},
		{ID: "high-pinned", Score: 0.8, Pinned: true, CreatedAt: base.Add(3 * time.Second)},
		{ID: "tie-old", Score: 0.5, Pinned: false, CreatedAt: base.Add(4 * time.Second)},
		{ID: "tie-new", Score: 0.5, Pinned: false, CreatedAt: base.Add(5 * time.Second)},
	}
	for _, m := range memories {
		m.Type = "note"
		m.Nonce = []byte("nonce-123456")
		m.Ciphertext = []byte("ciphertext-and-tag")
		require.NoError(t, client.SaveMemory(ctx, m))
	}

	records, err := client.LoadRelevantMemories(ctx, 6)
	require.NoError(t, err)
	require.Len(t, records, 6)

	// Pinned before unpinned, then score descending, ties by recency.
	got := make([]string, len(records))
	for i, r := range records {
		got[i] = r.ID
	}
	assert.Equal(t, []string{
		"high-pinned", "low-pinned",
		"high-unpinned", "tie-new", "tie-old", "low-unpinned",
	}, got)

	// The limit truncates after ranking.
	top, err := client.LoadRelevantMemories(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.True(t, top[0].Pinned)
	assert.True(t, top[1].Pinned)
}

func TestMemoryRoundTripFields(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	rec := &storage.MemoryRecord{
		ID:         "m1",
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC),
		Type:       "preference",
		Score:      0.875,
		Pinned:     true,
		Tags:       "focus,health",
		Nonce:      []byte("nonce-123456"),
		Ciphertext: []byte("ciphertext-and-tag"),
	}
	require.NoError(t, client.SaveMemory(ctx, rec))

	records, err := client.LoadRelevantMemories(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec, records[0])
}

func TestSaveFeedbackWithoutPayload(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SaveFeedback(ctx, &storage.FeedbackRecord{
		ID:         "f1",
		CreatedAt:  time.Now().UTC(),
		TargetType: "suggestion",
		TargetID:   "does-not-need-to-exist",
		Rating:     -2,
	}))
}

func TestEventsWindowTitleNullability(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	title := "Chat"
	require.NoError(t, client.SaveEvent(ctx, &storage.EventRecord{
		ID: "tracked", CreatedAt: base, AppName: "TabZero", WindowTitle: &title, Mode: "Work",
	}))
	require.NoError(t, client.SaveEvent(ctx, &storage.EventRecord{
		ID: "untracked", CreatedAt: base.Add(time.Second), AppName: "TabZero", Mode: "Study",
	}))

	events, err := client.LoadRecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Most recent first.
	assert.Equal(t, "untracked", events[0].ID)
	assert.Nil(t, events[0].WindowTitle)
	require.NotNil(t, events[1].WindowTitle)
	assert.Equal(t, "Chat", *events[1].WindowTitle)
}
