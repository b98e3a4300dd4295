package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabzero/tabzero-go/pkg/core"
)

func TestFallbackReplySelection(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		locale   string
		expected string
	}{
		{
			name:     "study english",
			mode:     "Study",
			locale:   "en",
			expected: "I can keep this offline. Tell me what you want to focus on next.",
		},
		{
			name:     "study german region tag",
			mode:     "Study",
			locale:   "de-DE",
			expected: "Ich bin gerade offline. Worauf möchtest du dich als Nächstes konzentrieren?",
		},
		{
			name:     "evening english region tag",
			mode:     "Evening",
			locale:   "en-US",
			expected: "Offline for now. Want a quick wind-down plan?",
		},
		{
			name:     "evening german",
			mode:     "Evening",
			locale:   "de",
			expected: "Ich bin gerade offline. Soll ich dir einen kurzen Abend-Plan vorschlagen?",
		},
		{
			name:     "unknown mode falls back to default category",
			mode:     "Work",
			locale:   "en",
			expected: "I'm offline right now, but I can still keep notes and suggestions.",
		},
		{
			name:     "default category german",
			mode:     "Work",
			locale:   "de-AT",
			expected: "Ich bin gerade offline, kann aber Notizen und Vorschläge festhalten.",
		},
		{
			name:     "unknown locale falls back to english",
			mode:     "Study",
			locale:   "fr-FR",
			expected: "I can keep this offline. Tell me what you want to focus on next.",
		},
		{
			name:     "empty mode and locale",
			mode:     "",
			locale:   "",
			expected: "I'm offline right now, but I can still keep notes and suggestions.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, core.FallbackReply(tt.mode, tt.locale))
		})
	}
}

func TestFallbackReplyIsDeterministic(t *testing.T) {
	first := core.FallbackReply("Study", "en")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, core.FallbackReply("Study", "en"))
	}
}

func TestFallbackResponseHasNoSuggestions(t *testing.T) {
	resp := core.FallbackResponse("Study", "en")

	assert.NotEmpty(t, resp.Reply)
	assert.NotNil(t, resp.Suggestions)
	assert.Empty(t, resp.Suggestions)
	assert.Empty(t, resp.MemoryCandidates)
}
