package core

import (
	"strings"

	"github.com/tabzero/tabzero-go/pkg/inference"
)

// fallbackReplies maps mode category to language to canned offline reply.
// Unknown modes use "default"; unknown languages use "en".
var fallbackReplies = map[string]map[string]string{
	"Study": {
		"en": "I can keep this offline. Tell me what you want to focus on next.",
		"de": "Ich bin gerade offline. Worauf möchtest du dich als Nächstes konzentrieren?",
	},
	"Evening": {
		"en": "Offline for now. Want a quick wind-down plan?",
		"de": "Ich bin gerade offline. Soll ich dir einen kurzen Abend-Plan vorschlagen?",
	},
	"default": {
		"en": "I'm offline right now, but I can still keep notes and suggestions.",
		"de": "Ich bin gerade offline, kann aber Notizen und Vorschläge festhalten.",
	},
}

// FallbackReply selects the canned reply for a mode and locale.
//
// Pure function: unknown modes use the default category, unknown locales
// fall back to English.
func FallbackReply(mode, locale string) string {
	replies, ok := fallbackReplies[mode]
	if !ok {
		replies = fallbackReplies["default"]
	}

	reply, ok := replies[normalizeLocale(locale)]
	if !ok {
		reply = replies["en"]
	}
	return reply
}

// FallbackResponse builds the response used when the remote call fails:
// a localized mode-dependent reply with an empty suggestion list and no
// memory candidates.
func FallbackResponse(mode, locale string) *inference.ChatResponse {
	return &inference.ChatResponse{
		Reply:       FallbackReply(mode, locale),
		Suggestions: []inference.Suggestion{},
	}
}

// normalizeLocale reduces a BCP 47 tag like "de-DE" to its primary
// language subtag.
func normalizeLocale(locale string) string {
	lang, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(strings.TrimSpace(lang))
}
