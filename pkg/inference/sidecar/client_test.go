package sidecar_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabzero/tabzero-go/pkg/inference"
	"github.com/tabzero/tabzero-go/pkg/inference/sidecar"
)

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := sidecar.NewClient(&sidecar.Config{})
	require.Error(t, err)
}

func TestChatRoundTrip(t *testing.T) {
	var captured inference.ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&inference.ChatResponse{
			Reply: "On it.",
			Suggestions: []inference.Suggestion{
				{Title: "Take a break", Reason: "long session", Actions: []inference.SuggestionAction{{Type: "start_timer"}}},
			},
		})
	}))
	t.Cleanup(server.Close)

	client, err := sidecar.NewClient(&sidecar.Config{BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Chat(context.Background(), &inference.ChatRequest{
		UserMessage: "I'm tired",
		Mode:        "Study",
	})
	require.NoError(t, err)

	assert.Equal(t, "I'm tired", captured.UserMessage)
	assert.Equal(t, "Study", captured.Mode)
	assert.Equal(t, "On it.", resp.Reply)
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "Take a break", resp.Suggestions[0].Title)
}

func TestChatErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client, err := sidecar.NewClient(&sidecar.Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), &inference.ChatRequest{UserMessage: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestChatMissingReplyIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"suggestions": []}`))
	}))
	t.Cleanup(server.Close)

	client, err := sidecar.NewClient(&sidecar.Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), &inference.ChatRequest{UserMessage: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestChatHonorsContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client, err := sidecar.NewClient(&sidecar.Config{BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Chat(ctx, &inference.ChatRequest{UserMessage: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    bool
	}{
		{
			name: "healthy",
			handler: func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/health", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"ok": true}`))
			},
			want: true,
		},
		{
			name: "reports not ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"ok": false}`))
			},
			want: false,
		},
		{
			name: "error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "down", http.StatusInternalServerError)
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			t.Cleanup(server.Close)

			client, err := sidecar.NewClient(&sidecar.Config{BaseURL: server.URL})
			require.NoError(t, err)

			ok, err := client.Health(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}
