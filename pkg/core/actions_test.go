package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabzero/tabzero-go/pkg/core"
	"github.com/tabzero/tabzero-go/pkg/inference"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestParseAction(t *testing.T) {
	tests := []struct {
		name     string
		wire     inference.SuggestionAction
		expected core.Action
	}{
		{
			name:     "timer with minutes",
			wire:     inference.SuggestionAction{Type: "start_timer", Minutes: intPtr(10)},
			expected: core.StartTimerAction{Minutes: 10},
		},
		{
			name:     "timer default minutes",
			wire:     inference.SuggestionAction{Type: "start_timer"},
			expected: core.StartTimerAction{Minutes: 25},
		},
		{
			name:     "open app",
			wire:     inference.SuggestionAction{Type: "open_app", App: strPtr("notepad")},
			expected: core.OpenAppAction{App: "notepad"},
		},
		{
			name:     "open app without app name",
			wire:     inference.SuggestionAction{Type: "open_app"},
			expected: core.OpenAppAction{App: ""},
		},
		{
			name:     "set mode",
			wire:     inference.SuggestionAction{Type: "set_mode", Mode: strPtr("Study")},
			expected: core.SetModeAction{Mode: "Study"},
		},
		{
			name:     "set mode default",
			wire:     inference.SuggestionAction{Type: "set_mode"},
			expected: core.SetModeAction{Mode: "Work"},
		},
		{
			name:     "unknown type",
			wire:     inference.SuggestionAction{Type: "reboot"},
			expected: core.UnsupportedAction{Type: "reboot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, core.ParseAction(tt.wire))
		})
	}
}

// capabilityRecorder collects every capability invocation for assertions.
type capabilityRecorder struct {
	notifications []core.ActionNotification
	launched      []string
	modes         []string
	confirmAsked  []string
	confirmAnswer bool
}

func (r *capabilityRecorder) capabilities() core.ActionCapabilities {
	return core.ActionCapabilities{
		Confirm: func(ctx context.Context, app string) (bool, error) {
			r.confirmAsked = append(r.confirmAsked, app)
			return r.confirmAnswer, nil
		},
		Launch: func(ctx context.Context, app string) error {
			r.launched = append(r.launched, app)
			return nil
		},
		SetMode: func(ctx context.Context, mode string) error {
			r.modes = append(r.modes, mode)
			return nil
		},
		Notify: func(ctx context.Context, n core.ActionNotification) error {
			r.notifications = append(r.notifications, n)
			return nil
		},
	}
}

func TestHandleStartTimer(t *testing.T) {
	rec := &capabilityRecorder{}
	handler := core.NewActionHandler(rec.capabilities())

	require.NoError(t, handler.Handle(context.Background(), core.StartTimerAction{Minutes: 10}))

	require.Len(t, rec.notifications, 1)
	assert.Equal(t, core.ActionNotification{Type: "timer_started", Minutes: 10}, rec.notifications[0])
}

func TestHandleOpenAppAllowListed(t *testing.T) {
	rec := &capabilityRecorder{}
	handler := core.NewActionHandler(rec.capabilities())

	require.NoError(t, handler.Handle(context.Background(), core.OpenAppAction{App: "Notepad"}))

	// Allow-listed apps launch without a confirmation round-trip.
	assert.Empty(t, rec.confirmAsked)
	assert.Equal(t, []string{"Notepad"}, rec.launched)
	require.Len(t, rec.notifications, 1)
	assert.Equal(t, "app_opened", rec.notifications[0].Type)
}

func TestHandleOpenAppRequiresConfirmation(t *testing.T) {
	rec := &capabilityRecorder{confirmAnswer: true}
	handler := core.NewActionHandler(rec.capabilities())

	require.NoError(t, handler.Handle(context.Background(), core.OpenAppAction{App: "browser"}))

	assert.Equal(t, []string{"browser"}, rec.confirmAsked)
	assert.Equal(t, []string{"browser"}, rec.launched)
}

func TestHandleOpenAppDeclined(t *testing.T) {
	rec := &capabilityRecorder{confirmAnswer: false}
	handler := core.NewActionHandler(rec.capabilities())

	require.NoError(t, handler.Handle(context.Background(), core.OpenAppAction{App: "browser"}))

	assert.Equal(t, []string{"browser"}, rec.confirmAsked)
	assert.Empty(t, rec.launched)
	assert.Empty(t, rec.notifications)
}

func TestHandleOpenAppMissingName(t *testing.T) {
	rec := &capabilityRecorder{}
	handler := core.NewActionHandler(rec.capabilities())

	require.NoError(t, handler.Handle(context.Background(), core.OpenAppAction{App: "   "}))

	assert.Empty(t, rec.launched)
	require.Len(t, rec.notifications, 1)
	assert.Equal(t, "missing_app", rec.notifications[0].Type)
}

func TestHandleSetMode(t *testing.T) {
	rec := &capabilityRecorder{}
	handler := core.NewActionHandler(rec.capabilities())

	require.NoError(t, handler.Handle(context.Background(), core.SetModeAction{Mode: "Study"}))

	assert.Equal(t, []string{"Study"}, rec.modes)
	require.Len(t, rec.notifications, 1)
	assert.Equal(t, core.ActionNotification{Type: "mode_set", Mode: "Study"}, rec.notifications[0])
}

func TestHandleUnsupported(t *testing.T) {
	rec := &capabilityRecorder{}
	handler := core.NewActionHandler(rec.capabilities())

	require.NoError(t, handler.Handle(context.Background(), core.UnsupportedAction{Type: "reboot"}))

	require.Len(t, rec.notifications, 1)
	assert.Equal(t, "unsupported", rec.notifications[0].Type)
}
