package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/tabzero/tabzero-go/pkg/inference"
)

// Action is the closed set of operations a suggestion can trigger. The
// concrete types carry only the fields relevant to their kind; dispatch is
// an exhaustive type switch.
type Action interface {
	isAction()
}

// StartTimerAction starts a focus timer.
type StartTimerAction struct {
	Minutes int
}

// OpenAppAction launches an application after allow-list or confirmation.
type OpenAppAction struct {
	App string
}

// SetModeAction switches the assistant mode.
type SetModeAction struct {
	Mode string
}

// UnsupportedAction carries an action type this build does not understand.
type UnsupportedAction struct {
	Type string
}

func (StartTimerAction) isAction()  {}
func (OpenAppAction) isAction()     {}
func (SetModeAction) isAction()     {}
func (UnsupportedAction) isAction() {}

// Defaults applied when the wire action omits a field.
const (
	defaultTimerMinutes = 25
	defaultMode         = "Work"
)

// ParseAction converts a wire action into its tagged variant.
func ParseAction(a inference.SuggestionAction) Action {
	switch a.Type {
	case "start_timer":
		minutes := defaultTimerMinutes
		if a.Minutes != nil {
			minutes = *a.Minutes
		}
		return StartTimerAction{Minutes: minutes}
	case "open_app":
		app := ""
		if a.App != nil {
			app = *a.App
		}
		return OpenAppAction{App: app}
	case "set_mode":
		mode := defaultMode
		if a.Mode != nil {
			mode = *a.Mode
		}
		return SetModeAction{Mode: mode}
	default:
		return UnsupportedAction{Type: a.Type}
	}
}

// ActionNotification reports the outcome of a handled action to the shell.
type ActionNotification struct {
	Type    string
	App     string
	Minutes int
	Mode    string
}

// ActionCapabilities are the callbacks the shell injects. The core never
// opens a process or shows UI itself.
type ActionCapabilities struct {
	// Confirm asks the user whether an app outside the allow-list may
	// be opened.
	Confirm func(ctx context.Context, app string) (bool, error)

	// Launch opens the named application.
	Launch func(ctx context.Context, app string) error

	// SetMode switches the assistant mode.
	SetMode func(ctx context.Context, mode string) error

	// Notify reports the outcome of the action.
	Notify func(ctx context.Context, n ActionNotification) error
}

// DefaultAllowedApps is the set of applications that open without
// confirmation.
var DefaultAllowedApps = map[string]struct{}{
	"notepad": {},
	"calc":    {},
}

// ActionHandler dispatches parsed actions through injected capabilities.
type ActionHandler struct {
	allowedApps map[string]struct{}
	caps        ActionCapabilities
}

// NewActionHandler creates a handler with the default allow-list.
func NewActionHandler(caps ActionCapabilities) *ActionHandler {
	return &ActionHandler{
		allowedApps: DefaultAllowedApps,
		caps:        caps,
	}
}

// Handle executes one action. The type switch is exhaustive over the
// Action variants.
func (h *ActionHandler) Handle(ctx context.Context, action Action) error {
	switch a := action.(type) {
	case StartTimerAction:
		return h.caps.Notify(ctx, ActionNotification{Type: "timer_started", Minutes: a.Minutes})

	case OpenAppAction:
		return h.openApp(ctx, a)

	case SetModeAction:
		if err := h.caps.SetMode(ctx, a.Mode); err != nil {
			return NewAssistantError("Handle", err)
		}
		return h.caps.Notify(ctx, ActionNotification{Type: "mode_set", Mode: a.Mode})

	case UnsupportedAction:
		return h.caps.Notify(ctx, ActionNotification{Type: "unsupported"})

	default:
		return NewAssistantError("Handle", fmt.Errorf("unknown action %T", action))
	}
}

func (h *ActionHandler) openApp(ctx context.Context, a OpenAppAction) error {
	app := strings.TrimSpace(a.App)
	if app == "" {
		return h.caps.Notify(ctx, ActionNotification{Type: "missing_app"})
	}

	if _, allowed := h.allowedApps[strings.ToLower(app)]; !allowed {
		ok, err := h.caps.Confirm(ctx, app)
		if err != nil {
			return NewAssistantError("Handle", err)
		}
		if !ok {
			return nil
		}
	}

	if err := h.caps.Launch(ctx, app); err != nil {
		return NewAssistantError("Handle", err)
	}
	return h.caps.Notify(ctx, ActionNotification{Type: "app_opened", App: app})
}
