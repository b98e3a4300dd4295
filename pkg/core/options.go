package core

// SendOption is a function type for configuring Send operations.
//
// Options are applied using the functional options pattern, allowing
// per-turn overrides without mutating the client configuration.
type SendOption func(*SendOptions)

// SendOptions contains configuration options for one chat turn.
type SendOptions struct {
	// Mode overrides the configured assistant mode for this turn.
	Mode string

	// Locale overrides the configured locale for this turn's fallback
	// reply selection.
	Locale string
}

// WithMode overrides the assistant mode for one turn.
//
// Example:
//
//	resp, _ := client.Send(ctx, "let's study", core.WithMode("Study"))
func WithMode(mode string) SendOption {
	return func(opts *SendOptions) {
		opts.Mode = mode
	}
}

// WithLocale overrides the fallback locale for one turn.
//
// Example:
//
//	resp, _ := client.Send(ctx, "hallo", core.WithLocale("de-DE"))
func WithLocale(locale string) SendOption {
	return func(opts *SendOptions) {
		opts.Locale = locale
	}
}

// ApplySendOptions applies the given options over the client defaults.
func ApplySendOptions(mode, locale string, opts []SendOption) *SendOptions {
	options := &SendOptions{
		Mode:   mode,
		Locale: locale,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
