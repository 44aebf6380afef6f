package notify

import "context"

// Notifier delivers one text message to the configured destination. The text
// is expected to be valid MarkdownV2; callers escape their values, the
// sender does not.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Nop is a no-op Notifier useful in tests.
type Nop struct{}

func (Nop) Send(context.Context, string) error { return nil }
