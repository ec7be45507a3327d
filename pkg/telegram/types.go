package telegram

import (
	"context"
)

// Bot abstracts the Telegram transport so handlers can be tested without the API
type Bot interface {
	// Start receives updates until ctx is cancelled
	Start(ctx context.Context) error

	// Stop stops receiving updates
	Stop()

	// SetHandler sets the update handler
	SetHandler(handler func(Update))

	// SendMessage sends a MarkdownV2 text message, waiting for the send limiter
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// UserError is shown to the user verbatim instead of the generic failure reply
type UserError struct {
	Message string
}

func (e UserError) Error() string {
	return e.Message
}
