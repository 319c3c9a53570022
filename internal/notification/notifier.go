// Package notification delivers formatted relay messages to the chat API.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotConfigured is returned before any network call when the bot token
// or destination chat is missing.
var ErrNotConfigured = errors.New("notification: bot token or chat id not configured")

// Message is one outbound chat message.
type Message struct {
	Text string
	// ParseMode defaults to legacy "Markdown" when empty.
	ParseMode string
}

// DeliveryError is a non-200 answer from the chat API.
type DeliveryError struct {
	Status int
	Body   string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notification: unexpected status %d: %s", e.Status, e.Body)
}

// Notifier is the interface for delivery backends.
type Notifier interface {
	// Send delivers msg once. It returns ErrNotConfigured, a *DeliveryError,
	// or a wrapped transport error on failure.
	Send(ctx context.Context, msg Message) error
	// Configured reports whether Send can attempt delivery at all.
	Configured() bool
}

// LogNotifier logs messages instead of sending them (DRY_RUN).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	slog.Info("dry run, message not sent", "component", "notify", "text", msg.Text)
	return nil
}

func (n *LogNotifier) Configured() bool { return true }
