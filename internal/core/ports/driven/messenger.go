package driven

import (
	"context"

	"github.com/oasisprop/concierge/internal/core/domain"
)

// Messenger delivers outbound chat messages.
// The concrete implementation is a WhatsApp gateway HTTP client.
type Messenger interface {
	// SendText sends a plain text message to the given recipient.
	// A returned error means the gateway rejected or failed the delivery;
	// callers decide whether to record or ignore the failure. There are
	// no retries.
	SendText(ctx context.Context, to, text string) error

	// SendInteractive sends a button message to the given recipient.
	// The message must have a non-empty body and at least one button.
	// Same error and retry semantics as SendText.
	SendInteractive(ctx context.Context, to string, msg domain.InteractiveMessage) error
}
