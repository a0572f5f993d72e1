package notifications

import (
	"context"

	"github.com/zatekoja/clinicportal/internal/domain/providers"
	"github.com/zatekoja/clinicportal/internal/infrastructure/observability"
)

// ConsoleNotifier writes outbound messages to the log instead of sending them.
// It is the default channel for local development.
type ConsoleNotifier struct{}

var _ providers.Notifier = ConsoleNotifier{}

// Send implements Notifier.
func (ConsoleNotifier) Send(ctx context.Context, msg providers.Message) error {
	observability.LoggerFromContext(ctx).Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("notification (console)")
	return nil
}
