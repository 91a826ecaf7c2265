// Package notifier delivers payment event notifications. It polls the
// transactional outbox, publishes events to Kafka, and consumes them through
// a worker pool that dispatches to a NotificationSender. Actual delivery
// channels (email, push) live behind the NotificationSender interface.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/medichain-payments/internal/domain/outbox"
)

// NotificationSender delivers a notification for a payment event
type NotificationSender interface {
	Notify(ctx context.Context, event *outbox.PaymentEvent) error
}

// LogNotificationSender records notifications in the application log. It
// stands in for external delivery channels in environments without them.
type LogNotificationSender struct {
	logger *slog.Logger
}

func NewLogNotificationSender(logger *slog.Logger) *LogNotificationSender {
	return &LogNotificationSender{logger: logger}
}

// Notify logs the notification that a delivery channel would send
func (s *LogNotificationSender) Notify(ctx context.Context, event *outbox.PaymentEvent) error {
	switch event.Kind {
	case outbox.EventPaymentCompleted:
		s.logger.Info("Notification: payment completed",
			"transaction_id", event.TransactionID.String(),
			"payer_id", event.PayerID,
			"payee_id", event.PayeeID,
			"amount", event.Amount,
			"currency", event.Currency,
			"hash", event.Hash,
		)
	case outbox.EventPaymentRefunded:
		s.logger.Info("Notification: payment refunded",
			"transaction_id", event.TransactionID.String(),
			"payer_id", event.PayerID,
			"amount", event.Amount,
			"currency", event.Currency,
		)
	case outbox.EventWithdrawalCompleted:
		s.logger.Info("Notification: withdrawal completed",
			"transaction_id", event.TransactionID.String(),
			"payee_id", event.PayeeID,
			"amount", event.Amount,
			"currency", event.Currency,
			"hash", event.Hash,
		)
	case outbox.EventWithdrawalFailed:
		s.logger.Warn("Notification: withdrawal failed",
			"transaction_id", event.TransactionID.String(),
			"payee_id", event.PayeeID,
			"amount", event.Amount,
			"currency", event.Currency,
		)
	case outbox.EventUnattributedPayment:
		// Operator alert: a verified on-chain payment matched no pending
		// transaction and needs manual attribution.
		s.logger.Warn("Notification: unattributed payment requires manual review",
			"hash", event.Hash,
			"from_address", event.PayerID,
			"amount", event.Amount,
			"currency", event.Currency,
			"network", event.Network,
		)
	default:
		return fmt.Errorf("unknown payment event kind: %s", event.Kind)
	}
	return nil
}
