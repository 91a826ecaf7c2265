package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/medichain-payments/internal/domain/outbox"
	"github.com/medichain-payments/internal/platform/messaging/producers"
)

// PaymentEventHandler handles incoming payment event messages from Kafka
type PaymentEventHandler struct {
	sender   NotificationSender
	producer producers.DeadLetterPublisher
	logger   *slog.Logger
}

// NewPaymentEventHandler creates a new handler
func NewPaymentEventHandler(
	logger *slog.Logger,
	sender NotificationSender,
	producer producers.DeadLetterPublisher,
) *PaymentEventHandler {
	return &PaymentEventHandler{
		sender:   sender,
		producer: producer,
		logger:   logger,
	}
}

// HandleMessage processes Kafka messages. Messages that cannot be decoded go
// to the DLQ so the partition is not blocked on a poison message; delivery
// failures are returned so the offset stays uncommitted and Kafka redelivers.
func (h *PaymentEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event outbox.PaymentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal payment event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger.With("correlation_id", event.TransactionID.String())

	logger.Info("Received payment event for notification",
		"transaction_id", event.TransactionID.String(),
		"kind", event.Kind,
		"amount", event.Amount,
		"currency", event.Currency,
	)

	if err := h.sender.Notify(ctx, &event); err != nil {
		logger.Error("Failed to deliver notification",
			"transaction_id", event.TransactionID.String(),
			"kind", event.Kind,
			"error", err,
		)
		return fmt.Errorf("notification for event %s failed: %w", event.TransactionID.String(), err)
	}

	logger.Info("Notification delivered", "transaction_id", event.TransactionID.String(), "kind", event.Kind)
	return nil
}
