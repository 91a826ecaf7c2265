package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/medichain-payments/internal/domain/outbox"
	"github.com/medichain-payments/internal/domain/shared"
	"github.com/medichain-payments/internal/platform/messaging/producers"
)

// EventPublisher pushes an outbox message to the payment event topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// KafkaEventPublisher implements EventPublisher over a Kafka producer
type KafkaEventPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewKafkaEventPublisher creates a new publisher
func NewKafkaEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &KafkaEventPublisher{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent decodes the stored payment event, publishes it to Kafka keyed
// by transaction ID, and marks the outbox row processed. A payload that no
// longer decodes is marked FAILED_TO_PUBLISH immediately: retrying corrupt
// data cannot succeed.
func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.Event()
	if err != nil {
		p.logger.Error("Failed to unmarshal payment event from outbox payload",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger.With("correlation_id", message.TransactionID.String())
	logger.Debug("Publishing outbox payment event", "outbox_id", message.ID, "kind", event.Kind)

	if err := p.producer.Publish(ctx, message.TransactionID.String(), event); err != nil {
		logger.Error("Failed to publish payment event to Kafka",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		return fmt.Errorf("failed to publish payment event for outbox %d: %w", message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		return fmt.Errorf("publish for %s OK, but failed to mark outbox %d as PROCESSED: %w", message.TransactionID, message.ID, err)
	}

	logger.Info("Outbox payment event published and marked as PROCESSED", "outbox_id", message.ID, "kind", event.Kind)
	return nil
}
