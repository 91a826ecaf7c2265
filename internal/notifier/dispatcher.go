package notifier

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/medichain-payments/internal/config"
	"github.com/medichain-payments/internal/domain/outbox"
)

// PoolDispatcher fans notification delivery out over a bounded worker pool.
// It decorates a NotificationSender so the Kafka consumer loop never blocks
// on a slow delivery channel longer than pool capacity allows. Each call
// waits on its own result channel, so concurrent deliveries of the same
// event never interfere.
type PoolDispatcher struct {
	sender NotificationSender
	pool   *ants.Pool
	logger *slog.Logger
}

func NewPoolDispatcher(
	sender NotificationSender,
	cfg config.WorkerPoolConfig,
	logger *slog.Logger,
) (*PoolDispatcher, error) {
	pool, err := ants.NewPool(cfg.Size)
	if err != nil {
		return nil, err
	}

	return &PoolDispatcher{
		sender: sender,
		pool:   pool,
		logger: logger,
	}, nil
}

// Notify submits the event to the worker pool and waits for delivery
func (d *PoolDispatcher) Notify(ctx context.Context, event *outbox.PaymentEvent) error {
	logger := d.logger.With("correlation_id", event.TransactionID.String())

	logger.Debug("Submitting notification to worker pool",
		"transaction_id", event.TransactionID.String(),
		"kind", event.Kind,
	)

	resultChan := make(chan error, 1)
	eventCopy := *event

	err := d.pool.Submit(func() {
		resultChan <- d.sender.Notify(ctx, &eventCopy)
	})
	if err != nil {
		logger.Error("Failed to submit notification to worker pool",
			"transaction_id", event.TransactionID.String(),
			"error", err,
		)
		return err
	}

	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (d *PoolDispatcher) Shutdown() {
	d.logger.Info("Shutting down notification worker pool", "running_workers", d.pool.Running())
	d.pool.Release()
}

// Running returns the number of running workers in the pool.
func (d *PoolDispatcher) Running() int {
	return d.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (d *PoolDispatcher) Capacity() int {
	return d.pool.Cap()
}
