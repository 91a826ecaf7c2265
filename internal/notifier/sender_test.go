package notifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medichain-payments/internal/domain/outbox"
)

func TestLogNotificationSender_Notify(t *testing.T) {
	sender := NewLogNotificationSender(testNotifierLogger())
	ctx := context.Background()

	kinds := []outbox.EventKind{
		outbox.EventPaymentCompleted,
		outbox.EventPaymentRefunded,
		outbox.EventWithdrawalCompleted,
		outbox.EventWithdrawalFailed,
		outbox.EventUnattributedPayment,
	}
	for _, kind := range kinds {
		require.NoError(t, sender.Notify(ctx, testEvent(kind)), "kind %s", kind)
	}
}

func TestLogNotificationSender_RejectsUnknownKind(t *testing.T) {
	sender := NewLogNotificationSender(testNotifierLogger())

	err := sender.Notify(context.Background(), testEvent(outbox.EventKind("mystery")))
	assert.Error(t, err)
}
