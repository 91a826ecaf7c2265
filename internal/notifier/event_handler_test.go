package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medichain-payments/internal/domain/outbox"
	"github.com/medichain-payments/internal/domain/shared"
)

// MockNotificationSender mocks NotificationSender
type MockNotificationSender struct {
	mock.Mock
}

func (m *MockNotificationSender) Notify(ctx context.Context, event *outbox.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockDeadLetterPublisher mocks producers.DeadLetterPublisher
type MockDeadLetterPublisher struct {
	mock.Mock
}

func (m *MockDeadLetterPublisher) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	args := m.Called(ctx, key, originalMessageValue, reason)
	return args.Error(0)
}

func (m *MockDeadLetterPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func completedEvent(t *testing.T) ([]byte, *outbox.PaymentEvent) {
	t.Helper()
	event := &outbox.PaymentEvent{
		Kind:          outbox.EventPaymentCompleted,
		TransactionID: uuid.New(),
		PayerID:       "patient-1",
		PayeeID:       "doctor-1",
		Amount:        "0.0558",
		Currency:      shared.CurrencyETH,
		Network:       shared.NetworkEthereum,
		OccurredAt:    time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return value, event
}

func TestPaymentEventHandler_HandleMessage(t *testing.T) {
	logger := testNotifierLogger()
	ctx := context.Background()

	t.Run("DeliversNotification", func(t *testing.T) {
		mockSender := &MockNotificationSender{}
		mockDLQ := &MockDeadLetterPublisher{}
		handler := NewPaymentEventHandler(logger, mockSender, mockDLQ)

		value, event := completedEvent(t)

		mockSender.On("Notify", mock.Anything, mock.MatchedBy(func(got *outbox.PaymentEvent) bool {
			return got.TransactionID == event.TransactionID && got.Kind == outbox.EventPaymentCompleted
		})).Return(nil).Once()

		err := handler.HandleMessage(ctx, []byte(event.TransactionID.String()), value)
		require.NoError(t, err)

		mockSender.AssertExpectations(t)
		mockDLQ.AssertNotCalled(t, "PublishToDLQ", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PoisonMessageGoesToDLQ", func(t *testing.T) {
		mockSender := &MockNotificationSender{}
		mockDLQ := &MockDeadLetterPublisher{}
		handler := NewPaymentEventHandler(logger, mockSender, mockDLQ)

		poison := []byte("{not valid json")

		mockDLQ.On("PublishToDLQ", mock.Anything, "poison-key", poison, mock.AnythingOfType("string")).Return(nil).Once()

		err := handler.HandleMessage(ctx, []byte("poison-key"), poison)
		require.NoError(t, err, "handled via DLQ, offset should commit")

		mockDLQ.AssertExpectations(t)
		mockSender.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("PoisonMessageWithFailingDLQReturnsError", func(t *testing.T) {
		mockSender := &MockNotificationSender{}
		mockDLQ := &MockDeadLetterPublisher{}
		handler := NewPaymentEventHandler(logger, mockSender, mockDLQ)

		poison := []byte("garbage")

		mockDLQ.On("PublishToDLQ", mock.Anything, "k", poison, mock.AnythingOfType("string")).
			Return(errors.New("dlq unavailable")).Once()

		err := handler.HandleMessage(ctx, []byte("k"), poison)
		require.Error(t, err)
	})

	t.Run("PoisonMessageWithoutDLQReturnsError", func(t *testing.T) {
		mockSender := &MockNotificationSender{}
		handler := NewPaymentEventHandler(logger, mockSender, nil)

		err := handler.HandleMessage(ctx, []byte("k"), []byte("garbage"))
		require.Error(t, err)
	})

	t.Run("DeliveryFailureReturnsError", func(t *testing.T) {
		mockSender := &MockNotificationSender{}
		mockDLQ := &MockDeadLetterPublisher{}
		handler := NewPaymentEventHandler(logger, mockSender, mockDLQ)

		value, _ := completedEvent(t)

		mockSender.On("Notify", mock.Anything, mock.Anything).Return(errors.New("channel down")).Once()

		err := handler.HandleMessage(ctx, []byte("k"), value)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "notification for event")
	})
}
