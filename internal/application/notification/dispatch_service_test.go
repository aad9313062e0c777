package notification

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/waterworks/backend/internal/domain/notification"
	"go.uber.org/zap"
)

func newPendingNotification(t *testing.T, messageType notification.MessageType) *notification.Notification {
	t.Helper()
	n, err := notification.NewInvoiceNotification(uuid.New(), uuid.New(), messageType,
		"Payment due soon", "Your invoice is due in 5 days")
	require.NoError(t, err)
	return n
}

func TestDispatchService_DispatchPending(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers pending notifications and marks them sent", func(t *testing.T) {
		notifRepo := new(MockNotificationRepository)
		dispatcher := new(MockDispatcher)
		svc := NewDispatchService(DispatchServiceConfig{
			NotifRepo:  notifRepo,
			Dispatcher: dispatcher,
			Logger:     zap.NewNop(),
		})

		pending := []notification.Notification{
			*newPendingNotification(t, notification.MessageTypePaymentReminder),
			*newPendingNotification(t, notification.MessageTypeLeakWarning),
		}

		notifRepo.On("FindPending", ctx, 200).Return(pending, nil)
		dispatcher.On("Dispatch", ctx, mock.Anything).Return(nil)
		notifRepo.On("Save", ctx, mock.MatchedBy(func(n *notification.Notification) bool {
			return n.Status == notification.NotificationStatusSent && n.SentAt != nil
		})).Return(nil)

		result, err := svc.DispatchPending(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, result.Scanned)
		assert.Equal(t, 2, result.Created)
		assert.Equal(t, 0, result.Failed)
		notifRepo.AssertExpectations(t)
	})

	t.Run("delivery failure is recorded and retried next pass", func(t *testing.T) {
		notifRepo := new(MockNotificationRepository)
		dispatcher := new(MockDispatcher)
		svc := NewDispatchService(DispatchServiceConfig{
			NotifRepo:  notifRepo,
			Dispatcher: dispatcher,
		})

		pending := []notification.Notification{
			*newPendingNotification(t, notification.MessageTypePaymentConfirmation),
		}

		notifRepo.On("FindPending", ctx, 200).Return(pending, nil)
		dispatcher.On("Dispatch", ctx, mock.Anything).Return(assert.AnError)
		notifRepo.On("Save", ctx, mock.MatchedBy(func(n *notification.Notification) bool {
			return n.Status == notification.NotificationStatusFailed && n.FailureReason != ""
		})).Return(nil)

		result, err := svc.DispatchPending(ctx)
		require.NoError(t, err)

		assert.Equal(t, 0, result.Created)
		assert.Equal(t, 1, result.Failed)
		notifRepo.AssertExpectations(t)
	})

	t.Run("custom batch size reaches the repository", func(t *testing.T) {
		notifRepo := new(MockNotificationRepository)
		svc := NewDispatchService(DispatchServiceConfig{
			NotifRepo:  notifRepo,
			Dispatcher: new(MockDispatcher),
			BatchSize:  25,
		})

		notifRepo.On("FindPending", ctx, 25).Return([]notification.Notification{}, nil)

		result, err := svc.DispatchPending(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Scanned)
		notifRepo.AssertExpectations(t)
	})

	t.Run("load failure aborts the pass", func(t *testing.T) {
		notifRepo := new(MockNotificationRepository)
		svc := NewDispatchService(DispatchServiceConfig{
			NotifRepo:  notifRepo,
			Dispatcher: new(MockDispatcher),
		})

		notifRepo.On("FindPending", ctx, 200).Return(nil, assert.AnError)

		_, err := svc.DispatchPending(ctx)
		require.Error(t, err)
	})
}
