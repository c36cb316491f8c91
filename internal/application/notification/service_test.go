package notification

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
	notificationMocks "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification/mocks"
)

func quoteSentEvent() notification.Event {
	return notification.Event{
		Type:       notification.EventQuoteSent,
		EntityType: "quote",
		EntityID:   3,
		Status:     "sent",
	}
}

func TestService_Deliver(t *testing.T) {
	t.Run("delivered to open stream", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := notificationMocks.NewMockRepository(ctrl)
		hub := notificationMocks.NewMockSSEHub(ctrl)
		service := NewService(repo, hub, nil, 4, zerolog.Nop())

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		hub.EXPECT().SendToUser(int64(1), gomock.Any()).Return(1)
		repo.EXPECT().
			Update(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, n *notification.Notification) error {
				assert.Equal(t, notification.StatusDelivered, n.Status)
				return nil
			})

		n, err := service.Deliver(context.Background(), 1, quoteSentEvent())
		require.NoError(t, err)
		assert.Equal(t, notification.StatusDelivered, n.Status)
		assert.Equal(t, notification.EventQuoteSent, n.EventType)
	})

	t.Run("recipient offline", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := notificationMocks.NewMockRepository(ctrl)
		hub := notificationMocks.NewMockSSEHub(ctrl)
		service := NewService(repo, hub, nil, 4, zerolog.Nop())

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		hub.EXPECT().SendToUser(int64(1), gomock.Any()).Return(0)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

		n, err := service.Deliver(context.Background(), 1, quoteSentEvent())
		assert.ErrorIs(t, err, notification.ErrRecipientOffline)
		assert.Equal(t, notification.StatusFailed, n.Status)
		assert.Equal(t, 1, n.RetryCount)
		assert.True(t, n.CanRetry())
	})
}

func TestService_ProcessRetryable(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := notificationMocks.NewMockRepository(ctrl)
	hub := notificationMocks.NewMockSSEHub(ctrl)
	service := NewService(repo, hub, nil, 4, zerolog.Nop())

	failed, err := notification.NewFromEvent(2, quoteSentEvent())
	require.NoError(t, err)
	require.NoError(t, failed.MarkSent())
	require.NoError(t, failed.MarkFailed("offline"))

	exhausted, err := notification.NewFromEvent(2, quoteSentEvent())
	require.NoError(t, err)
	exhausted.Status = notification.StatusFailed
	exhausted.RetryCount = exhausted.MaxRetries

	repo.EXPECT().ListRetryable(gomock.Any(), 10).Return([]*notification.Notification{failed, exhausted}, nil)
	hub.EXPECT().SendToUser(int64(2), gomock.Any()).Return(1)
	repo.EXPECT().Update(gomock.Any(), failed).Return(nil)

	delivered, err := service.ProcessRetryable(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, notification.StatusDelivered, failed.Status)
}

func TestService_NotifyQueue(t *testing.T) {
	t.Run("full queue drops without blocking", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		service := NewService(notificationMocks.NewMockRepository(ctrl), notificationMocks.NewMockSSEHub(ctrl), nil, 1, zerolog.Nop())

		require.NoError(t, service.Notify(context.Background(), 1, quoteSentEvent()))
		assert.ErrorIs(t, service.Notify(context.Background(), 1, quoteSentEvent()), notification.ErrQueueFull)
	})

	t.Run("workers deliver queued events", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := notificationMocks.NewMockRepository(ctrl)
		hub := notificationMocks.NewMockSSEHub(ctrl)
		service := NewService(repo, hub, nil, 4, zerolog.Nop())

		delivered := make(chan struct{})
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		hub.EXPECT().SendToUser(int64(5), gomock.Any()).Return(1)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, *notification.Notification) error {
			close(delivered)
			return nil
		})

		service.Start(1)
		defer service.Stop()
		require.NoError(t, service.Notify(context.Background(), 5, quoteSentEvent()))

		select {
		case <-delivered:
		case <-time.After(2 * time.Second):
			t.Fatal("notification was not delivered")
		}
	})

	t.Run("notify after stop", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		service := NewService(notificationMocks.NewMockRepository(ctrl), notificationMocks.NewMockSSEHub(ctrl), nil, 4, zerolog.Nop())
		service.Stop()
		assert.ErrorIs(t, service.Notify(context.Background(), 1, quoteSentEvent()), notification.ErrQueueFull)
	})
}
