package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/metrics"
)

type job struct {
	userID int64
	evt    notification.Event
}

// Service persists workflow events per user and pushes them to open streams.
// Notify only enqueues; workers started with Start do the delivery.
type Service struct {
	repo    notification.Repository
	sseHub  notification.SSEHub
	metrics *metrics.Metrics
	logger  zerolog.Logger

	queue chan job
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// NewService creates a new notification service
func NewService(
	repo notification.Repository,
	sseHub notification.SSEHub,
	m *metrics.Metrics,
	queueSize int,
	logger zerolog.Logger,
) *Service {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Service{
		repo:    repo,
		sseHub:  sseHub,
		metrics: m,
		logger:  logger.With().Str("service", "notification").Logger(),
		queue:   make(chan job, queueSize),
		done:    make(chan struct{}),
	}
}

// Notify enqueues evt for userID. It never blocks; a full queue drops the event.
func (s *Service) Notify(ctx context.Context, userID int64, evt notification.Event) error {
	select {
	case <-s.done:
		return notification.ErrQueueFull
	default:
	}
	select {
	case s.queue <- job{userID: userID, evt: evt}:
		s.metrics.SetQueueDepth(len(s.queue))
		return nil
	default:
		s.metrics.RecordNotification("dropped")
		s.logger.Warn().
			Int64("user_id", userID).
			Str("event", evt.Type).
			Msg("notification queue full, event dropped")
		return notification.ErrQueueFull
	}
}

// Start launches the delivery workers.
func (s *Service) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	s.logger.Info().Int("workers", workers).Msg("notification workers started")
}

// Stop halts the workers. Events still queued are discarded.
func (s *Service) Stop() {
	s.once.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	if n := len(s.queue); n > 0 {
		s.logger.Warn().Int("pending", n).Msg("notification workers stopped with queued events")
	}
}

func (s *Service) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case j := <-s.queue:
			s.metrics.SetQueueDepth(len(s.queue))
			if _, err := s.Deliver(context.Background(), j.userID, j.evt); err != nil &&
				!errors.Is(err, notification.ErrRecipientOffline) {
				s.logger.Error().Err(err).
					Int64("user_id", j.userID).
					Str("event", j.evt.Type).
					Msg("failed to deliver notification")
			}
		}
	}
}

// Deliver stores the notification for userID and pushes it to the user's streams.
// A user with no open stream leaves the notification FAILED for a later retry.
func (s *Service) Deliver(ctx context.Context, userID int64, evt notification.Event) (*notification.Notification, error) {
	n, err := notification.NewFromEvent(userID, evt)
	if err != nil {
		return nil, fmt.Errorf("failed to build notification: %w", err)
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}
	return n, s.send(ctx, n)
}

func (s *Service) send(ctx context.Context, n *notification.Notification) error {
	if err := n.MarkSent(); err != nil {
		if errors.Is(err, notification.ErrExpired) {
			s.metrics.RecordNotification("expired")
			if uerr := s.repo.Update(ctx, n); uerr != nil {
				s.logger.Warn().Err(uerr).Str("notification_id", n.ID.String()).Msg("failed to persist expired status")
			}
		}
		return err
	}

	var sendErr error
	msg, err := notification.NewSSEMessage(n)
	if err != nil {
		sendErr = err
	} else if s.sseHub.SendToUser(n.UserID, msg) == 0 {
		sendErr = notification.ErrRecipientOffline
	}

	if sendErr != nil {
		_ = n.MarkFailed(sendErr.Error())
		s.metrics.RecordNotification("failed")
		s.logger.Debug().
			Str("notification_id", n.ID.String()).
			Int64("user_id", n.UserID).
			Int("retry_count", n.RetryCount).
			Err(sendErr).
			Msg("notification not delivered")
	} else {
		_ = n.MarkDelivered()
		s.metrics.RecordNotification("delivered")
		s.logger.Info().
			Str("notification_id", n.ID.String()).
			Int64("user_id", n.UserID).
			Str("event", n.EventType).
			Msg("notification delivered")
	}

	if err := s.repo.Update(ctx, n); err != nil {
		s.logger.Error().Err(err).Str("notification_id", n.ID.String()).Msg("failed to persist notification state")
		return errors.Join(sendErr, err)
	}
	return sendErr
}

// ProcessRetryable retries up to limit failed notifications and returns how many were delivered.
func (s *Service) ProcessRetryable(ctx context.Context, limit int) (int, error) {
	items, err := s.repo.ListRetryable(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list retryable notifications: %w", err)
	}

	delivered := 0
	for _, n := range items {
		if err := n.ResetForRetry(); err != nil {
			continue
		}
		if err := s.send(ctx, n); err != nil {
			continue
		}
		delivered++
	}
	return delivered, nil
}

// ExpireStale marks notifications past their TTL as EXPIRED.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	return s.repo.ExpireStale(ctx)
}

// ListForUser returns the notifications addressed to userID.
func (s *Service) ListForUser(ctx context.Context, userID int64, status *notification.Status, limit, offset int) ([]*notification.Notification, error) {
	filter := notification.Filter{UserID: &userID, Status: status}
	return s.repo.List(ctx, filter, limit, offset)
}

// ClientCount returns the number of open streams.
func (s *Service) ClientCount() int {
	return s.sseHub.GetClientCount()
}
