package notification

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,SSEHub,Notifier

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for notification persistence
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Notification, error)
	Update(ctx context.Context, n *Notification) error

	// Retry support
	ListRetryable(ctx context.Context, limit int) ([]*Notification, error)
	ExpireStale(ctx context.Context) (int64, error)
}

// SSEHub defines the interface for managing notification streams
type SSEHub interface {
	Register(client *SSEClient)
	Unregister(clientID string)
	GetClientCount() int

	// SendToUser pushes message to every stream of userID and returns how many accepted it.
	SendToUser(userID int64, message *SSEMessage) int
	Stop()
}
