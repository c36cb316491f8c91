package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
)

// Notifications implements notification.Repository.
type Notifications struct{ store *Store }

func NewNotifications(store *Store) *Notifications { return &Notifications{store: store} }

var _ notification.Repository = (*Notifications)(nil)

func (r *Notifications) Create(ctx context.Context, n *notification.Notification) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	r.store.notifications[n.ID] = *n
	return nil
}

func (r *Notifications) GetByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	n, ok := r.store.notifications[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (r *Notifications) List(ctx context.Context, f notification.Filter, limit, offset int) ([]*notification.Notification, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	out := make([]*notification.Notification, 0)
	for _, n := range r.store.notifications {
		if f.UserID != nil && n.UserID != *f.UserID {
			continue
		}
		if f.Status != nil && n.Status != *f.Status {
			continue
		}
		if f.EntityType != nil && n.EntityType != *f.EntityType {
			continue
		}
		if f.EntityID != nil && n.EntityID != *f.EntityID {
			continue
		}
		cp := n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (r *Notifications) Update(ctx context.Context, n *notification.Notification) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.notifications[n.ID]; !ok {
		return fmt.Errorf("notification %s does not exist", n.ID)
	}
	r.store.notifications[n.ID] = *n
	return nil
}

// ListRetryable returns failed notifications with retries left, oldest first.
func (r *Notifications) ListRetryable(ctx context.Context, limit int) ([]*notification.Notification, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	out := make([]*notification.Notification, 0)
	for _, n := range r.store.notifications {
		if !n.CanRetry() {
			continue
		}
		cp := n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, limit, 0), nil
}

func (r *Notifications) ExpireStale(ctx context.Context) (int64, error) {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	now := time.Now().UTC()
	var count int64
	for id, n := range r.store.notifications {
		if n.Status == notification.StatusDelivered || n.Status == notification.StatusExpired {
			continue
		}
		if n.ExpiresAt == nil || !now.After(*n.ExpiresAt) {
			continue
		}
		n.Status = notification.StatusExpired
		r.store.notifications[id] = n
		count++
	}
	return count, nil
}
