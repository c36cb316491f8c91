package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
)

const notificationColumns = `id, user_id, event_type, entity_type, entity_id, entity_status, priority, payload, status, retry_count, max_retries, last_error, expires_at, created_at, sent_at, delivered_at, failed_at`

// NotificationRepository implements notification.Repository.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

var _ notification.Repository = (*NotificationRepository)(nil)

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO notifications
		(`+notificationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, n.ID, n.UserID, n.EventType, n.EntityType, n.EntityID, n.EntityStatus, n.Priority, nullJSON(n.Payload), n.Status, n.RetryCount, n.MaxRetries, n.LastError, n.ExpiresAt, n.CreatedAt, n.SentAt, n.DeliveredAt, n.FailedAt)
	return err
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id=$1`, id)
	return scanNotification(row)
}

func (r *NotificationRepository) List(ctx context.Context, filter notification.Filter, limit, offset int) ([]*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications`
	args := []interface{}{}
	idx := 1
	if filter.UserID != nil {
		query += " WHERE user_id=$" + itoa(idx)
		args = append(args, *filter.UserID)
		idx++
	}
	if filter.Status != nil {
		query += addWhere(query) + " status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.EntityType != nil {
		query += addWhere(query) + " entity_type=$" + itoa(idx)
		args = append(args, *filter.EntityType)
		idx++
	}
	if filter.EntityID != nil {
		query += addWhere(query) + " entity_id=$" + itoa(idx)
		args = append(args, *filter.EntityID)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)
	return r.query(ctx, query, args...)
}

func (r *NotificationRepository) Update(ctx context.Context, n *notification.Notification) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE notifications
		SET status=$1, retry_count=$2, max_retries=$3, last_error=$4, expires_at=$5, sent_at=$6, delivered_at=$7, failed_at=$8
		WHERE id=$9
	`, n.Status, n.RetryCount, n.MaxRetries, n.LastError, n.ExpiresAt, n.SentAt, n.DeliveredAt, n.FailedAt, n.ID)
	return err
}

// ListRetryable returns failed notifications with retries left, oldest first.
func (r *NotificationRepository) ListRetryable(ctx context.Context, limit int) ([]*notification.Notification, error) {
	return r.query(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE status=$1 AND retry_count < max_retries AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at ASC LIMIT $2
	`, notification.StatusFailed, limit)
}

func (r *NotificationRepository) ExpireStale(ctx context.Context) (int64, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE notifications SET status=$1
		WHERE status NOT IN ($2, $1) AND expires_at IS NOT NULL AND expires_at < NOW()
	`, notification.StatusExpired, notification.StatusDelivered)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepository) query(ctx context.Context, query string, args ...interface{}) ([]*notification.Notification, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*notification.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var n notification.Notification
	var payload []byte
	if err := row.Scan(&n.ID, &n.UserID, &n.EventType, &n.EntityType, &n.EntityID, &n.EntityStatus, &n.Priority, &payload, &n.Status, &n.RetryCount, &n.MaxRetries, &n.LastError, &n.ExpiresAt, &n.CreatedAt, &n.SentAt, &n.DeliveredAt, &n.FailedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(payload) > 0 {
		n.Payload = payload
	}
	return &n, nil
}
