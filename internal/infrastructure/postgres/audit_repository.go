package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/audit"
)

const auditColumns = `id, audit_id, entity_type, entity_id, action, actor_id, actor_roles, from_status, to_status, new_values, reason, risk_level, signature, request_id, created_at`

// AuditRepository implements audit.Repository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

var _ audit.Repository = (*AuditRepository)(nil)

func (r *AuditRepository) Create(ctx context.Context, entry *audit.AuditLog) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO audit_logs
		(audit_id, entity_type, entity_id, action, actor_id, actor_roles, from_status, to_status, new_values, reason, risk_level, signature, request_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id
	`, entry.AuditID, entry.EntityType, entry.EntityID, entry.Action, entry.ActorID, entry.ActorRoles, entry.FromStatus, entry.ToStatus, nullJSON(entry.NewValues), entry.Reason, entry.RiskLevel, entry.Signature, entry.RequestID, entry.CreatedAt).Scan(&entry.ID)
}

func (r *AuditRepository) GetByID(ctx context.Context, auditID uuid.UUID) (*audit.AuditLog, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+auditColumns+` FROM audit_logs WHERE audit_id=$1`, auditID)
	return scanAudit(row)
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID int64) ([]*audit.AuditLog, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+auditColumns+` FROM audit_logs
		WHERE entity_type=$1 AND entity_id=$2
		ORDER BY created_at DESC, id DESC
	`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*audit.AuditLog, 0)
	for rows.Next() {
		log, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, log)
	}
	return out, rows.Err()
}

func scanAudit(row pgx.Row) (*audit.AuditLog, error) {
	var log audit.AuditLog
	var fromStatus, toStatus, reason, requestID *string
	var newValues []byte
	err := row.Scan(&log.ID, &log.AuditID, &log.EntityType, &log.EntityID, &log.Action, &log.ActorID, &log.ActorRoles, &fromStatus, &toStatus, &newValues, &reason, &log.RiskLevel, &log.Signature, &requestID, &log.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	log.FromStatus = deref(fromStatus)
	log.ToStatus = deref(toStatus)
	log.Reason = deref(reason)
	log.RequestID = deref(requestID)
	if len(newValues) > 0 {
		log.NewValues = newValues
	}
	return &log, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
