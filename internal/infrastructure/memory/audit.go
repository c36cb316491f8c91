package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/audit"
)

// AuditLogs implements audit.Repository. Records are append-only.
type AuditLogs struct{ store *Store }

func NewAuditLogs(store *Store) *AuditLogs { return &AuditLogs{store: store} }

var _ audit.Repository = (*AuditLogs)(nil)

func (r *AuditLogs) Create(ctx context.Context, entry *audit.AuditLog) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	entry.ID = r.store.nextAuditID
	r.store.nextAuditID++
	r.store.audits = append(r.store.audits, *entry)
	return nil
}

func (r *AuditLogs) GetByID(ctx context.Context, auditID uuid.UUID) (*audit.AuditLog, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, l := range r.store.audits {
		if l.AuditID == auditID {
			return &l, nil
		}
	}
	return nil, nil
}

func (r *AuditLogs) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID int64) ([]*audit.AuditLog, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	out := make([]*audit.AuditLog, 0)
	for i := len(r.store.audits) - 1; i >= 0; i-- {
		l := r.store.audits[i]
		if l.EntityType == entityType && l.EntityID == entityID {
			out = append(out, &l)
		}
	}
	return out, nil
}
