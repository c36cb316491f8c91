package rfq

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/authz"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/actor"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/audit"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/txn"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/metrics"
)

const entityName = "rfq"

// Service drives the RFQ lifecycle.
type Service struct {
	repo     rfq.Repository
	tx       txn.Manager
	authz    *authz.Authorizer
	notifier notification.Notifier
	audit    audit.Logger
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewService creates a new RFQ service
func NewService(
	repo rfq.Repository,
	tx txn.Manager,
	az *authz.Authorizer,
	notifier notification.Notifier,
	auditLog audit.Logger,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		tx:       tx,
		authz:    az,
		notifier: notifier,
		audit:    auditLog,
		metrics:  m,
		logger:   logger.With().Str("service", "rfq").Logger(),
	}
}

// Create opens a pending RFQ on behalf of the buyer a and notifies the seller.
func (s *Service) Create(ctx context.Context, a actor.Actor, p rfq.NewParams) (*rfq.RFQ, error) {
	p.BuyerID = a.ID
	r, err := rfq.New(p)
	if err != nil {
		return nil, err
	}
	if !s.authz.CanPerform(a, r, authz.ActionCreate) {
		return nil, apperr.Unauthorized(entityName, "create")
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create rfq: %w", err)
	}

	s.logger.Info().
		Int64("rfq_id", r.ID).
		Int64("buyer_id", r.BuyerID).
		Int64("seller_id", r.SellerID).
		Msg("rfq created")

	s.notify(ctx, r.SellerID, notification.Event{
		Type:       notification.EventRFQCreated,
		EntityType: entityName,
		EntityID:   r.ID,
		Status:     string(r.Status),
		Priority:   notification.PriorityMedium,
		Params: map[string]interface{}{
			"buyerId":   r.BuyerID,
			"productId": r.ProductID,
			"quantity":  r.Quantity,
		},
	})
	s.record(ctx, a, r, audit.ActionCreate, "", r)
	return r, nil
}

// Get returns the RFQ if a may see it. Soft-deleted RFQs are visible to admins only.
func (s *Service) Get(ctx context.Context, a actor.Actor, id int64) (*rfq.RFQ, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get rfq: %w", err)
	}
	if r == nil || (r.IsDeleted() && !a.IsAdmin()) {
		return nil, apperr.NotFound(entityName, id)
	}
	if !s.authz.CanPerform(a, r, authz.ActionView) {
		return nil, apperr.Unauthorized(entityName, "view")
	}
	return r, nil
}

// List returns RFQs matching filter. Non-admins only see RFQs they are party to.
func (s *Service) List(ctx context.Context, a actor.Actor, filter rfq.Filter, limit, offset int) ([]*rfq.RFQ, error) {
	if !a.IsAdmin() {
		filter.PartyID = &a.ID
		filter.IncludeDeleted = false
	}
	return s.repo.List(ctx, filter, limit, offset)
}

// Transition moves the RFQ to target. The stored status is untouched on any failure.
func (s *Service) Transition(ctx context.Context, a actor.Actor, id int64, target rfq.Status) (*rfq.RFQ, error) {
	var (
		updated *rfq.RFQ
		from    rfq.Status
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.live(ctx, id)
		if err != nil {
			return err
		}
		if !s.authz.CanPerform(a, r, authz.ActionTransition) {
			return apperr.Unauthorized(entityName, "transition")
		}
		from = r.Status
		if err := r.TransitionTo(target); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, r); err != nil {
			return fmt.Errorf("failed to update rfq: %w", err)
		}
		updated = r
		return nil
	})
	if err != nil {
		s.metrics.RecordFailure(entityName, apperr.Reason(err))
		return nil, err
	}

	s.transitioned(ctx, a, updated, from)
	return updated, nil
}

// Delete soft-deletes the RFQ.
func (s *Service) Delete(ctx context.Context, a actor.Actor, id int64) (*rfq.RFQ, error) {
	var deleted *rfq.RFQ
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.live(ctx, id)
		if err != nil {
			return err
		}
		if !s.authz.CanPerform(a, r, authz.ActionDelete) {
			return apperr.Unauthorized(entityName, "delete")
		}
		r.SoftDelete()
		if err := s.repo.Update(ctx, r); err != nil {
			return fmt.Errorf("failed to delete rfq: %w", err)
		}
		deleted = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("rfq_id", id).Int64("actor_id", a.ID).Msg("rfq deleted")
	s.record(ctx, a, deleted, audit.ActionDelete, "", nil)
	return deleted, nil
}

// Restore brings back a soft-deleted RFQ.
func (s *Service) Restore(ctx context.Context, a actor.Actor, id int64) (*rfq.RFQ, error) {
	var restored *rfq.RFQ
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get rfq: %w", err)
		}
		if r == nil {
			return apperr.NotFound(entityName, id)
		}
		if !s.authz.CanPerform(a, r, authz.ActionRestore) {
			return apperr.Unauthorized(entityName, "restore")
		}
		if !r.IsDeleted() {
			return apperr.InvalidState(entityName, "rfq %d is not deleted", id)
		}
		r.Restore()
		if err := s.repo.Update(ctx, r); err != nil {
			return fmt.Errorf("failed to restore rfq: %w", err)
		}
		restored = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, a, restored, audit.ActionRestore, "", nil)
	return restored, nil
}

// Lookup loads an RFQ regardless of visibility, including soft-deleted ones.
func (s *Service) Lookup(ctx context.Context, id int64) (*rfq.RFQ, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get rfq: %w", err)
	}
	if r == nil {
		return nil, apperr.NotFound(entityName, id)
	}
	return r, nil
}

// Quoted is an RFQ moved to quoted by a sent quote. The zero value means
// the RFQ was already quoted and nothing changed.
type Quoted struct {
	RFQ     *rfq.RFQ
	From    rfq.Status
	QuoteID int64
}

func (q Quoted) Changed() bool { return q.RFQ != nil }

// HandleQuoteSent moves the quoted RFQ to quoted. It must run inside the
// transaction that sent the quote so both commit together. Nothing is
// recorded here; the caller passes the result to RecordQuoted once the
// transaction has committed.
func (s *Service) HandleQuoteSent(ctx context.Context, a actor.Actor, evt quote.Sent) (Quoted, error) {
	r, err := s.live(ctx, evt.RFQID)
	if err != nil {
		return Quoted{}, err
	}
	if r.Status == rfq.StatusQuoted {
		return Quoted{}, nil
	}
	if !r.CanTransitionTo(rfq.StatusQuoted) {
		return Quoted{}, apperr.InvalidState(entityName, "rfq %d is %s and cannot be quoted", r.ID, r.Status)
	}
	from := r.Status
	if err := r.TransitionTo(rfq.StatusQuoted); err != nil {
		return Quoted{}, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return Quoted{}, fmt.Errorf("failed to update rfq: %w", err)
	}
	return Quoted{RFQ: r, From: from, QuoteID: evt.QuoteID}, nil
}

// RecordQuoted logs, counts and audits a committed Quoted change.
func (s *Service) RecordQuoted(ctx context.Context, a actor.Actor, q Quoted) {
	if !q.Changed() {
		return
	}
	s.logger.Info().
		Int64("rfq_id", q.RFQ.ID).
		Int64("quote_id", q.QuoteID).
		Str("from", string(q.From)).
		Msg("rfq quoted")
	s.transitioned(ctx, a, q.RFQ, q.From)
}

// live loads and locks an RFQ that has not been soft-deleted.
func (s *Service) live(ctx context.Context, id int64) (*rfq.RFQ, error) {
	r, err := s.repo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get rfq: %w", err)
	}
	if r == nil || r.IsDeleted() {
		return nil, apperr.NotFound(entityName, id)
	}
	return r, nil
}

func (s *Service) transitioned(ctx context.Context, a actor.Actor, r *rfq.RFQ, from rfq.Status) {
	s.metrics.RecordTransition(entityName, string(from), string(r.Status))
	s.logger.Debug().
		Int64("rfq_id", r.ID).
		Str("from", string(from)).
		Str("to", string(r.Status)).
		Int64("actor_id", a.ID).
		Msg("rfq transitioned")
	s.record(ctx, a, r, audit.ActionTransition, string(from), nil)
}

func (s *Service) notify(ctx context.Context, userID int64, evt notification.Event) {
	if err := s.notifier.Notify(ctx, userID, evt); err != nil {
		s.logger.Warn().Err(err).
			Int64("user_id", userID).
			Str("event", evt.Type).
			Int64("rfq_id", evt.EntityID).
			Msg("failed to enqueue notification")
	}
}

func (s *Service) record(ctx context.Context, a actor.Actor, r *rfq.RFQ, action audit.Action, from string, values interface{}) {
	s.audit.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeRFQ,
		EntityID:   r.ID,
		Action:     action,
		ActorID:    a.ID,
		ActorRoles: a.RoleStrings(),
		FromStatus: from,
		ToStatus:   string(r.Status),
		NewValues:  values,
	})
}
