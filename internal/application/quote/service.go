package quote

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/authz"
	rfqapp "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/rfq"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/actor"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/audit"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/conversation"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/txn"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/metrics"
)

const entityName = "quote"

// SentHandler consumes QuoteSent inside the transaction that sent the quote
// and records the resulting RFQ change after commit.
type SentHandler interface {
	HandleQuoteSent(ctx context.Context, a actor.Actor, evt quote.Sent) (rfqapp.Quoted, error)
	RecordQuoted(ctx context.Context, a actor.Actor, q rfqapp.Quoted)
}

// ItemInput is one line supplied by the seller.
type ItemInput struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Note      *string         `json:"note,omitempty"`
}

// CreateInput references exactly one of an RFQ or a conversation.
// Draft quotes start pending and are sent later with Update.
type CreateInput struct {
	RFQID          *int64      `json:"rfqId,omitempty"`
	ConversationID *int64      `json:"conversationId,omitempty"`
	Items          []ItemInput `json:"items"`
	SellerMessage  *string     `json:"sellerMessage,omitempty"`
	Draft          bool        `json:"draft,omitempty"`
}

// UpdateInput carries the fields to change. Nil fields are left untouched.
type UpdateInput struct {
	Items         []ItemInput   `json:"items,omitempty"`
	SellerMessage *string       `json:"sellerMessage,omitempty"`
	Status        *quote.Status `json:"status,omitempty"`
}

func (in UpdateInput) touchesContent() bool {
	return in.Items != nil || in.SellerMessage != nil
}

func toItems(in []ItemInput) []quote.Item {
	items := make([]quote.Item, len(in))
	for i, it := range in {
		items[i] = quote.Item{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Note:      it.Note,
		}
	}
	return items
}

// Service drives the quote lifecycle.
type Service struct {
	repo          quote.Repository
	rfqs          rfq.Repository
	conversations conversation.Repository
	sent          SentHandler
	tx            txn.Manager
	authz         *authz.Authorizer
	notifier      notification.Notifier
	audit         audit.Logger
	metrics       *metrics.Metrics
	logger        zerolog.Logger
}

// NewService creates a new quote service
func NewService(
	repo quote.Repository,
	rfqs rfq.Repository,
	conversations conversation.Repository,
	sent SentHandler,
	tx txn.Manager,
	az *authz.Authorizer,
	notifier notification.Notifier,
	auditLog audit.Logger,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:          repo,
		rfqs:          rfqs,
		conversations: conversations,
		sent:          sent,
		tx:            tx,
		authz:         az,
		notifier:      notifier,
		audit:         auditLog,
		metrics:       m,
		logger:        logger.With().Str("service", "quote").Logger(),
	}
}

// Create issues a quote against an RFQ or a conversation. The quote, its
// items and the RFQ moving to quoted are committed together.
func (s *Service) Create(ctx context.Context, a actor.Actor, in CreateInput) (*quote.Quote, error) {
	if (in.RFQID == nil) == (in.ConversationID == nil) {
		return nil, apperr.Validation(entityName, "exactly one of rfqId or conversationId is required")
	}

	status := quote.StatusSent
	if in.Draft {
		status = quote.StatusPending
	}

	var (
		created *quote.Quote
		quoted  rfqapp.Quoted
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		q := &quote.Quote{
			RFQID:          in.RFQID,
			ConversationID: in.ConversationID,
			SellerMessage:  in.SellerMessage,
			Status:         status,
		}

		if in.RFQID != nil {
			r, err := s.rfqs.GetForUpdate(ctx, *in.RFQID)
			if err != nil {
				return fmt.Errorf("failed to get rfq: %w", err)
			}
			if r == nil || r.IsDeleted() {
				return apperr.NotFound("rfq", *in.RFQID)
			}
			if !s.authz.CanPerform(a, authz.QuoteSubject{RFQ: r}, authz.ActionCreate) {
				return apperr.Unauthorized(entityName, "quote this rfq")
			}
			if r.Status != rfq.StatusQuoted && !r.CanTransitionTo(rfq.StatusQuoted) {
				return apperr.InvalidState("rfq", "rfq %d is %s and cannot be quoted", r.ID, r.Status)
			}
			q.SellerID, q.BuyerID = r.SellerID, r.BuyerID
		} else {
			c, err := s.conversations.GetByID(ctx, *in.ConversationID)
			if err != nil {
				return fmt.Errorf("failed to get conversation: %w", err)
			}
			if c == nil {
				return apperr.NotFound("conversation", *in.ConversationID)
			}
			if !s.authz.CanPerform(a, authz.QuoteSubject{Conversation: c}, authz.ActionCreate) {
				return apperr.Unauthorized(entityName, "quote in this conversation")
			}
			other, _ := c.Other(a.ID)
			q.SellerID, q.BuyerID = a.ID, other
		}

		if err := q.SetItems(toItems(in.Items)); err != nil {
			return err
		}
		q.CreatedAt = q.UpdatedAt
		if err := s.repo.Create(ctx, q); err != nil {
			return fmt.Errorf("failed to create quote: %w", err)
		}
		if evt, ok := q.SentEvent(); ok {
			res, err := s.sent.HandleQuoteSent(ctx, a, evt)
			if err != nil {
				return err
			}
			quoted = res
		}
		created = q
		return nil
	})
	if err != nil {
		s.metrics.RecordFailure(entityName, apperr.Reason(err))
		return nil, err
	}

	s.logger.Info().
		Int64("quote_id", created.ID).
		Int64("seller_id", created.SellerID).
		Int64("buyer_id", created.BuyerID).
		Str("status", string(created.Status)).
		Str("total", created.TotalPrice.StringFixed(2)).
		Msg("quote created")

	s.sent.RecordQuoted(ctx, a, quoted)
	if created.Status == quote.StatusSent {
		s.notify(ctx, created.BuyerID, created, notification.EventQuoteSent, notification.PriorityHigh)
	}
	s.record(ctx, a, created, audit.ActionCreate, "", created)
	return created, nil
}

// FindWithAccess returns the quote if a is its buyer or seller, directly,
// through its RFQ or through its conversation. Admins may read every quote.
func (s *Service) FindWithAccess(ctx context.Context, a actor.Actor, id int64) (*quote.Quote, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	if q == nil || (q.IsDeleted() && !a.IsAdmin()) {
		return nil, apperr.NotFound(entityName, id)
	}
	subject, err := s.subject(ctx, q)
	if err != nil {
		return nil, err
	}
	if !s.authz.CanPerform(a, subject, authz.ActionView) {
		return nil, apperr.Unauthorized(entityName, "view")
	}
	return q, nil
}

// List returns quotes matching filter. Non-admins only see quotes they are party to.
func (s *Service) List(ctx context.Context, a actor.Actor, filter quote.Filter, limit, offset int) ([]*quote.Quote, error) {
	if !a.IsAdmin() {
		filter.PartyID = &a.ID
		filter.IncludeDeleted = false
	}
	return s.repo.List(ctx, filter, limit, offset)
}

// Update applies content edits and a status change in one transaction.
// Buyers may only decide; sellers may edit and send; admins may do both.
// The current status sent along with an edit is ignored.
func (s *Service) Update(ctx context.Context, a actor.Actor, id int64, in UpdateInput) (*quote.Quote, error) {
	var (
		updated *quote.Quote
		from    quote.Status
		quoted  rfqapp.Quoted
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		q, err := s.live(ctx, id)
		if err != nil {
			return err
		}
		subject, err := s.subject(ctx, q)
		if err != nil {
			return err
		}

		if in.touchesContent() {
			if !s.authz.CanPerform(a, subject, authz.ActionEdit) {
				return apperr.Unauthorized(entityName, "edit items or seller message")
			}
			if q.Status.IsDecision() {
				return apperr.InvalidState(entityName, "quote %d is %s and can no longer be edited", q.ID, q.Status)
			}
		}

		from = q.Status
		// An unchanged status riding along with a content edit is ignored. On its
		// own it is a transition request and must be adjacent like any other.
		changeStatus := in.Status != nil && (*in.Status != q.Status || !in.touchesContent())
		if changeStatus {
			action := authz.ActionSend
			if in.Status.IsDecision() {
				action = authz.ActionDecide
			}
			if !s.authz.CanPerform(a, subject, action) {
				return apperr.Unauthorized(entityName, "set status "+string(*in.Status))
			}
			if !q.CanTransitionTo(*in.Status) {
				return apperr.InvalidTransition(entityName, string(q.Status), string(*in.Status))
			}
		}

		if in.Items != nil {
			if err := q.SetItems(toItems(in.Items)); err != nil {
				return err
			}
			if err := s.repo.ReplaceItems(ctx, q.ID, q.Items); err != nil {
				return fmt.Errorf("failed to replace quote items: %w", err)
			}
		}
		if in.SellerMessage != nil {
			q.SellerMessage = in.SellerMessage
		}
		if changeStatus {
			if err := q.TransitionTo(*in.Status); err != nil {
				return err
			}
		}
		if err := s.repo.Update(ctx, q); err != nil {
			return fmt.Errorf("failed to update quote: %w", err)
		}

		if changeStatus {
			if evt, ok := q.SentEvent(); ok {
				res, err := s.sent.HandleQuoteSent(ctx, a, evt)
				if err != nil {
					return err
				}
				quoted = res
			}
		}
		updated = q
		return nil
	})
	if err != nil {
		s.metrics.RecordFailure(entityName, apperr.Reason(err))
		return nil, err
	}

	if in.touchesContent() {
		s.record(ctx, a, updated, audit.ActionUpdate, "", in)
	}
	if updated.Status != from {
		s.transitioned(ctx, a, updated, from)
	}
	s.sent.RecordQuoted(ctx, a, quoted)
	return updated, nil
}

// Delete soft-deletes a quote that has not been sent yet.
func (s *Service) Delete(ctx context.Context, a actor.Actor, id int64) (*quote.Quote, error) {
	var deleted *quote.Quote
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		q, err := s.live(ctx, id)
		if err != nil {
			return err
		}
		subject, err := s.subject(ctx, q)
		if err != nil {
			return err
		}
		if !s.authz.CanPerform(a, subject, authz.ActionDelete) {
			return apperr.Unauthorized(entityName, "delete")
		}
		if q.Status != quote.StatusPending {
			return apperr.InvalidState(entityName, "quote %d is %s; only pending quotes can be deleted", q.ID, q.Status)
		}
		q.SoftDelete()
		if err := s.repo.Update(ctx, q); err != nil {
			return fmt.Errorf("failed to delete quote: %w", err)
		}
		deleted = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("quote_id", id).Int64("actor_id", a.ID).Msg("quote deleted")
	s.record(ctx, a, deleted, audit.ActionDelete, "", nil)
	return deleted, nil
}

// Restore brings back a soft-deleted quote.
func (s *Service) Restore(ctx context.Context, a actor.Actor, id int64) (*quote.Quote, error) {
	var restored *quote.Quote
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		q, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get quote: %w", err)
		}
		if q == nil {
			return apperr.NotFound(entityName, id)
		}
		subject, err := s.subject(ctx, q)
		if err != nil {
			return err
		}
		if !s.authz.CanPerform(a, subject, authz.ActionRestore) {
			return apperr.Unauthorized(entityName, "restore")
		}
		if !q.IsDeleted() {
			return apperr.InvalidState(entityName, "quote %d is not deleted", id)
		}
		q.Restore()
		if err := s.repo.Update(ctx, q); err != nil {
			return fmt.Errorf("failed to restore quote: %w", err)
		}
		restored = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, a, restored, audit.ActionRestore, "", nil)
	return restored, nil
}

// Lookup loads a quote regardless of visibility, including soft-deleted ones.
func (s *Service) Lookup(ctx context.Context, id int64) (*quote.Quote, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	if q == nil {
		return nil, apperr.NotFound(entityName, id)
	}
	return q, nil
}

func (s *Service) live(ctx context.Context, id int64) (*quote.Quote, error) {
	q, err := s.repo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	if q == nil || q.IsDeleted() {
		return nil, apperr.NotFound(entityName, id)
	}
	return q, nil
}

// subject loads whatever binds q to its parties.
func (s *Service) subject(ctx context.Context, q *quote.Quote) (authz.QuoteSubject, error) {
	subject := authz.QuoteSubject{Quote: q}
	if q.RFQID != nil {
		r, err := s.rfqs.GetByID(ctx, *q.RFQID)
		if err != nil {
			return subject, fmt.Errorf("failed to get rfq: %w", err)
		}
		subject.RFQ = r
	}
	if q.ConversationID != nil {
		c, err := s.conversations.GetByID(ctx, *q.ConversationID)
		if err != nil {
			return subject, fmt.Errorf("failed to get conversation: %w", err)
		}
		subject.Conversation = c
	}
	return subject, nil
}

func (s *Service) transitioned(ctx context.Context, a actor.Actor, q *quote.Quote, from quote.Status) {
	s.metrics.RecordTransition(entityName, string(from), string(q.Status))
	s.logger.Info().
		Int64("quote_id", q.ID).
		Str("from", string(from)).
		Str("to", string(q.Status)).
		Int64("actor_id", a.ID).
		Msg("quote transitioned")

	switch q.Status {
	case quote.StatusSent:
		s.notify(ctx, q.BuyerID, q, notification.EventQuoteSent, notification.PriorityHigh)
	case quote.StatusAccepted:
		s.notify(ctx, q.SellerID, q, notification.EventQuoteAccepted, notification.PriorityHigh)
	case quote.StatusRejected:
		s.notify(ctx, q.SellerID, q, notification.EventQuoteRejected, notification.PriorityMedium)
	}
	s.record(ctx, a, q, audit.ActionTransition, string(from), nil)
}

func (s *Service) notify(ctx context.Context, userID int64, q *quote.Quote, eventType string, priority notification.Priority) {
	params := map[string]interface{}{
		"totalPrice": q.TotalPrice.StringFixed(2),
		"sellerId":   q.SellerID,
		"buyerId":    q.BuyerID,
	}
	if q.RFQID != nil {
		params["rfqId"] = *q.RFQID
	}
	evt := notification.Event{
		Type:       eventType,
		EntityType: entityName,
		EntityID:   q.ID,
		Status:     string(q.Status),
		Priority:   priority,
		Params:     params,
	}
	if err := s.notifier.Notify(ctx, userID, evt); err != nil {
		s.logger.Warn().Err(err).
			Int64("user_id", userID).
			Str("event", eventType).
			Int64("quote_id", q.ID).
			Msg("failed to enqueue notification")
	}
}

func (s *Service) record(ctx context.Context, a actor.Actor, q *quote.Quote, action audit.Action, from string, values interface{}) {
	s.audit.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeQuote,
		EntityID:   q.ID,
		Action:     action,
		ActorID:    a.ID,
		ActorRoles: a.RoleStrings(),
		FromStatus: from,
		ToStatus:   string(q.Status),
		NewValues:  values,
	})
}
