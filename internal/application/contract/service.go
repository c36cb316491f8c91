package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/authz"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/actor"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/audit"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/contract"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/txn"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/metrics"
)

const entityName = "contract"

// CreateInput holds the buyer supplied parts of a new contract.
type CreateInput struct {
	QuoteID               int64      `json:"quoteId"`
	Currency              string     `json:"currency,omitempty"`
	EstimatedDeliveryDate *time.Time `json:"estimatedDeliveryDate,omitempty"`
	ShippingAddress       *string    `json:"shippingAddress,omitempty"`
	BillingAddress        *string    `json:"billingAddress,omitempty"`
}

// Service drives the contract lifecycle.
type Service struct {
	repo            contract.Repository
	quotes          quote.Repository
	rfqs            rfq.Repository
	tx              txn.Manager
	authz           *authz.Authorizer
	notifier        notification.Notifier
	audit           audit.Logger
	metrics         *metrics.Metrics
	defaultCurrency string
	logger          zerolog.Logger
}

// NewService creates a new contract service
func NewService(
	repo contract.Repository,
	quotes quote.Repository,
	rfqs rfq.Repository,
	tx txn.Manager,
	az *authz.Authorizer,
	notifier notification.Notifier,
	auditLog audit.Logger,
	m *metrics.Metrics,
	defaultCurrency string,
	logger zerolog.Logger,
) *Service {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &Service{
		repo:            repo,
		quotes:          quotes,
		rfqs:            rfqs,
		tx:              tx,
		authz:           az,
		notifier:        notifier,
		audit:           auditLog,
		metrics:         m,
		defaultCurrency: strings.ToUpper(defaultCurrency),
		logger:          logger.With().Str("service", "contract").Logger(),
	}
}

// CreateFromQuote turns an accepted quote into a contract awaiting approval.
// Items are copied from the quote and never change afterwards.
func (s *Service) CreateFromQuote(ctx context.Context, a actor.Actor, in CreateInput) (*contract.Contract, error) {
	var created *contract.Contract
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		q, err := s.quotes.GetForUpdate(ctx, in.QuoteID)
		if err != nil {
			return fmt.Errorf("failed to get quote: %w", err)
		}
		if q == nil || q.IsDeleted() {
			return apperr.NotFound("quote", in.QuoteID)
		}

		now := time.Now().UTC()
		c := &contract.Contract{
			QuoteID:               q.ID,
			BuyerID:               q.BuyerID,
			SellerID:              q.SellerID,
			Status:                contract.StatusPendingApproval,
			TotalAmount:           q.TotalPrice,
			Currency:              s.defaultCurrency,
			ContractDate:          now,
			EstimatedDeliveryDate: in.EstimatedDeliveryDate,
			ShippingAddress:       in.ShippingAddress,
			BillingAddress:        in.BillingAddress,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if !s.authz.CanPerform(a, c, authz.ActionCreate) {
			return apperr.Unauthorized(entityName, "create from this quote")
		}
		if q.Status != quote.StatusAccepted {
			return apperr.InvalidState(entityName, "quote %d is %s; only accepted quotes become contracts", q.ID, q.Status)
		}
		existing, err := s.repo.GetByQuoteID(ctx, q.ID)
		if err != nil {
			return fmt.Errorf("failed to check existing contract: %w", err)
		}
		if existing != nil {
			return apperr.InvalidState(entityName, "contract already exists for quote %d", q.ID)
		}

		if cur := strings.TrimSpace(in.Currency); cur != "" {
			if len(cur) != 3 {
				return apperr.Validation(entityName, "currency must be a 3 letter code")
			}
			c.Currency = strings.ToUpper(cur)
		}
		if c.ShippingAddress == nil && q.RFQID != nil {
			r, err := s.rfqs.GetByID(ctx, *q.RFQID)
			if err != nil {
				return fmt.Errorf("failed to get rfq: %w", err)
			}
			if r != nil {
				addr := r.ShippingAddress
				c.ShippingAddress = &addr
			}
		}

		c.Items = make([]contract.Item, len(q.Items))
		for i, it := range q.Items {
			c.Items[i] = contract.Item{
				ProductID:      it.ProductID,
				Quantity:       it.Quantity,
				UnitPrice:      it.UnitPrice,
				TotalPrice:     it.LineTotal(),
				Specifications: it.Note,
			}
		}

		seq, err := s.repo.NextSequence(ctx)
		if err != nil {
			return fmt.Errorf("failed to allocate contract number: %w", err)
		}
		c.Number = contract.FormatNumber(now.Year(), seq)

		if err := s.repo.Create(ctx, c); err != nil {
			return fmt.Errorf("failed to create contract: %w", err)
		}
		created = c
		return nil
	})
	if err != nil {
		s.metrics.RecordFailure(entityName, apperr.Reason(err))
		return nil, err
	}

	s.logger.Info().
		Int64("contract_id", created.ID).
		Str("contract_number", created.Number).
		Int64("quote_id", created.QuoteID).
		Str("total", created.TotalAmount.StringFixed(2)).
		Msg("contract created")

	s.notify(ctx, created.SellerID, created, notification.EventContractCreated, notification.PriorityHigh, nil)
	s.record(ctx, a, created, audit.ActionCreate, "", created)
	return created, nil
}

// Get returns the contract if a is a party to it or an admin.
func (s *Service) Get(ctx context.Context, a actor.Actor, id int64) (*contract.Contract, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFound(entityName, id)
	}
	if !s.authz.CanPerform(a, c, authz.ActionView) {
		return nil, apperr.Unauthorized(entityName, "view")
	}
	return c, nil
}

// List returns contracts matching filter. Non-admins only see their own.
func (s *Service) List(ctx context.Context, a actor.Actor, filter contract.Filter, limit, offset int) ([]*contract.Contract, error) {
	if !a.IsAdmin() {
		filter.PartyID = &a.ID
	}
	return s.repo.List(ctx, filter, limit, offset)
}

// Transition moves the contract towards requested. metadata is merged into
// the contract's metadata and forwarded with the completion notification.
func (s *Service) Transition(ctx context.Context, a actor.Actor, id int64, requested contract.Status, metadata map[string]interface{}) (*contract.Contract, error) {
	var (
		updated *contract.Contract
		from    contract.Status
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get contract: %w", err)
		}
		if c == nil {
			return apperr.NotFound(entityName, id)
		}
		if !s.authz.CanPerform(a, c, authz.ActionTransition) {
			return apperr.Unauthorized(entityName, "transition")
		}
		target, err := c.Resolve(requested, a.IsAdmin())
		if err != nil {
			return err
		}
		if len(metadata) > 0 {
			merged, err := mergeMetadata(c.Metadata, metadata)
			if err != nil {
				return apperr.Validation(entityName, "invalid metadata: %v", err)
			}
			c.Metadata = merged
		}
		from = c.Status
		c.Apply(target)
		if err := s.repo.UpdateStatus(ctx, c); err != nil {
			return fmt.Errorf("failed to update contract: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		s.metrics.RecordFailure(entityName, apperr.Reason(err))
		return nil, err
	}

	s.metrics.RecordTransition(entityName, string(from), string(updated.Status))
	s.logger.Info().
		Int64("contract_id", updated.ID).
		Str("from", string(from)).
		Str("requested", string(requested)).
		Str("to", string(updated.Status)).
		Int64("actor_id", a.ID).
		Msg("contract transitioned")

	switch updated.Status {
	case contract.StatusInProgress:
		s.notify(ctx, updated.SellerID, updated, notification.EventContractStarted, notification.PriorityMedium, nil)
	case contract.StatusCompleted:
		s.notify(ctx, updated.SellerID, updated, notification.EventContractCompleted, notification.PriorityHigh, metadata)
	}
	var values interface{}
	if len(metadata) > 0 {
		values = metadata
	}
	s.record(ctx, a, updated, audit.ActionTransition, string(from), values)
	return updated, nil
}

// Lookup loads a contract regardless of visibility.
func (s *Service) Lookup(ctx context.Context, id int64) (*contract.Contract, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFound(entityName, id)
	}
	return c, nil
}

func mergeMetadata(current json.RawMessage, extra map[string]interface{}) (json.RawMessage, error) {
	merged := make(map[string]interface{})
	if len(current) > 0 {
		if err := json.Unmarshal(current, &merged); err != nil {
			return nil, err
		}
	}
	for k, v := range extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (s *Service) notify(ctx context.Context, userID int64, c *contract.Contract, eventType string, priority notification.Priority, extra map[string]interface{}) {
	params := map[string]interface{}{
		"contractNumber": c.Number,
		"totalAmount":    c.TotalAmount.StringFixed(2),
		"currency":       c.Currency,
	}
	if len(extra) > 0 {
		params["transaction"] = extra
	}
	evt := notification.Event{
		Type:       eventType,
		EntityType: entityName,
		EntityID:   c.ID,
		Status:     string(c.Status),
		Priority:   priority,
		Params:     params,
	}
	if err := s.notifier.Notify(ctx, userID, evt); err != nil {
		s.logger.Warn().Err(err).
			Int64("user_id", userID).
			Str("event", eventType).
			Int64("contract_id", c.ID).
			Msg("failed to enqueue notification")
	}
}

func (s *Service) record(ctx context.Context, a actor.Actor, c *contract.Contract, action audit.Action, from string, values interface{}) {
	s.audit.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeContract,
		EntityID:   c.ID,
		Action:     action,
		ActorID:    a.ID,
		ActorRoles: a.RoleStrings(),
		FromStatus: from,
		ToStatus:   string(c.Status),
		NewValues:  values,
	})
}
