package bulk

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/authz"
	quoteapp "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/actor"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/contract"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/metrics"
)

// Entity names the kind of entity a bulk request targets.
type Entity string

const (
	EntityRFQ      Entity = "rfq"
	EntityQuote    Entity = "quote"
	EntityContract Entity = "contract"
)

// ActionKind is the single-item operation applied to every id.
type ActionKind string

const (
	ActionTransition ActionKind = "transition"
	ActionDelete     ActionKind = "delete"
	ActionRestore    ActionKind = "restore"
)

var supported = map[Entity][]ActionKind{
	EntityRFQ:      {ActionTransition, ActionDelete, ActionRestore},
	EntityQuote:    {ActionTransition, ActionDelete, ActionRestore},
	EntityContract: {ActionTransition},
}

// Failure reasons that do not come from a workflow error.
const (
	ReasonConditionNotMet = "condition not met"
	ReasonConditionError  = "condition error"
	ReasonCancelled       = "cancelled"
)

// Params are shared by every item of a request.
type Params struct {
	Status    string                 `json:"status,omitempty"`
	Condition string                 `json:"condition,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Request is one bulk action over a list of ids.
type Request struct {
	Entity Entity     `json:"entity"`
	Action ActionKind `json:"action"`
	IDs    []int64    `json:"ids"`
	Params Params     `json:"params"`
}

// Failure reports why one id was not processed.
type Failure struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// Result lists the post-mutation entities and the failed ids.
type Result struct {
	Successful []interface{} `json:"successful"`
	Failed     []Failure     `json:"failed"`
}

// Succeeded reports whether at least one item went through.
func (r *Result) Succeeded() bool {
	return len(r.Successful) > 0
}

// RFQService is the part of the RFQ workflow bulk actions drive.
type RFQService interface {
	Lookup(ctx context.Context, id int64) (*rfq.RFQ, error)
	Transition(ctx context.Context, a actor.Actor, id int64, target rfq.Status) (*rfq.RFQ, error)
	Delete(ctx context.Context, a actor.Actor, id int64) (*rfq.RFQ, error)
	Restore(ctx context.Context, a actor.Actor, id int64) (*rfq.RFQ, error)
}

// QuoteService is the part of the quote workflow bulk actions drive.
type QuoteService interface {
	Lookup(ctx context.Context, id int64) (*quote.Quote, error)
	Update(ctx context.Context, a actor.Actor, id int64, in quoteapp.UpdateInput) (*quote.Quote, error)
	Delete(ctx context.Context, a actor.Actor, id int64) (*quote.Quote, error)
	Restore(ctx context.Context, a actor.Actor, id int64) (*quote.Quote, error)
}

// ContractService is the part of the contract workflow bulk actions drive.
type ContractService interface {
	Lookup(ctx context.Context, id int64) (*contract.Contract, error)
	Transition(ctx context.Context, a actor.Actor, id int64, requested contract.Status, metadata map[string]interface{}) (*contract.Contract, error)
}

// step is the prepared per-item work of a request.
type step struct {
	lookup func(ctx context.Context, id int64) (map[string]interface{}, error)
	apply  func(ctx context.Context, id int64) (interface{}, error)
}

// Orchestrator applies one action to many entities. Each item runs in its
// own transaction; a failing item never aborts the batch.
type Orchestrator struct {
	rfqs      RFQService
	quotes    QuoteService
	contracts ContractService
	authz     *authz.Authorizer
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewOrchestrator creates a new bulk action orchestrator
func NewOrchestrator(
	rfqs RFQService,
	quotes QuoteService,
	contracts ContractService,
	az *authz.Authorizer,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		rfqs:      rfqs,
		quotes:    quotes,
		contracts: contracts,
		authz:     az,
		metrics:   m,
		logger:    logger.With().Str("service", "bulk").Logger(),
	}
}

// Apply runs req for admin a. Only request level problems are returned as
// errors; item failures are collected in the result.
func (o *Orchestrator) Apply(ctx context.Context, a actor.Actor, req Request) (*Result, error) {
	if !o.authz.CanBulk(a) {
		return nil, apperr.Unauthorized("bulk", "run bulk actions")
	}
	if len(req.IDs) == 0 {
		return nil, apperr.Validation("bulk", "ids must not be empty")
	}
	cond, err := ParseCondition(req.Params.Condition)
	if err != nil {
		return nil, apperr.Validation("bulk", "invalid condition: %v", err)
	}
	st, err := o.prepare(a, req)
	if err != nil {
		return nil, err
	}

	result := &Result{Successful: []interface{}{}, Failed: []Failure{}}
	for _, id := range dedupe(req.IDs) {
		if err := ctx.Err(); err != nil {
			o.fail(req, result, Failure{ID: id, Reason: ReasonCancelled, Detail: err.Error()})
			continue
		}

		params, err := st.lookup(ctx, id)
		if err != nil {
			o.fail(req, result, failure(id, err))
			continue
		}
		ok, err := cond.Evaluate(params)
		if err != nil {
			o.fail(req, result, Failure{ID: id, Reason: ReasonConditionError, Detail: err.Error()})
			continue
		}
		if !ok {
			o.fail(req, result, Failure{ID: id, Reason: ReasonConditionNotMet})
			continue
		}

		entity, err := st.apply(ctx, id)
		if err != nil {
			o.fail(req, result, failure(id, err))
			continue
		}
		result.Successful = append(result.Successful, entity)
		o.metrics.RecordBulkItem(string(req.Entity), string(req.Action), "succeeded")
	}

	o.logger.Info().
		Str("entity", string(req.Entity)).
		Str("action", string(req.Action)).
		Int64("actor_id", a.ID).
		Int("succeeded", len(result.Successful)).
		Int("failed", len(result.Failed)).
		Msg("bulk action applied")
	return result, nil
}

func (o *Orchestrator) prepare(a actor.Actor, req Request) (*step, error) {
	if !isSupported(req.Entity, req.Action) {
		return nil, apperr.Validation("bulk", "action %q is not supported for %q", req.Action, req.Entity)
	}

	switch req.Entity {
	case EntityRFQ:
		st := &step{lookup: func(ctx context.Context, id int64) (map[string]interface{}, error) {
			r, err := o.rfqs.Lookup(ctx, id)
			if err != nil {
				return nil, err
			}
			return rfqParams(r), nil
		}}
		switch req.Action {
		case ActionTransition:
			target, err := rfq.ParseStatus(req.Params.Status)
			if err != nil {
				return nil, err
			}
			st.apply = func(ctx context.Context, id int64) (interface{}, error) { return o.rfqs.Transition(ctx, a, id, target) }
		case ActionDelete:
			st.apply = func(ctx context.Context, id int64) (interface{}, error) { return o.rfqs.Delete(ctx, a, id) }
		case ActionRestore:
			st.apply = func(ctx context.Context, id int64) (interface{}, error) { return o.rfqs.Restore(ctx, a, id) }
		}
		return st, nil

	case EntityQuote:
		st := &step{lookup: func(ctx context.Context, id int64) (map[string]interface{}, error) {
			q, err := o.quotes.Lookup(ctx, id)
			if err != nil {
				return nil, err
			}
			return quoteParams(q), nil
		}}
		switch req.Action {
		case ActionTransition:
			target, err := quote.ParseStatus(req.Params.Status)
			if err != nil {
				return nil, err
			}
			st.apply = func(ctx context.Context, id int64) (interface{}, error) {
				return o.quotes.Update(ctx, a, id, quoteapp.UpdateInput{Status: &target})
			}
		case ActionDelete:
			st.apply = func(ctx context.Context, id int64) (interface{}, error) { return o.quotes.Delete(ctx, a, id) }
		case ActionRestore:
			st.apply = func(ctx context.Context, id int64) (interface{}, error) { return o.quotes.Restore(ctx, a, id) }
		}
		return st, nil

	default:
		target, err := contract.ParseStatus(req.Params.Status)
		if err != nil {
			return nil, err
		}
		return &step{
			lookup: func(ctx context.Context, id int64) (map[string]interface{}, error) {
				c, err := o.contracts.Lookup(ctx, id)
				if err != nil {
					return nil, err
				}
				return contractParams(c), nil
			},
			apply: func(ctx context.Context, id int64) (interface{}, error) {
				return o.contracts.Transition(ctx, a, id, target, req.Params.Metadata)
			},
		}, nil
	}
}

func (o *Orchestrator) fail(req Request, result *Result, f Failure) {
	result.Failed = append(result.Failed, f)
	o.metrics.RecordBulkItem(string(req.Entity), string(req.Action), "failed")
	o.logger.Debug().
		Str("entity", string(req.Entity)).
		Int64("id", f.ID).
		Str("reason", f.Reason).
		Str("detail", f.Detail).
		Msg("bulk item failed")
}

func failure(id int64, err error) Failure {
	return Failure{ID: id, Reason: apperr.Reason(err), Detail: err.Error()}
}

func isSupported(e Entity, a ActionKind) bool {
	for _, k := range supported[e] {
		if k == a {
			return true
		}
	}
	return false
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ParseEntity validates an entity name.
func ParseEntity(s string) (Entity, error) {
	e := Entity(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := supported[e]; !ok {
		return "", apperr.Validation("bulk", "unknown entity %q", s)
	}
	return e, nil
}

