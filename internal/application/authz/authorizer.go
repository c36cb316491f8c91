package authz

import (
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/actor"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/contract"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/conversation"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq"
)

// Action names an operation guarded by the authorizer.
type Action string

const (
	ActionView       Action = "view"
	ActionCreate     Action = "create"
	ActionTransition Action = "transition"
	ActionEdit       Action = "edit"
	ActionSend       Action = "send"
	ActionDecide     Action = "decide"
	ActionDelete     Action = "delete"
	ActionRestore    Action = "restore"
	ActionBulk       Action = "bulk"
)

// QuoteSubject is a quote together with whatever links it to its parties.
// RFQ is set for RFQ-bound quotes, Conversation for conversation-bound ones.
type QuoteSubject struct {
	Quote        *quote.Quote
	RFQ          *rfq.RFQ
	Conversation *conversation.Conversation
}

type rule[T any] func(a actor.Actor, e T) bool

// table maps an action to the rules that each grant it on their own.
type table[T any] map[Action][]rule[T]

func (t table[T]) permits(a actor.Actor, e T, action Action) bool {
	for _, r := range t[action] {
		if r(a, e) {
			return true
		}
	}
	return false
}

func isAdmin[T any](a actor.Actor, _ T) bool { return a.IsAdmin() }

var rfqRules = table[*rfq.RFQ]{
	ActionCreate:     {rfqBuyerWithRole},
	ActionView:       {isAdmin[*rfq.RFQ], rfqParty},
	ActionTransition: {isAdmin[*rfq.RFQ], rfqSeller},
	ActionDelete:     {isAdmin[*rfq.RFQ], rfqBuyer},
	ActionRestore:    {isAdmin[*rfq.RFQ]},
}

func rfqBuyerWithRole(a actor.Actor, r *rfq.RFQ) bool {
	return a.Has(actor.RoleBuyer) && r.BuyerID == a.ID
}
func rfqParty(a actor.Actor, r *rfq.RFQ) bool  { return r.IsParty(a.ID) }
func rfqSeller(a actor.Actor, r *rfq.RFQ) bool { return r.SellerID == a.ID }
func rfqBuyer(a actor.Actor, r *rfq.RFQ) bool  { return r.BuyerID == a.ID }

var quoteRules = table[QuoteSubject]{
	ActionCreate:  {quoteCreator},
	ActionView:    {isAdmin[QuoteSubject], quoteDirectParty, quoteRFQParty, quoteParticipant},
	ActionEdit:    {isAdmin[QuoteSubject], quoteSellerWithRole},
	ActionSend:    {isAdmin[QuoteSubject], quoteSellerWithRole},
	ActionDecide:  {isAdmin[QuoteSubject], quoteBuyerWithRole},
	ActionDelete:  {isAdmin[QuoteSubject], quoteRFQSeller, quoteParticipant},
	ActionRestore: {isAdmin[QuoteSubject]},
}

// quoteCreator: RFQ-bound quotes come from the RFQ's seller or an admin,
// conversation-bound quotes from a participant holding the seller role.
func quoteCreator(a actor.Actor, s QuoteSubject) bool {
	if s.RFQ != nil {
		return a.IsAdmin() || s.RFQ.SellerID == a.ID
	}
	return a.Has(actor.RoleSeller) && quoteParticipant(a, s)
}

func quoteDirectParty(a actor.Actor, s QuoteSubject) bool {
	return s.Quote != nil && (s.Quote.BuyerID == a.ID || s.Quote.SellerID == a.ID)
}

func quoteRFQParty(a actor.Actor, s QuoteSubject) bool {
	return s.RFQ != nil && s.RFQ.IsParty(a.ID)
}

func quoteParticipant(a actor.Actor, s QuoteSubject) bool {
	return s.Conversation != nil && s.Conversation.Has(a.ID)
}

func quoteSellerWithRole(a actor.Actor, s QuoteSubject) bool {
	return a.Has(actor.RoleSeller) && s.Quote != nil && s.Quote.SellerID == a.ID
}

func quoteBuyerWithRole(a actor.Actor, s QuoteSubject) bool {
	return a.Has(actor.RoleBuyer) && s.Quote != nil && s.Quote.BuyerID == a.ID
}

func quoteRFQSeller(a actor.Actor, s QuoteSubject) bool {
	return s.RFQ != nil && s.RFQ.SellerID == a.ID
}

var contractRules = table[*contract.Contract]{
	ActionCreate:     {isAdmin[*contract.Contract], contractBuyer},
	ActionView:       {isAdmin[*contract.Contract], contractParty},
	ActionTransition: {isAdmin[*contract.Contract]},
}

func contractBuyer(a actor.Actor, c *contract.Contract) bool { return c.BuyerID == a.ID }
func contractParty(a actor.Actor, c *contract.Contract) bool { return c.IsParty(a.ID) }

// Authorizer decides whether an actor may perform an action on an entity.
// It holds no state and never reads ambient identity.
type Authorizer struct{}

func New() *Authorizer {
	return &Authorizer{}
}

// CanPerform looks up the decision table for entity's type. Unknown entity
// types and actions are denied.
func (z *Authorizer) CanPerform(a actor.Actor, entity interface{}, action Action) bool {
	switch e := entity.(type) {
	case *rfq.RFQ:
		return e != nil && rfqRules.permits(a, e, action)
	case QuoteSubject:
		return quoteRules.permits(a, e, action)
	case *QuoteSubject:
		return e != nil && quoteRules.permits(a, *e, action)
	case *contract.Contract:
		return e != nil && contractRules.permits(a, e, action)
	}
	return false
}

// CanBulk reports whether a may run bulk actions.
func (z *Authorizer) CanBulk(a actor.Actor) bool {
	return a.IsAdmin()
}
