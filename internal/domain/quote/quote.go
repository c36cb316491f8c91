package quote

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
)

const entityName = "quote"

// Limits of the stored columns: quantities are int4, money is NUMERIC(14,2).
const MaxQuantity = math.MaxInt32

var MaxAmount = decimal.RequireFromString("999999999999.99")

// Status represents the lifecycle state of a quote.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusSent},
	StatusSent:     {StatusAccepted, StatusRejected},
	StatusAccepted: {},
	StatusRejected: {},
}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := transitions[st]; !ok {
		return "", apperr.Validation(entityName, "unknown status %q", s)
	}
	return st, nil
}

// IsDecision reports whether s is a buyer decision on a sent quote.
func (s Status) IsDecision() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Item is one priced line of a quote.
type Item struct {
	ID        int64           `json:"id"`
	QuoteID   int64           `json:"quoteId"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Note      *string         `json:"note,omitempty"`
}

// LineTotal is derived and never stored.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
}

// Total sums the line totals of items.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total.Round(2)
}

// ValidateItems checks an item list before it is priced.
func ValidateItems(items []Item) error {
	if len(items) == 0 {
		return apperr.Validation(entityName, "at least one item is required")
	}
	for i, it := range items {
		if it.ProductID <= 0 {
			return apperr.Validation(entityName, "item %d: product is required", i)
		}
		if it.Quantity < 1 {
			return apperr.Validation(entityName, "item %d: quantity must be at least 1", i)
		}
		if it.Quantity > MaxQuantity {
			return apperr.Validation(entityName, "item %d: quantity exceeds %d", i, MaxQuantity)
		}
		if it.UnitPrice.IsNegative() {
			return apperr.Validation(entityName, "item %d: unit price cannot be negative", i)
		}
		if it.UnitPrice.GreaterThan(MaxAmount) {
			return apperr.Validation(entityName, "item %d: unit price exceeds %s", i, MaxAmount.StringFixed(2))
		}
		if !it.UnitPrice.Equal(it.UnitPrice.Round(2)) {
			return apperr.Validation(entityName, "item %d: unit price has more than 2 decimal places", i)
		}
	}
	return nil
}

// Quote is a seller's priced offer, bound either to an RFQ or to a conversation.
type Quote struct {
	ID             int64           `json:"id"`
	RFQID          *int64          `json:"rfqId,omitempty"`
	ConversationID *int64          `json:"conversationId,omitempty"`
	SellerID       int64           `json:"sellerId"`
	BuyerID        int64           `json:"buyerId"`
	Items          []Item          `json:"items"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	SellerMessage  *string         `json:"sellerMessage,omitempty"`
	Status         Status          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	DeletedAt      *time.Time      `json:"deletedAt,omitempty"`
}

// SetItems replaces the items and recomputes the total.
func (q *Quote) SetItems(items []Item) error {
	if err := ValidateItems(items); err != nil {
		return err
	}
	out := make([]Item, len(items))
	for i, it := range items {
		it.QuoteID = q.ID
		it.UnitPrice = it.UnitPrice.Round(2)
		out[i] = it
	}
	total := Total(out)
	if total.GreaterThan(MaxAmount) {
		return apperr.Validation(entityName, "total price exceeds %s", MaxAmount.StringFixed(2))
	}
	q.Items = out
	q.TotalPrice = total
	q.UpdatedAt = time.Now().UTC()
	return nil
}

func (q *Quote) CanTransitionTo(target Status) bool {
	for _, s := range transitions[q.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// TransitionTo moves the quote to target or returns an invalid transition error.
func (q *Quote) TransitionTo(target Status) error {
	if !q.CanTransitionTo(target) {
		return apperr.InvalidTransition(entityName, string(q.Status), string(target))
	}
	q.Status = target
	q.UpdatedAt = time.Now().UTC()
	return nil
}

func (q *Quote) IsRFQBound() bool {
	return q.RFQID != nil
}

func (q *Quote) IsDeleted() bool {
	return q.DeletedAt != nil
}

func (q *Quote) SoftDelete() {
	now := time.Now().UTC()
	q.DeletedAt = &now
	q.UpdatedAt = now
}

func (q *Quote) Restore() {
	q.DeletedAt = nil
	q.UpdatedAt = time.Now().UTC()
}

// Sent is raised when a quote bound to an RFQ reaches the sent state.
type Sent struct {
	QuoteID int64
	RFQID   int64
}

// SentEvent returns the event for q, or false when q is not RFQ-bound or not sent.
func (q *Quote) SentEvent() (Sent, bool) {
	if q.RFQID == nil || q.Status != StatusSent {
		return Sent{}, false
	}
	return Sent{QuoteID: q.ID, RFQID: *q.RFQID}, true
}

// Filter represents filters for listing quotes.
type Filter struct {
	Status         *Status
	RFQID          *int64
	ConversationID *int64
	PartyID        *int64
	IncludeDeleted bool
}
