package rfq

import (
	"math"
	"strings"
	"time"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
)

const entityName = "rfq"

// MaxQuantity is the largest quantity the int4 column holds.
const MaxQuantity = math.MaxInt32

// Status represents the lifecycle state of a request for quote.
type Status string

const (
	StatusPending    Status = "pending"
	StatusSeen       Status = "seen"
	StatusInProgress Status = "in_progress"
	StatusQuoted     Status = "quoted"
	StatusRejected   Status = "rejected"
	StatusClosed     Status = "closed"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusSeen, StatusInProgress, StatusQuoted, StatusRejected, StatusClosed},
	StatusSeen:       {StatusInProgress, StatusQuoted, StatusRejected, StatusClosed},
	StatusInProgress: {StatusQuoted, StatusRejected, StatusClosed},
	StatusQuoted:     {StatusClosed},
	StatusRejected:   {},
	StatusClosed:     {},
}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := transitions[st]; !ok {
		return "", apperr.Validation(entityName, "unknown status %q", s)
	}
	return st, nil
}

// Allowed returns the statuses reachable from s.
func Allowed(s Status) []Status {
	return transitions[s]
}

// RFQ is a buyer's request for pricing from one seller.
type RFQ struct {
	ID              int64      `json:"id"`
	BuyerID         int64      `json:"buyerId"`
	SellerID        int64      `json:"sellerId"`
	ProductID       int64      `json:"productId"`
	Quantity        int        `json:"quantity"`
	ShippingCountry string     `json:"shippingCountry"`
	ShippingAddress string     `json:"shippingAddress"`
	Message         *string    `json:"message,omitempty"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty"`
}

// NewParams holds the fields a buyer supplies when opening an RFQ.
type NewParams struct {
	BuyerID         int64
	SellerID        int64
	ProductID       int64
	Quantity        int
	ShippingCountry string
	ShippingAddress string
	Message         *string
}

// New validates p and returns a pending RFQ.
func New(p NewParams) (*RFQ, error) {
	if p.BuyerID == p.SellerID {
		return nil, apperr.Validation(entityName, "buyer and seller must differ")
	}
	if p.SellerID <= 0 {
		return nil, apperr.Validation(entityName, "seller is required")
	}
	if p.ProductID <= 0 {
		return nil, apperr.Validation(entityName, "product is required")
	}
	if p.Quantity < 1 || p.Quantity > MaxQuantity {
		return nil, apperr.Validation(entityName, "quantity must be between 1 and %d", MaxQuantity)
	}
	if strings.TrimSpace(p.ShippingCountry) == "" || strings.TrimSpace(p.ShippingAddress) == "" {
		return nil, apperr.Validation(entityName, "shipping country and address are required")
	}
	now := time.Now().UTC()
	return &RFQ{
		BuyerID:         p.BuyerID,
		SellerID:        p.SellerID,
		ProductID:       p.ProductID,
		Quantity:        p.Quantity,
		ShippingCountry: strings.TrimSpace(p.ShippingCountry),
		ShippingAddress: strings.TrimSpace(p.ShippingAddress),
		Message:         p.Message,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CanTransitionTo reports whether target is adjacent to the current status.
func (r *RFQ) CanTransitionTo(target Status) bool {
	for _, s := range transitions[r.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// TransitionTo moves the RFQ to target or returns an invalid transition error.
func (r *RFQ) TransitionTo(target Status) error {
	if !r.CanTransitionTo(target) {
		return apperr.InvalidTransition(entityName, string(r.Status), string(target))
	}
	r.Status = target
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *RFQ) IsTerminal() bool {
	return len(transitions[r.Status]) == 0
}

func (r *RFQ) IsDeleted() bool {
	return r.DeletedAt != nil
}

// IsParty reports whether userID is the RFQ's buyer or seller.
func (r *RFQ) IsParty(userID int64) bool {
	return r.BuyerID == userID || r.SellerID == userID
}

func (r *RFQ) SoftDelete() {
	now := time.Now().UTC()
	r.DeletedAt = &now
	r.UpdatedAt = now
}

func (r *RFQ) Restore() {
	r.DeletedAt = nil
	r.UpdatedAt = time.Now().UTC()
}

// Filter represents filters for listing RFQs.
type Filter struct {
	Status         *Status
	BuyerID        *int64
	SellerID       *int64
	PartyID        *int64
	IncludeDeleted bool
}
