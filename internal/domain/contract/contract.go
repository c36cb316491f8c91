package contract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
)

const entityName = "contract"

// Status represents the fulfillment state of a contract.
type Status string

const (
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusPendingPayment  Status = "pending_payment"
	StatusInProgress      Status = "in_progress"
	StatusShipped         Status = "shipped"
	StatusDelivered       Status = "delivered"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPendingApproval: {StatusApproved, StatusCancelled},
	StatusApproved:        {StatusPendingPayment, StatusCancelled},
	StatusPendingPayment:  {StatusInProgress, StatusCancelled},
	StatusInProgress:      {StatusShipped, StatusCancelled},
	StatusShipped:         {StatusDelivered, StatusCancelled},
	StatusDelivered:       {StatusCompleted},
	StatusCompleted:       {},
	StatusCancelled:       {},
}

// Statuses used by back-office tooling that have no place in the transition table.
var unsupported = map[string]bool{
	"pending_payment_confirmation": true,
	"delivered_and_paid":           true,
	"buyer_payment_rejected":       true,
}

// ParseStatus validates a status name against the canonical table.
func ParseStatus(s string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if unsupported[name] {
		return "", apperr.Validation(entityName, "status %q is not supported by the contract workflow", name)
	}
	st := Status(name)
	if _, ok := transitions[st]; !ok {
		return "", apperr.Validation(entityName, "unknown status %q", s)
	}
	return st, nil
}

// Item is an immutable snapshot of a quoted line.
type Item struct {
	ID             int64           `json:"id"`
	ContractID     int64           `json:"contractId"`
	ProductID      int64           `json:"productId"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	Specifications *string         `json:"specifications,omitempty"`
}

// Contract is the binding order created from an accepted quote.
type Contract struct {
	ID                    int64           `json:"id"`
	Number                string          `json:"contractNumber"`
	QuoteID               int64           `json:"quoteId"`
	BuyerID               int64           `json:"buyerId"`
	SellerID              int64           `json:"sellerId"`
	Status                Status          `json:"status"`
	TotalAmount           decimal.Decimal `json:"totalAmount"`
	Currency              string          `json:"currency"`
	ContractDate          time.Time       `json:"contractDate"`
	EstimatedDeliveryDate *time.Time      `json:"estimatedDeliveryDate,omitempty"`
	ShippingAddress       *string         `json:"shippingAddress,omitempty"`
	BillingAddress        *string         `json:"billingAddress,omitempty"`
	Metadata              json.RawMessage `json:"metadata,omitempty"`
	Items                 []Item          `json:"items"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// FormatNumber renders the human readable contract number.
func FormatNumber(year int, seq int64) string {
	return fmt.Sprintf("CON-%d-%06d", year, seq)
}

func (c *Contract) CanTransitionTo(target Status) bool {
	for _, s := range transitions[c.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Resolve returns the status a request for requested actually lands on.
// An admin approving a contract awaiting approval advances it straight to
// pending_payment.
func (c *Contract) Resolve(requested Status, admin bool) (Status, error) {
	if !c.CanTransitionTo(requested) {
		return "", apperr.InvalidTransition(entityName, string(c.Status), string(requested))
	}
	if admin && c.Status == StatusPendingApproval && requested == StatusApproved {
		return StatusPendingPayment, nil
	}
	return requested, nil
}

// Apply sets the status chosen by Resolve.
func (c *Contract) Apply(target Status) {
	c.Status = target
	c.UpdatedAt = time.Now().UTC()
}

func (c *Contract) IsParty(userID int64) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

func (c *Contract) IsTerminal() bool {
	return len(transitions[c.Status]) == 0
}

// Filter represents filters for listing contracts.
type Filter struct {
	Status  *Status
	QuoteID *int64
	PartyID *int64
}
