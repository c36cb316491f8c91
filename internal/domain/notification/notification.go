package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the delivery status of a notification
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
	StatusExpired   Status = "EXPIRED"
)

// Priority represents the notification priority
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Event types raised by the workflow.
const (
	EventRFQCreated        = "rfq.created"
	EventQuoteSent         = "quote.sent"
	EventQuoteAccepted     = "quote.accepted"
	EventQuoteRejected     = "quote.rejected"
	EventContractCreated   = "contract.created"
	EventContractStarted   = "contract.in_progress"
	EventContractCompleted = "contract.completed"
)

const defaultTTL = 24 * time.Hour

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrExpired           = errors.New("notification has expired")
	ErrClientNotFound    = errors.New("SSE client not found")
	ErrChannelFull       = errors.New("SSE message channel full")
	ErrCannotRetry       = errors.New("cannot retry notification")
	ErrQueueFull         = errors.New("notification queue full")
	ErrRecipientOffline  = errors.New("recipient has no open stream")
)

// Event is what the workflow hands to the notifier.
type Event struct {
	Type       string                 `json:"type"`
	EntityType string                 `json:"entityType"`
	EntityID   int64                  `json:"entityId"`
	Status     string                 `json:"status"`
	Priority   Priority               `json:"priority"`
	Params     map[string]interface{} `json:"params,omitempty"`
}

// Notifier accepts events for asynchronous delivery. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, userID int64, evt Event) error
}

// Notification is a persisted, per-user delivery of an event.
type Notification struct {
	ID           uuid.UUID       `json:"id"`
	UserID       int64           `json:"userId"`
	EventType    string          `json:"eventType"`
	EntityType   string          `json:"entityType"`
	EntityID     int64           `json:"entityId"`
	EntityStatus string          `json:"entityStatus"`
	Priority     Priority        `json:"priority"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Status       Status          `json:"status"`
	RetryCount   int             `json:"retryCount"`
	MaxRetries   int             `json:"maxRetries"`
	LastError    *string         `json:"lastError,omitempty"`
	ExpiresAt    *time.Time      `json:"expiresAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	SentAt       *time.Time      `json:"sentAt,omitempty"`
	DeliveredAt  *time.Time      `json:"deliveredAt,omitempty"`
	FailedAt     *time.Time      `json:"failedAt,omitempty"`
}

// NewFromEvent builds a pending notification of evt for userID.
func NewFromEvent(userID int64, evt Event) (*Notification, error) {
	var payload json.RawMessage
	if len(evt.Params) > 0 {
		data, err := json.Marshal(evt.Params)
		if err != nil {
			return nil, err
		}
		payload = data
	}
	priority := evt.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	now := time.Now().UTC()
	expires := now.Add(defaultTTL)
	return &Notification{
		ID:           uuid.New(),
		UserID:       userID,
		EventType:    evt.Type,
		EntityType:   evt.EntityType,
		EntityID:     evt.EntityID,
		EntityStatus: evt.Status,
		Priority:     priority,
		Payload:      payload,
		Status:       StatusPending,
		MaxRetries:   3,
		ExpiresAt:    &expires,
		CreatedAt:    now,
	}, nil
}

// IsExpired checks if the notification has expired
func (n *Notification) IsExpired() bool {
	if n.ExpiresAt == nil {
		return false
	}
	return time.Now().UTC().After(*n.ExpiresAt)
}

// CanTransitionTo checks if a transition to the target status is valid
func (n *Notification) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusSent, StatusFailed, StatusExpired},
		StatusSent:      {StatusDelivered, StatusFailed},
		StatusDelivered: {},
		StatusFailed:    {StatusPending, StatusExpired},
		StatusExpired:   {},
	}
	for _, s := range transitions[n.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// MarkSent marks the notification as handed to the stream hub
func (n *Notification) MarkSent() error {
	if n.IsExpired() {
		n.Status = StatusExpired
		return ErrExpired
	}
	if !n.CanTransitionTo(StatusSent) {
		return ErrInvalidTransition
	}
	n.Status = StatusSent
	now := time.Now().UTC()
	n.SentAt = &now
	return nil
}

func (n *Notification) MarkDelivered() error {
	if !n.CanTransitionTo(StatusDelivered) {
		return ErrInvalidTransition
	}
	n.Status = StatusDelivered
	now := time.Now().UTC()
	n.DeliveredAt = &now
	return nil
}

// MarkFailed records a failed attempt. Expired notifications move to EXPIRED instead.
func (n *Notification) MarkFailed(errMsg string) error {
	if n.IsExpired() {
		n.Status = StatusExpired
		return ErrExpired
	}
	if !n.CanTransitionTo(StatusFailed) {
		return ErrInvalidTransition
	}
	n.Status = StatusFailed
	now := time.Now().UTC()
	n.FailedAt = &now
	n.LastError = &errMsg
	n.RetryCount++
	return nil
}

// CanRetry checks if the notification can be retried
func (n *Notification) CanRetry() bool {
	return n.Status == StatusFailed && n.RetryCount < n.MaxRetries && !n.IsExpired()
}

// ResetForRetry resets the notification for retry
func (n *Notification) ResetForRetry() error {
	if !n.CanRetry() {
		return ErrCannotRetry
	}
	n.Status = StatusPending
	n.FailedAt = nil
	return nil
}

// IsTerminal returns true if the notification is in a terminal state
func (n *Notification) IsTerminal() bool {
	return n.Status == StatusDelivered ||
		n.Status == StatusExpired ||
		(n.Status == StatusFailed && !n.CanRetry())
}

// SSEClient represents an open notification stream of one user
type SSEClient struct {
	ClientID    string
	UserID      int64
	ConnectedAt time.Time
	MessageChan chan *SSEMessage
}

func NewSSEClient(userID int64) *SSEClient {
	return &SSEClient{
		ClientID:    uuid.New().String(),
		UserID:      userID,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *SSEMessage, 100),
	}
}

// Close closes the client's message channel
func (c *SSEClient) Close() {
	close(c.MessageChan)
}

// SSEMessage represents a message to be sent via SSE
type SSEMessage struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSSEMessage wraps a notification for the stream.
func NewSSEMessage(n *Notification) (*SSEMessage, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return &SSEMessage{
		ID:        n.ID.String(),
		Event:     n.EventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Filter represents filters for querying notifications
type Filter struct {
	UserID     *int64
	Status     *Status
	EntityType *string
	EntityID   *int64
}
