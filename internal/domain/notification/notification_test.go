package notification

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotification(t *testing.T) *Notification {
	t.Helper()
	n, err := NewFromEvent(7, Event{Type: EventRFQCreated, EntityType: "rfq", EntityID: 3, Status: "pending"})
	require.NoError(t, err)
	return n
}

func TestNewFromEvent(t *testing.T) {
	evt := Event{
		Type:       EventContractCompleted,
		EntityType: "contract",
		EntityID:   42,
		Status:     "completed",
		Priority:   PriorityHigh,
		Params:     map[string]interface{}{"transaction_id": "tx-9"},
	}

	n, err := NewFromEvent(5, evt)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, n.ID)
	assert.Equal(t, int64(5), n.UserID)
	assert.Equal(t, EventContractCompleted, n.EventType)
	assert.Equal(t, int64(42), n.EntityID)
	assert.Equal(t, "completed", n.EntityStatus)
	assert.Equal(t, PriorityHigh, n.Priority)
	assert.Equal(t, StatusPending, n.Status)
	assert.Equal(t, 3, n.MaxRetries)
	require.NotNil(t, n.ExpiresAt)
	assert.True(t, n.ExpiresAt.After(n.CreatedAt))

	var params map[string]string
	require.NoError(t, json.Unmarshal(n.Payload, &params))
	assert.Equal(t, "tx-9", params["transaction_id"])
}

func TestNewFromEventDefaults(t *testing.T) {
	n := newTestNotification(t)
	assert.Equal(t, PriorityMedium, n.Priority)
	assert.Nil(t, n.Payload)
}

func TestNotification_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     Status
		to       Status
		expected bool
	}{
		{name: "PENDING -> SENT", from: StatusPending, to: StatusSent, expected: true},
		{name: "PENDING -> FAILED", from: StatusPending, to: StatusFailed, expected: true},
		{name: "PENDING -> DELIVERED (invalid)", from: StatusPending, to: StatusDelivered, expected: false},
		{name: "SENT -> DELIVERED", from: StatusSent, to: StatusDelivered, expected: true},
		{name: "SENT -> FAILED", from: StatusSent, to: StatusFailed, expected: true},
		{name: "SENT -> PENDING (invalid)", from: StatusSent, to: StatusPending, expected: false},
		{name: "DELIVERED -> FAILED (invalid)", from: StatusDelivered, to: StatusFailed, expected: false},
		{name: "FAILED -> PENDING (retry)", from: StatusFailed, to: StatusPending, expected: true},
		{name: "FAILED -> EXPIRED", from: StatusFailed, to: StatusExpired, expected: true},
		{name: "EXPIRED -> PENDING (invalid)", from: StatusExpired, to: StatusPending, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNotification(t)
			n.Status = tt.from
			assert.Equal(t, tt.expected, n.CanTransitionTo(tt.to))
		})
	}
}

func TestNotification_DeliveryFlow(t *testing.T) {
	t.Run("sent then delivered", func(t *testing.T) {
		n := newTestNotification(t)

		require.NoError(t, n.MarkSent())
		require.NotNil(t, n.SentAt)
		require.NoError(t, n.MarkDelivered())
		require.NotNil(t, n.DeliveredAt)
		assert.True(t, n.IsTerminal())
	})

	t.Run("expired before send", func(t *testing.T) {
		n := newTestNotification(t)
		past := time.Now().Add(-time.Hour)
		n.ExpiresAt = &past

		assert.ErrorIs(t, n.MarkSent(), ErrExpired)
		assert.Equal(t, StatusExpired, n.Status)
	})

	t.Run("deliver requires sent", func(t *testing.T) {
		n := newTestNotification(t)
		assert.ErrorIs(t, n.MarkDelivered(), ErrInvalidTransition)
		assert.Equal(t, StatusPending, n.Status)
	})
}

func TestNotification_RetryFlow(t *testing.T) {
	n := newTestNotification(t)

	require.NoError(t, n.MarkFailed(ErrRecipientOffline.Error()))
	assert.Equal(t, 1, n.RetryCount)
	require.NotNil(t, n.LastError)
	assert.True(t, n.CanRetry())
	assert.False(t, n.IsTerminal())

	require.NoError(t, n.ResetForRetry())
	assert.Equal(t, StatusPending, n.Status)
	assert.Nil(t, n.FailedAt)

	n.RetryCount = n.MaxRetries - 1
	require.NoError(t, n.MarkFailed("still offline"))
	assert.False(t, n.CanRetry())
	assert.True(t, n.IsTerminal())
	assert.ErrorIs(t, n.ResetForRetry(), ErrCannotRetry)
}

func TestNotification_MarkFailedExpired(t *testing.T) {
	n := newTestNotification(t)
	past := time.Now().Add(-time.Minute)
	n.ExpiresAt = &past

	assert.ErrorIs(t, n.MarkFailed("offline"), ErrExpired)
	assert.Equal(t, StatusExpired, n.Status)
}

func TestSSEClient(t *testing.T) {
	client := NewSSEClient(11)

	assert.NotEmpty(t, client.ClientID)
	assert.Equal(t, int64(11), client.UserID)
	assert.False(t, client.ConnectedAt.IsZero())

	client.Close()
	assert.Panics(t, func() {
		client.MessageChan <- &SSEMessage{}
	})
}

func TestNewSSEMessage(t *testing.T) {
	n := newTestNotification(t)

	msg, err := NewSSEMessage(n)

	require.NoError(t, err)
	assert.Equal(t, n.ID.String(), msg.ID)
	assert.Equal(t, EventRFQCreated, msg.Event)
	var decoded Notification
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, n.EntityID, decoded.EntityID)
}
