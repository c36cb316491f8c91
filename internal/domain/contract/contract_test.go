package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		from      Status
		requested Status
		admin     bool
		want      Status
		wantErr   bool
	}{
		{"admin approve advances", StatusPendingApproval, StatusApproved, true, StatusPendingPayment, false},
		{"non-admin approve stays", StatusPendingApproval, StatusApproved, false, StatusApproved, false},
		{"cancel before approval", StatusPendingApproval, StatusCancelled, true, StatusCancelled, false},
		{"payment settles", StatusPendingPayment, StatusInProgress, true, StatusInProgress, false},
		{"ship", StatusInProgress, StatusShipped, true, StatusShipped, false},
		{"deliver", StatusShipped, StatusDelivered, true, StatusDelivered, false},
		{"complete", StatusDelivered, StatusCompleted, true, StatusCompleted, false},
		{"cannot skip ahead", StatusPendingApproval, StatusShipped, true, "", true},
		{"delivered cannot cancel", StatusDelivered, StatusCancelled, true, "", true},
		{"completed is terminal", StatusCompleted, StatusCancelled, true, "", true},
		{"cancelled is terminal", StatusCancelled, StatusPendingApproval, true, "", true},
		{"no backwards", StatusShipped, StatusInProgress, true, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Contract{Status: tt.from}
			got, err := c.Resolve(tt.requested, tt.admin)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
				assert.Equal(t, tt.from, c.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("Pending_Payment")
	require.NoError(t, err)
	assert.Equal(t, StatusPendingPayment, st)

	for _, name := range []string{"pending_payment_confirmation", "delivered_and_paid", "buyer_payment_rejected", "lost"} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStatus(name)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "CON-2026-000042", FormatNumber(2026, 42))
}

func TestTerminal(t *testing.T) {
	assert.True(t, (&Contract{Status: StatusCompleted}).IsTerminal())
	assert.True(t, (&Contract{Status: StatusCancelled}).IsTerminal())
	assert.False(t, (&Contract{Status: StatusDelivered}).IsTerminal())
}
