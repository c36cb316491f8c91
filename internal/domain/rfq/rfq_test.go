package rfq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
)

func validParams() NewParams {
	return NewParams{
		BuyerID:         1,
		SellerID:        2,
		ProductID:       10,
		Quantity:        10,
		ShippingCountry: "EG",
		ShippingAddress: "12 Nile St, Cairo",
	}
}

func TestNew(t *testing.T) {
	r, err := New(validParams())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, r.Status)
	assert.False(t, r.IsDeleted())
	assert.True(t, r.IsParty(1))
	assert.True(t, r.IsParty(2))
	assert.False(t, r.IsParty(3))
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *NewParams)
	}{
		{"buyer equals seller", func(p *NewParams) { p.SellerID = p.BuyerID }},
		{"missing product", func(p *NewParams) { p.ProductID = 0 }},
		{"zero quantity", func(p *NewParams) { p.Quantity = 0 }},
		{"quantity beyond int4", func(p *NewParams) { p.Quantity = MaxQuantity + 1 }},
		{"missing seller", func(p *NewParams) { p.SellerID = 0 }},
		{"blank address", func(p *NewParams) { p.ShippingAddress = "  " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			_, err := New(p)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestCanTransitionTo(t *testing.T) {
	all := []Status{StatusPending, StatusSeen, StatusInProgress, StatusQuoted, StatusRejected, StatusClosed}
	allowed := map[Status]map[Status]bool{
		StatusPending:    {StatusSeen: true, StatusInProgress: true, StatusQuoted: true, StatusRejected: true, StatusClosed: true},
		StatusSeen:       {StatusInProgress: true, StatusQuoted: true, StatusRejected: true, StatusClosed: true},
		StatusInProgress: {StatusQuoted: true, StatusRejected: true, StatusClosed: true},
		StatusQuoted:     {StatusClosed: true},
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				r := &RFQ{Status: from}
				assert.Equal(t, allowed[from][to], r.CanTransitionTo(to))
			})
		}
	}
}

func TestTransitionToLeavesStatusOnFailure(t *testing.T) {
	r := &RFQ{Status: StatusClosed}
	err := r.TransitionTo(StatusSeen)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, StatusClosed, r.Status)
	assert.True(t, r.IsTerminal())

	r = &RFQ{Status: StatusSeen}
	require.NoError(t, r.TransitionTo(StatusInProgress))
	assert.Equal(t, StatusInProgress, r.Status)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" In_Progress ")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, st)

	_, err = ParseStatus("archived")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSoftDeleteRestore(t *testing.T) {
	r, err := New(validParams())
	require.NoError(t, err)
	r.SoftDelete()
	assert.True(t, r.IsDeleted())
	r.Restore()
	assert.False(t, r.IsDeleted())
}
