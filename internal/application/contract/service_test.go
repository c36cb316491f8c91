package contract_test

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/apptest"
	contractapp "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/contract"
	quoteapp "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/actor"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/contract"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq"
)

var (
	buyer  = actor.New(1, actor.RoleBuyer)
	seller = actor.New(2, actor.RoleSeller)
	admin  = actor.New(9, actor.RoleAdmin)
	other  = actor.New(7, actor.RoleBuyer)
)

// negotiate runs the buyer/seller flow up to an accepted quote.
func negotiate(t *testing.T, h *apptest.Harness) (*rfq.RFQ, *quote.Quote) {
	t.Helper()
	ctx := context.Background()

	r, err := h.RFQ.Create(ctx, buyer, rfq.NewParams{
		SellerID:        seller.ID,
		ProductID:       10,
		Quantity:        10,
		ShippingCountry: "EG",
		ShippingAddress: "12 Nile St, Cairo",
	})
	require.NoError(t, err)
	require.Equal(t, rfq.StatusPending, r.Status)

	r, err = h.RFQ.Transition(ctx, seller, r.ID, rfq.StatusInProgress)
	require.NoError(t, err)
	require.Equal(t, rfq.StatusInProgress, r.Status)

	note := "grade A"
	q, err := h.Quote.Create(ctx, seller, quoteapp.CreateInput{
		RFQID: &r.ID,
		Items: []quoteapp.ItemInput{{ProductID: 10, Quantity: 10, UnitPrice: decimal.RequireFromString("25.00"), Note: &note}},
	})
	require.NoError(t, err)
	require.Equal(t, quote.StatusSent, q.Status)
	require.Equal(t, "250.00", q.TotalPrice.StringFixed(2))

	r, err = h.RFQ.Lookup(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, rfq.StatusQuoted, r.Status)

	accepted := quote.StatusAccepted
	q, err = h.Quote.Update(ctx, buyer, q.ID, quoteapp.UpdateInput{Status: &accepted})
	require.NoError(t, err)
	require.Equal(t, quote.StatusAccepted, q.Status)
	return r, q
}

func TestEndToEndNegotiation(t *testing.T) {
	ctx := context.Background()
	h := apptest.New()
	r, q := negotiate(t, h)

	c, err := h.Contract.CreateFromQuote(ctx, buyer, contractapp.CreateInput{QuoteID: q.ID})
	require.NoError(t, err)
	assert.Equal(t, contract.StatusPendingApproval, c.Status)
	assert.Regexp(t, regexp.MustCompile(`^CON-\d{4}-000001$`), c.Number)
	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, "250.00", c.TotalAmount.StringFixed(2))
	require.NotNil(t, c.ShippingAddress)
	assert.Equal(t, r.ShippingAddress, *c.ShippingAddress)

	want := []contract.Item{{
		ID:             1,
		ContractID:     c.ID,
		ProductID:      10,
		Quantity:       10,
		UnitPrice:      decimal.RequireFromString("25.00"),
		TotalPrice:     decimal.RequireFromString("250.00"),
		Specifications: q.Items[0].Note,
	}}
	if diff := cmp.Diff(want, c.Items, cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })); diff != "" {
		t.Errorf("contract items mismatch (-want +got):\n%s", diff)
	}

	c, err = h.Contract.Transition(ctx, admin, c.ID, contract.StatusApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, contract.StatusPendingPayment, c.Status, "approve-and-advance")
}

func TestService_CreateFromQuote(t *testing.T) {
	ctx := context.Background()

	t.Run("only once per quote", func(t *testing.T) {
		h := apptest.New()
		_, q := negotiate(t, h)
		_, err := h.Contract.CreateFromQuote(ctx, buyer, contractapp.CreateInput{QuoteID: q.ID, Currency: "eur"})
		require.NoError(t, err)
		_, err = h.Contract.CreateFromQuote(ctx, admin, contractapp.CreateInput{QuoteID: q.ID})
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})

	t.Run("seller cannot create", func(t *testing.T) {
		h := apptest.New()
		_, q := negotiate(t, h)
		_, err := h.Contract.CreateFromQuote(ctx, seller, contractapp.CreateInput{QuoteID: q.ID})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("quote must be accepted", func(t *testing.T) {
		h := apptest.New()
		r, err := h.RFQ.Create(ctx, buyer, rfq.NewParams{
			SellerID: seller.ID, ProductID: 1, Quantity: 1, ShippingCountry: "EG", ShippingAddress: "Giza",
		})
		require.NoError(t, err)
		q, err := h.Quote.Create(ctx, seller, quoteapp.CreateInput{
			RFQID: &r.ID,
			Items: []quoteapp.ItemInput{{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(5)}},
		})
		require.NoError(t, err)

		_, err = h.Contract.CreateFromQuote(ctx, buyer, contractapp.CreateInput{QuoteID: q.ID})
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})

	t.Run("missing quote", func(t *testing.T) {
		h := apptest.New()
		_, err := h.Contract.CreateFromQuote(ctx, buyer, contractapp.CreateInput{QuoteID: 77})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestService_Transition(t *testing.T) {
	ctx := context.Background()
	h := apptest.New()
	_, q := negotiate(t, h)
	c, err := h.Contract.CreateFromQuote(ctx, buyer, contractapp.CreateInput{QuoteID: q.ID})
	require.NoError(t, err)

	for _, a := range []actor.Actor{buyer, seller} {
		_, err := h.Contract.Transition(ctx, a, c.ID, contract.StatusApproved, nil)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	}

	_, err = h.Contract.Transition(ctx, admin, c.ID, contract.StatusShipped, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	stored, err := h.Contract.Get(ctx, buyer, c.ID)
	require.NoError(t, err)
	assert.Equal(t, contract.StatusPendingApproval, stored.Status)

	steps := []contract.Status{
		contract.StatusApproved,
		contract.StatusInProgress,
		contract.StatusShipped,
		contract.StatusDelivered,
	}
	for _, s := range steps {
		_, err := h.Contract.Transition(ctx, admin, c.ID, s, nil)
		require.NoError(t, err, s)
	}

	done, err := h.Contract.Transition(ctx, admin, c.ID, contract.StatusCompleted, map[string]interface{}{"transactionId": "tx-9"})
	require.NoError(t, err)
	assert.Equal(t, contract.StatusCompleted, done.Status)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(done.Metadata, &meta))
	assert.Equal(t, "tx-9", meta["transactionId"])

	assert.Equal(t, []string{
		notification.EventRFQCreated,
		notification.EventQuoteAccepted,
		notification.EventContractCreated,
		notification.EventContractStarted,
		notification.EventContractCompleted,
	}, h.Notifier.Types(seller.ID))

	for _, sent := range h.Notifier.Sent() {
		if sent.Event.Type == notification.EventContractCompleted {
			assert.Equal(t, map[string]interface{}{"transactionId": "tx-9"}, sent.Event.Params["transaction"])
		}
	}

	_, err = h.Contract.Transition(ctx, admin, c.ID, contract.StatusCancelled, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = h.Contract.Get(ctx, other, c.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
