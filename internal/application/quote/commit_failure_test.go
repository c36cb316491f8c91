package quote_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/apptest"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/authz"
	quoteapp "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/audit"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/txn"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/memory"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/metrics"
)

var errCommit = errors.New("commit failed")

// commitFails runs fn to completion and then fails the commit.
type commitFails struct{ inner txn.Manager }

func (c commitFails) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.inner.WithinTx(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return errCommit
	})
}

func rfqTransitions(h *apptest.Harness, id int64) []audit.AuditEntry {
	var out []audit.AuditEntry
	for _, e := range h.Audit.Entries() {
		if e.EntityType == audit.EntityTypeRFQ && e.EntityID == id && e.Action == audit.ActionTransition {
			out = append(out, e)
		}
	}
	return out
}

func TestService_FailedCommitRecordsNoRFQChange(t *testing.T) {
	ctx := context.Background()
	h := apptest.New()
	r := openRFQ(t, h)

	svc := quoteapp.NewService(h.QuoteRepo, h.RFQRepo, memory.NewConversations(h.Store), h.RFQ,
		commitFails{inner: h.Store}, authz.New(), h.Notifier, h.Audit,
		metrics.New(prometheus.NewRegistry(), "test"), zerolog.Nop())

	_, err := svc.Create(ctx, seller, quoteapp.CreateInput{RFQID: &r.ID, Items: items()})
	require.ErrorIs(t, err, errCommit)

	stored, err := h.RFQ.Lookup(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, rfq.StatusPending, stored.Status)
	assert.Empty(t, rfqTransitions(h, r.ID))

	t.Run("committed quote records the rfq change once", func(t *testing.T) {
		_, err := h.Quote.Create(ctx, seller, quoteapp.CreateInput{RFQID: &r.ID, Items: items()})
		require.NoError(t, err)

		got := rfqTransitions(h, r.ID)
		require.Len(t, got, 1)
		assert.Equal(t, string(rfq.StatusPending), got[0].FromStatus)
		assert.Equal(t, string(rfq.StatusQuoted), got[0].ToStatus)
	})
}
