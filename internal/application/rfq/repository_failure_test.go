package rfq_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/apptest"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/authz"
	rfqapp "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/rfq"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq"
	rfqMocks "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq/mocks"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/memory"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/metrics"
)

func mockedService(t *testing.T) (*rfqapp.Service, *rfqMocks.MockRepository, *apptest.Notifier, *apptest.AuditLog) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := rfqMocks.NewMockRepository(ctrl)
	notifier := &apptest.Notifier{}
	auditLog := &apptest.AuditLog{}
	svc := rfqapp.NewService(repo, memory.NewStore(), authz.New(), notifier, auditLog,
		metrics.New(prometheus.NewRegistry(), "test"), zerolog.Nop())
	return svc, repo, notifier, auditLog
}

func TestService_RepositoryFailures(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("connection reset")

	t.Run("create failure sends nothing", func(t *testing.T) {
		svc, repo, notifier, auditLog := mockedService(t)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(dbErr)

		_, err := svc.Create(ctx, buyer, params())
		require.ErrorIs(t, err, dbErr)
		assert.Empty(t, apperr.KindOf(err))
		assert.Empty(t, notifier.Sent())
		assert.Empty(t, auditLog.Entries())
	})

	t.Run("lock failure is returned unclassified", func(t *testing.T) {
		svc, repo, notifier, _ := mockedService(t)
		repo.EXPECT().GetForUpdate(gomock.Any(), int64(5)).Return(nil, dbErr)

		_, err := svc.Transition(ctx, seller, 5, rfq.StatusSeen)
		require.ErrorIs(t, err, dbErr)
		assert.Equal(t, "internal error", apperr.Reason(err))
		assert.Empty(t, notifier.Sent())
	})

	t.Run("missing row is not found", func(t *testing.T) {
		svc, repo, _, _ := mockedService(t)
		repo.EXPECT().GetForUpdate(gomock.Any(), int64(5)).Return(nil, nil)

		_, err := svc.Transition(ctx, seller, 5, rfq.StatusSeen)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("update failure records no transition", func(t *testing.T) {
		svc, repo, notifier, auditLog := mockedService(t)
		stored := &rfq.RFQ{ID: 5, BuyerID: buyer.ID, SellerID: seller.ID, Quantity: 1, Status: rfq.StatusPending}
		repo.EXPECT().GetForUpdate(gomock.Any(), int64(5)).Return(stored, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(dbErr)

		_, err := svc.Transition(ctx, seller, 5, rfq.StatusSeen)
		require.ErrorIs(t, err, dbErr)
		assert.Empty(t, notifier.Sent())
		assert.Empty(t, auditLog.Entries())
	})

	t.Run("forbidden transition never writes", func(t *testing.T) {
		svc, repo, _, _ := mockedService(t)
		stored := &rfq.RFQ{ID: 5, BuyerID: buyer.ID, SellerID: seller.ID, Quantity: 1, Status: rfq.StatusClosed}
		repo.EXPECT().GetForUpdate(gomock.Any(), int64(5)).Return(stored, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Transition(ctx, seller, 5, rfq.StatusSeen)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	})
}
