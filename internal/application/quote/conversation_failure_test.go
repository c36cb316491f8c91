package quote_test

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
	quoteapp "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/conversation"
	conversationMocks "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/conversation/mocks"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/memory"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/metrics"
)

func TestService_ConversationLookup(t *testing.T) {
	ctx := context.Background()
	convID := int64(40)

	setup := func(t *testing.T) (*quoteapp.Service, *conversationMocks.MockRepository, *memory.Quotes, *apptest.Notifier) {
		t.Helper()
		h := apptest.New()
		conversations := conversationMocks.NewMockRepository(gomock.NewController(t))
		svc := quoteapp.NewService(h.QuoteRepo, h.RFQRepo, conversations, h.RFQ, h.Store, authz.New(),
			h.Notifier, h.Audit, metrics.New(prometheus.NewRegistry(), "test"), zerolog.Nop())
		return svc, conversations, h.QuoteRepo, h.Notifier
	}

	t.Run("lookup error aborts create", func(t *testing.T) {
		svc, conversations, quotes, notifier := setup(t)
		dbErr := errors.New("chat service unavailable")
		conversations.EXPECT().GetByID(gomock.Any(), convID).Return(nil, dbErr)

		_, err := svc.Create(ctx, seller, quoteapp.CreateInput{ConversationID: &convID, Items: items()})
		require.ErrorIs(t, err, dbErr)

		stored, err := quotes.List(ctx, quote.Filter{}, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, stored)
		assert.Empty(t, notifier.Sent())
	})

	t.Run("unknown conversation", func(t *testing.T) {
		svc, conversations, _, _ := setup(t)
		conversations.EXPECT().GetByID(gomock.Any(), convID).Return(nil, nil)

		_, err := svc.Create(ctx, seller, quoteapp.CreateInput{ConversationID: &convID, Items: items()})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("participant quotes the other side", func(t *testing.T) {
		svc, conversations, _, notifier := setup(t)
		conversations.EXPECT().GetByID(gomock.Any(), convID).
			Return(&conversation.Conversation{ID: convID, ParticipantOne: buyer.ID, ParticipantTwo: seller.ID}, nil)

		q, err := svc.Create(ctx, seller, quoteapp.CreateInput{ConversationID: &convID, Items: items()})
		require.NoError(t, err)
		assert.Equal(t, seller.ID, q.SellerID)
		assert.Equal(t, buyer.ID, q.BuyerID)
		assert.Nil(t, q.RFQID)
		assert.Equal(t, []string{notification.EventQuoteSent}, notifier.Types(buyer.ID))
	})
}
