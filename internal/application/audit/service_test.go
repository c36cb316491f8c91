package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/audit"
	auditMocks "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/audit/mocks"
)

func TestService_LogSync(t *testing.T) {
	key, err := audit.DeriveSigningKey([]byte("secret"))
	require.NoError(t, err)

	t.Run("signs and stores", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := auditMocks.NewMockRepository(ctrl)
		service := NewService(repo, zerolog.Nop(), key)

		repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, log *audit.AuditLog) error {
				assert.Equal(t, audit.EntityTypeContract, log.EntityType)
				assert.Equal(t, audit.RiskLevelHigh, log.RiskLevel)
				assert.NotEmpty(t, log.Signature)
				ok, err := audit.VerifyAuditLogSignature(log, key)
				require.NoError(t, err)
				assert.True(t, ok)
				return nil
			})

		err := service.LogSync(context.Background(), &audit.AuditEntry{
			EntityType: audit.EntityTypeContract,
			EntityID:   4,
			Action:     audit.ActionTransition,
			ActorID:    9,
			FromStatus: "shipped",
			ToStatus:   "cancelled",
		})
		require.NoError(t, err)
	})

	t.Run("unsigned without key", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := auditMocks.NewMockRepository(ctrl)
		service := NewService(repo, zerolog.Nop(), nil)

		repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, log *audit.AuditLog) error {
				assert.Empty(t, log.Signature)
				return nil
			})

		require.NoError(t, service.LogSync(context.Background(), &audit.AuditEntry{
			EntityType: audit.EntityTypeRFQ,
			EntityID:   1,
			Action:     audit.ActionCreate,
		}))
	})

	t.Run("repository error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := auditMocks.NewMockRepository(ctrl)
		service := NewService(repo, zerolog.Nop(), nil)

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

		err := service.LogSync(context.Background(), &audit.AuditEntry{EntityType: audit.EntityTypeRFQ})
		assert.Error(t, err)
	})
}

func TestService_VerifyIntegrity(t *testing.T) {
	key, err := audit.DeriveSigningKey([]byte("secret"))
	require.NoError(t, err)

	signed, err := audit.NewAuditLog(&audit.AuditEntry{
		EntityType: audit.EntityTypeQuote,
		EntityID:   3,
		Action:     audit.ActionUpdate,
		ActorID:    2,
	})
	require.NoError(t, err)
	signed.Signature, err = audit.SignAuditLog(signed, key)
	require.NoError(t, err)

	t.Run("verified", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := auditMocks.NewMockRepository(ctrl)
		service := NewService(repo, zerolog.Nop(), key)

		repo.EXPECT().GetByID(gomock.Any(), signed.AuditID).Return(signed, nil)

		res, err := service.VerifyIntegrity(context.Background(), signed.AuditID)
		require.NoError(t, err)
		assert.True(t, res.Verified)
	})

	t.Run("tampered", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := auditMocks.NewMockRepository(ctrl)
		service := NewService(repo, zerolog.Nop(), key)

		tampered := *signed
		tampered.ToStatus = "accepted"
		repo.EXPECT().GetByID(gomock.Any(), signed.AuditID).Return(&tampered, nil)

		res, err := service.VerifyIntegrity(context.Background(), signed.AuditID)
		require.NoError(t, err)
		assert.False(t, res.Verified)
	})

	t.Run("missing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := auditMocks.NewMockRepository(ctrl)
		service := NewService(repo, zerolog.Nop(), key)

		id := uuid.New()
		repo.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

		_, err := service.VerifyIntegrity(context.Background(), id)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}
