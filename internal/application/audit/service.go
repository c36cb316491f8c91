package audit

import (
	"context"
	"fmt"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/audit"
)

// Service handles audit log operations
type Service struct {
	repo    audit.Repository
	logger  zerolog.Logger
	signKey []byte
}

// NewService creates a new audit service. A nil signKey stores unsigned records.
func NewService(repo audit.Repository, logger zerolog.Logger, signKey []byte) *Service {
	return &Service{
		repo:    repo,
		signKey: signKey,
		logger:  logger.With().Str("service", "audit").Logger(),
	}
}

// Log creates a new audit log entry asynchronously. The request id is taken
// from ctx before the caller's request ends.
func (s *Service) Log(ctx context.Context, entry *audit.AuditEntry) {
	if entry.RequestID == "" {
		entry.RequestID = middleware.GetReqID(ctx)
	}
	go func() {
		if err := s.LogSync(context.Background(), entry); err != nil {
			s.logger.Error().Err(err).
				Str("entityType", string(entry.EntityType)).
				Int64("entityId", entry.EntityID).
				Str("action", string(entry.Action)).
				Msg("failed to create audit log")
		}
	}()
}

// LogSync creates a new audit log entry synchronously
func (s *Service) LogSync(ctx context.Context, entry *audit.AuditEntry) error {
	auditLog, err := audit.NewAuditLog(entry)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	if len(s.signKey) > 0 {
		sig, err := audit.SignAuditLog(auditLog, s.signKey)
		if err != nil {
			return fmt.Errorf("failed to sign audit log: %w", err)
		}
		auditLog.Signature = sig
	}

	if err := s.repo.Create(ctx, auditLog); err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}

	s.logger.Debug().
		Str("auditId", auditLog.AuditID.String()).
		Str("entityType", string(auditLog.EntityType)).
		Int64("entityId", auditLog.EntityID).
		Str("action", string(auditLog.Action)).
		Int64("actor", auditLog.ActorID).
		Str("riskLevel", string(auditLog.RiskLevel)).
		Msg("audit log created")

	if auditLog.RiskLevel == audit.RiskLevelHigh {
		s.logger.Warn().
			Str("auditId", auditLog.AuditID.String()).
			Str("entityType", string(auditLog.EntityType)).
			Int64("entityId", auditLog.EntityID).
			Str("action", string(auditLog.Action)).
			Int64("actor", auditLog.ActorID).
			Msg("high-risk operation recorded")
	}

	return nil
}

// EntityHistory returns the audit trail of one entity, newest first.
func (s *Service) EntityHistory(ctx context.Context, entityType audit.EntityType, entityID int64) ([]*audit.AuditLog, error) {
	logs, err := s.repo.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("entityType", string(entityType)).
			Int64("entityId", entityID).
			Msg("failed to get entity history")
		return nil, fmt.Errorf("failed to get entity history: %w", err)
	}
	return logs, nil
}

// VerifyResult reports the outcome of a signature check.
type VerifyResult struct {
	AuditID  uuid.UUID `json:"auditId"`
	Verified bool      `json:"verified"`
	Message  string    `json:"message"`
}

// VerifyIntegrity recomputes the signature of a stored audit record.
func (s *Service) VerifyIntegrity(ctx context.Context, auditID uuid.UUID) (*VerifyResult, error) {
	log, err := s.repo.GetByID(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log: %w", err)
	}
	if log == nil {
		return nil, apperr.Wrap(apperr.KindNotFound, "audit", fmt.Errorf("audit log %s not found", auditID))
	}

	result := &VerifyResult{AuditID: auditID}
	if len(s.signKey) == 0 {
		result.Message = "Audit signing is disabled"
		return result, nil
	}

	verified, err := audit.VerifyAuditLogSignature(log, s.signKey)
	if err != nil {
		return nil, fmt.Errorf("failed to verify signature: %w", err)
	}
	result.Verified = verified
	if verified {
		result.Message = "Audit log integrity verified"
	} else {
		result.Message = "Audit log signature mismatch"
		s.logger.Warn().
			Str("auditId", auditID.String()).
			Msg("audit log signature verification failed")
	}
	return result, nil
}
