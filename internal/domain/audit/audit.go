package audit

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntityType represents the type of entity being audited
type EntityType string

const (
	EntityTypeRFQ      EntityType = "RFQ"
	EntityTypeQuote    EntityType = "QUOTE"
	EntityTypeContract EntityType = "CONTRACT"
)

// Action represents the type of action being audited
type Action string

const (
	ActionCreate     Action = "CREATE"
	ActionUpdate     Action = "UPDATE"
	ActionTransition Action = "TRANSITION"
	ActionDelete     Action = "DELETE"
	ActionRestore    Action = "RESTORE"
)

// RiskLevel represents the risk classification of an operation
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

// AuditLog represents a stored audit record
type AuditLog struct {
	ID         int64           `json:"id"`
	AuditID    uuid.UUID       `json:"auditId"`
	EntityType EntityType      `json:"entityType"`
	EntityID   int64           `json:"entityId"`
	Action     Action          `json:"action"`
	ActorID    int64           `json:"actorId"`
	ActorRoles []string        `json:"actorRoles,omitempty"`
	FromStatus string          `json:"fromStatus,omitempty"`
	ToStatus   string          `json:"toStatus,omitempty"`
	NewValues  json.RawMessage `json:"newValues,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	RiskLevel  RiskLevel       `json:"riskLevel"`
	Signature  []byte          `json:"signature,omitempty"`
	RequestID  string          `json:"requestId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// AuditEntry is the input for creating audit logs
type AuditEntry struct {
	EntityType EntityType
	EntityID   int64
	Action     Action
	ActorID    int64
	ActorRoles []string
	FromStatus string
	ToStatus   string
	NewValues  interface{}
	Reason     string
	RequestID  string
}

// Logger records audit entries without failing the caller.
type Logger interface {
	Log(ctx context.Context, entry *AuditEntry)
}

// Repository defines the interface for audit log persistence
type Repository interface {
	Create(ctx context.Context, entry *AuditLog) error
	GetByID(ctx context.Context, auditID uuid.UUID) (*AuditLog, error)
	// ListByEntity returns the history of one entity, newest first.
	ListByEntity(ctx context.Context, entityType EntityType, entityID int64) ([]*AuditLog, error)
}

// DetermineRiskLevel classifies an operation.
func DetermineRiskLevel(entityType EntityType, action Action, toStatus string) RiskLevel {
	switch {
	case action == ActionDelete:
		return RiskLevelHigh
	case entityType == EntityTypeContract && toStatus == "cancelled":
		return RiskLevelHigh
	case action == ActionRestore:
		return RiskLevelMedium
	case entityType == EntityTypeContract && action == ActionTransition:
		return RiskLevelMedium
	}
	return RiskLevelLow
}

// NewAuditLog creates a new AuditLog from an AuditEntry
func NewAuditLog(entry *AuditEntry) (*AuditLog, error) {
	log := &AuditLog{
		AuditID:    uuid.New(),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		ActorID:    entry.ActorID,
		ActorRoles: entry.ActorRoles,
		FromStatus: entry.FromStatus,
		ToStatus:   entry.ToStatus,
		Reason:     entry.Reason,
		RequestID:  entry.RequestID,
		RiskLevel:  DetermineRiskLevel(entry.EntityType, entry.Action, entry.ToStatus),
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	if entry.NewValues != nil {
		data, err := json.Marshal(entry.NewValues)
		if err != nil {
			return nil, err
		}
		log.NewValues = data
	}
	return log, nil
}
