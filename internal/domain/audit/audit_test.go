package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineRiskLevel(t *testing.T) {
	tests := []struct {
		name     string
		entity   EntityType
		action   Action
		toStatus string
		want     RiskLevel
	}{
		{"rfq create", EntityTypeRFQ, ActionCreate, "pending", RiskLevelLow},
		{"quote delete", EntityTypeQuote, ActionDelete, "", RiskLevelHigh},
		{"rfq restore", EntityTypeRFQ, ActionRestore, "", RiskLevelMedium},
		{"contract shipped", EntityTypeContract, ActionTransition, "shipped", RiskLevelMedium},
		{"contract cancelled", EntityTypeContract, ActionTransition, "cancelled", RiskLevelHigh},
		{"quote accepted", EntityTypeQuote, ActionTransition, "accepted", RiskLevelLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineRiskLevel(tt.entity, tt.action, tt.toStatus))
		})
	}
}

func TestNewAuditLog(t *testing.T) {
	entry := &AuditEntry{
		EntityType: EntityTypeQuote,
		EntityID:   12,
		Action:     ActionTransition,
		ActorID:    3,
		ActorRoles: []string{"buyer"},
		FromStatus: "sent",
		ToStatus:   "accepted",
		NewValues:  map[string]string{"status": "accepted"},
	}

	log, err := NewAuditLog(entry)

	require.NoError(t, err)
	assert.Equal(t, int64(12), log.EntityID)
	assert.Equal(t, RiskLevelLow, log.RiskLevel)
	assert.JSONEq(t, `{"status":"accepted"}`, string(log.NewValues))
	assert.False(t, log.CreatedAt.IsZero())
}

func TestSignAndVerify(t *testing.T) {
	key, err := DeriveSigningKey([]byte("master-secret"))
	require.NoError(t, err)
	require.Len(t, key, 32)

	log, err := NewAuditLog(&AuditEntry{EntityType: EntityTypeRFQ, EntityID: 1, Action: ActionCreate, ActorID: 2})
	require.NoError(t, err)

	sig, err := SignAuditLog(log, key)
	require.NoError(t, err)
	log.Signature = sig

	ok, err := VerifyAuditLogSignature(log, key)
	require.NoError(t, err)
	assert.True(t, ok)

	log.ToStatus = "closed"
	ok, err = VerifyAuditLogSignature(log, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeriveSigningKey(t *testing.T) {
	key, err := DeriveSigningKey(nil)
	require.NoError(t, err)
	assert.Nil(t, key)

	a, _ := DeriveSigningKey([]byte("one"))
	b, _ := DeriveSigningKey([]byte("two"))
	assert.NotEqual(t, a, b)
}

func TestVerifyUnsigned(t *testing.T) {
	ok, err := VerifyAuditLogSignature(&AuditLog{}, []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}
