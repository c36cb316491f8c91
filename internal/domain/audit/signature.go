package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"
)

const signingInfo = "audit-log-v1"

type signaturePayload struct {
	AuditID    string   `json:"auditId"`
	EntityType string   `json:"entityType"`
	EntityID   int64    `json:"entityId"`
	Action     string   `json:"action"`
	ActorID    int64    `json:"actorId"`
	ActorRoles []string `json:"actorRoles,omitempty"`
	FromStatus string   `json:"fromStatus,omitempty"`
	ToStatus   string   `json:"toStatus,omitempty"`
	NewValues  string   `json:"newValues,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	RiskLevel  string   `json:"riskLevel"`
	RequestID  string   `json:"requestId,omitempty"`
	CreatedAt  string   `json:"createdAt"`
}

func buildSignaturePayload(log *AuditLog) signaturePayload {
	payload := signaturePayload{
		AuditID:    log.AuditID.String(),
		EntityType: string(log.EntityType),
		EntityID:   log.EntityID,
		Action:     string(log.Action),
		ActorID:    log.ActorID,
		ActorRoles: log.ActorRoles,
		FromStatus: log.FromStatus,
		ToStatus:   log.ToStatus,
		Reason:     log.Reason,
		RiskLevel:  string(log.RiskLevel),
		RequestID:  log.RequestID,
		CreatedAt:  log.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if len(log.NewValues) > 0 {
		payload.NewValues = base64.StdEncoding.EncodeToString(log.NewValues)
	}
	return payload
}

// DeriveSigningKey expands a master secret into the HMAC key used for audit logs.
// An empty secret yields a nil key, which disables signing.
func DeriveSigningKey(secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, nil
	}
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(signingInfo)), key); err != nil {
		return nil, err
	}
	return key, nil
}

// SignAuditLog generates an HMAC signature for the audit log.
func SignAuditLog(log *AuditLog, key []byte) ([]byte, error) {
	payload := buildSignaturePayload(log)
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(data)
	return mac.Sum(nil), nil
}

// VerifyAuditLogSignature verifies the HMAC signature for the audit log.
func VerifyAuditLogSignature(log *AuditLog, key []byte) (bool, error) {
	if len(log.Signature) == 0 {
		return false, nil
	}
	expected, err := SignAuditLog(log, key)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, log.Signature), nil
}
