package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/apperr"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/audit"
)

func parseAuditEntity(s string) (audit.EntityType, error) {
	switch t := audit.EntityType(strings.ToUpper(s)); t {
	case audit.EntityTypeRFQ, audit.EntityTypeQuote, audit.EntityTypeContract:
		return t, nil
	}
	return "", apperr.Validation("audit", "unknown entity type %q", s)
}

func (s *Server) entityHistory(w http.ResponseWriter, r *http.Request) {
	entityType, err := parseAuditEntity(chi.URLParam(r, "entityType"))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	id, err := parseIDParam(r, "entityId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	logs, err := s.auditSvc.EntityHistory(r.Context(), entityType, id)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

func (s *Server) verifyAudit(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "auditId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	res, err := s.auditSvc.VerifyIntegrity(r.Context(), id)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
