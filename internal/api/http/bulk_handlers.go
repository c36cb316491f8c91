package httpapi

import (
	"net/http"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/bulk"
)

// bulkAction answers 200 when at least one id succeeded and 422 when every id
// failed. The body carries the per-id result either way.
func (s *Server) bulkAction(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	var req bulk.Request
	if err := decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	entity, err := bulk.ParseEntity(string(req.Entity))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	req.Entity = entity

	result, err := s.bulk.Apply(r.Context(), a, req)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	status := http.StatusOK
	if !result.Succeeded() {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, result)
}
