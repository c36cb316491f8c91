package httpapi

import (
	"net/http"

	appContract "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/contract"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/contract"
)

type contractTransitionRequest struct {
	Status   string                 `json:"status"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (s *Server) createContract(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	var req appContract.CreateInput
	if err := decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	created, err := s.contractSvc.CreateFromQuote(r.Context(), a, req)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) listContracts(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	var filter contract.Filter
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := contract.ParseStatus(v)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		filter.Status = &st
	}
	var err error
	if filter.QuoteID, err = queryInt64(r, "quoteId"); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	limit, offset := parseLimitOffset(r, 50, 200)
	list, err := s.contractSvc.List(r.Context(), a, filter, limit, offset)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"contracts": list})
}

func (s *Server) getContract(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "contractId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	found, err := s.contractSvc.Get(r.Context(), a, id)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, found)
}

func (s *Server) transitionContract(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "contractId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	var req contractTransitionRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	target, err := contract.ParseStatus(req.Status)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	updated, err := s.contractSvc.Transition(r.Context(), a, id, target, req.Metadata)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
