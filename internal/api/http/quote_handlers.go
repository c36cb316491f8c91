package httpapi

import (
	"net/http"

	appQuote "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/quote"
)

func (s *Server) createQuote(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	var req appQuote.CreateInput
	if err := decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	created, err := s.quoteSvc.Create(r.Context(), a, req)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) listQuotes(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	filter := quote.Filter{IncludeDeleted: queryBool(r, "includeDeleted")}
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := quote.ParseStatus(v)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		filter.Status = &st
	}
	var err error
	if filter.RFQID, err = queryInt64(r, "rfqId"); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if filter.ConversationID, err = queryInt64(r, "conversationId"); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	limit, offset := parseLimitOffset(r, 50, 200)
	list, err := s.quoteSvc.List(r.Context(), a, filter, limit, offset)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"quotes": list})
}

func (s *Server) getQuote(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "quoteId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	found, err := s.quoteSvc.FindWithAccess(r.Context(), a, id)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, found)
}

func (s *Server) updateQuote(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "quoteId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	var req appQuote.UpdateInput
	if err := decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if req.Status != nil {
		st, err := quote.ParseStatus(string(*req.Status))
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		req.Status = &st
	}
	updated, err := s.quoteSvc.Update(r.Context(), a, id, req)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteQuote(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "quoteId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if _, err := s.quoteSvc.Delete(r.Context(), a, id); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) restoreQuote(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "quoteId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	restored, err := s.quoteSvc.Restore(r.Context(), a, id)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, restored)
}
