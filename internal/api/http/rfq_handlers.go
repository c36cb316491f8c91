package httpapi

import (
	"net/http"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq"
)

type rfqCreateRequest struct {
	SellerID        int64   `json:"sellerId"`
	ProductID       int64   `json:"productId"`
	Quantity        int     `json:"quantity"`
	ShippingCountry string  `json:"shippingCountry"`
	ShippingAddress string  `json:"shippingAddress"`
	Message         *string `json:"message,omitempty"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) createRFQ(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	var req rfqCreateRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	created, err := s.rfqSvc.Create(r.Context(), a, rfq.NewParams{
		SellerID:        req.SellerID,
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		ShippingCountry: req.ShippingCountry,
		ShippingAddress: req.ShippingAddress,
		Message:         req.Message,
	})
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) listRFQs(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	filter := rfq.Filter{IncludeDeleted: queryBool(r, "includeDeleted")}
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := rfq.ParseStatus(v)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		filter.Status = &st
	}
	var err error
	if filter.BuyerID, err = queryInt64(r, "buyerId"); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if filter.SellerID, err = queryInt64(r, "sellerId"); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	limit, offset := parseLimitOffset(r, 50, 200)
	list, err := s.rfqSvc.List(r.Context(), a, filter, limit, offset)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"rfqs": list})
}

func (s *Server) getRFQ(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "rfqId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	found, err := s.rfqSvc.Get(r.Context(), a, id)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, found)
}

func (s *Server) transitionRFQ(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "rfqId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	target, err := rfq.ParseStatus(req.Status)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	updated, err := s.rfqSvc.Transition(r.Context(), a, id, target)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteRFQ(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "rfqId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if _, err := s.rfqSvc.Delete(r.Context(), a, id); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) restoreRFQ(w http.ResponseWriter, r *http.Request) {
	a, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "rfqId")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	restored, err := s.rfqSvc.Restore(r.Context(), a, id)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, restored)
}
