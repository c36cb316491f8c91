package memory

import (
	"context"
	"fmt"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq"
)

// RFQs implements rfq.Repository.
type RFQs struct{ store *Store }

func NewRFQs(store *Store) *RFQs { return &RFQs{store: store} }

var _ rfq.Repository = (*RFQs)(nil)

func (r *RFQs) Create(ctx context.Context, v *rfq.RFQ) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	v.ID = r.store.nextRFQID
	r.store.nextRFQID++
	r.store.rfqs[v.ID] = *v
	return nil
}

func (r *RFQs) GetByID(ctx context.Context, id int64) (*rfq.RFQ, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	v, ok := r.store.rfqs[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// GetForUpdate relies on the transaction's write lock.
func (r *RFQs) GetForUpdate(ctx context.Context, id int64) (*rfq.RFQ, error) {
	return r.GetByID(ctx, id)
}

func (r *RFQs) List(ctx context.Context, f rfq.Filter, limit, offset int) ([]*rfq.RFQ, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	out := make([]*rfq.RFQ, 0)
	for _, v := range r.store.rfqs {
		if !f.IncludeDeleted && v.DeletedAt != nil {
			continue
		}
		if f.Status != nil && v.Status != *f.Status {
			continue
		}
		if f.BuyerID != nil && v.BuyerID != *f.BuyerID {
			continue
		}
		if f.SellerID != nil && v.SellerID != *f.SellerID {
			continue
		}
		if f.PartyID != nil && !v.IsParty(*f.PartyID) {
			continue
		}
		cp := v
		out = append(out, &cp)
	}
	sortByIDDesc(out, func(v *rfq.RFQ) int64 { return v.ID })
	return page(out, limit, offset), nil
}

func (r *RFQs) Update(ctx context.Context, v *rfq.RFQ) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.rfqs[v.ID]; !ok {
		return fmt.Errorf("rfq %d does not exist", v.ID)
	}
	r.store.rfqs[v.ID] = *v
	return nil
}
