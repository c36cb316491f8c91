package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/contract"
)

// Contracts implements contract.Repository.
type Contracts struct{ store *Store }

func NewContracts(store *Store) *Contracts { return &Contracts{store: store} }

var _ contract.Repository = (*Contracts)(nil)

func (r *Contracts) Create(ctx context.Context, c *contract.Contract) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	for _, existing := range r.store.contracts {
		if existing.QuoteID == c.QuoteID {
			return fmt.Errorf("contract for quote %d already exists", c.QuoteID)
		}
	}
	c.ID = r.store.nextContractID
	r.store.nextContractID++
	for i := range c.Items {
		c.Items[i].ID = int64(i + 1)
		c.Items[i].ContractID = c.ID
	}
	r.store.contracts[c.ID] = copyContract(*c)
	return nil
}

func (r *Contracts) NextSequence(ctx context.Context) (int64, error) {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	r.store.contractSeq++
	return r.store.contractSeq, nil
}

func (r *Contracts) GetByID(ctx context.Context, id int64) (*contract.Contract, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	c, ok := r.store.contracts[id]
	if !ok {
		return nil, nil
	}
	cp := copyContract(c)
	return &cp, nil
}

func (r *Contracts) GetForUpdate(ctx context.Context, id int64) (*contract.Contract, error) {
	return r.GetByID(ctx, id)
}

func (r *Contracts) GetByQuoteID(ctx context.Context, quoteID int64) (*contract.Contract, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, c := range r.store.contracts {
		if c.QuoteID == quoteID {
			cp := copyContract(c)
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Contracts) List(ctx context.Context, f contract.Filter, limit, offset int) ([]*contract.Contract, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	out := make([]*contract.Contract, 0)
	for _, c := range r.store.contracts {
		if f.Status != nil && c.Status != *f.Status {
			continue
		}
		if f.QuoteID != nil && c.QuoteID != *f.QuoteID {
			continue
		}
		if f.PartyID != nil && !c.IsParty(*f.PartyID) {
			continue
		}
		cp := copyContract(c)
		out = append(out, &cp)
	}
	sortByIDDesc(out, func(c *contract.Contract) int64 { return c.ID })
	return page(out, limit, offset), nil
}

// UpdateStatus writes status, metadata and updated_at only.
func (r *Contracts) UpdateStatus(ctx context.Context, c *contract.Contract) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	existing, ok := r.store.contracts[c.ID]
	if !ok {
		return fmt.Errorf("contract %d does not exist", c.ID)
	}
	existing.Status = c.Status
	existing.Metadata = append(json.RawMessage(nil), c.Metadata...)
	existing.UpdatedAt = c.UpdatedAt
	r.store.contracts[c.ID] = existing
	return nil
}

func copyContract(c contract.Contract) contract.Contract {
	c.Items = append([]contract.Item(nil), c.Items...)
	if c.Metadata != nil {
		c.Metadata = append(json.RawMessage(nil), c.Metadata...)
	}
	return c
}
