package memory

import (
	"context"
	"fmt"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/quote"
)

// Quotes implements quote.Repository. Items are stored inside their quote.
type Quotes struct{ store *Store }

func NewQuotes(store *Store) *Quotes { return &Quotes{store: store} }

var _ quote.Repository = (*Quotes)(nil)

func (r *Quotes) Create(ctx context.Context, q *quote.Quote) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	q.ID = r.store.nextQuoteID
	r.store.nextQuoteID++
	q.Items = r.assignItemIDs(q.ID, q.Items)
	r.store.quotes[q.ID] = copyQuote(*q)
	return nil
}

func (r *Quotes) GetByID(ctx context.Context, id int64) (*quote.Quote, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	q, ok := r.store.quotes[id]
	if !ok {
		return nil, nil
	}
	cp := copyQuote(q)
	return &cp, nil
}

func (r *Quotes) GetForUpdate(ctx context.Context, id int64) (*quote.Quote, error) {
	return r.GetByID(ctx, id)
}

func (r *Quotes) List(ctx context.Context, f quote.Filter, limit, offset int) ([]*quote.Quote, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	out := make([]*quote.Quote, 0)
	for _, q := range r.store.quotes {
		if !f.IncludeDeleted && q.DeletedAt != nil {
			continue
		}
		if f.Status != nil && q.Status != *f.Status {
			continue
		}
		if f.RFQID != nil && (q.RFQID == nil || *q.RFQID != *f.RFQID) {
			continue
		}
		if f.ConversationID != nil && (q.ConversationID == nil || *q.ConversationID != *f.ConversationID) {
			continue
		}
		if f.PartyID != nil && q.BuyerID != *f.PartyID && q.SellerID != *f.PartyID {
			continue
		}
		cp := copyQuote(q)
		out = append(out, &cp)
	}
	sortByIDDesc(out, func(q *quote.Quote) int64 { return q.ID })
	return page(out, limit, offset), nil
}

// Update writes the quote's own fields and keeps the stored items.
func (r *Quotes) Update(ctx context.Context, q *quote.Quote) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	existing, ok := r.store.quotes[q.ID]
	if !ok {
		return fmt.Errorf("quote %d does not exist", q.ID)
	}
	next := copyQuote(*q)
	next.Items = existing.Items
	r.store.quotes[q.ID] = next
	return nil
}

func (r *Quotes) ReplaceItems(ctx context.Context, quoteID int64, items []quote.Item) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	q, ok := r.store.quotes[quoteID]
	if !ok {
		return fmt.Errorf("quote %d does not exist", quoteID)
	}
	stored := r.assignItemIDs(quoteID, items)
	copy(items, stored)
	q.Items = stored
	r.store.quotes[quoteID] = q
	return nil
}

func (r *Quotes) assignItemIDs(quoteID int64, items []quote.Item) []quote.Item {
	out := make([]quote.Item, len(items))
	for i, it := range items {
		it.ID = r.store.nextItemID
		it.QuoteID = quoteID
		r.store.nextItemID++
		out[i] = it
	}
	return out
}

func copyQuote(q quote.Quote) quote.Quote {
	q.Items = append([]quote.Item(nil), q.Items...)
	return q
}
