package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/audit"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/contract"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/conversation"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq"
)

// Store keeps every aggregate in process memory. It is used for local runs
// and service tests. Stored values are copies; callers never share memory
// with the store.
type Store struct {
	mu sync.RWMutex
	state
}

type state struct {
	nextRFQID      int64
	nextQuoteID    int64
	nextItemID     int64
	nextContractID int64
	nextAuditID    int64
	contractSeq    int64

	rfqs          map[int64]rfq.RFQ
	quotes        map[int64]quote.Quote
	contracts     map[int64]contract.Contract
	conversations map[int64]conversation.Conversation
	notifications map[uuid.UUID]notification.Notification
	audits        []audit.AuditLog
}

func NewStore() *Store {
	return &Store{state: state{
		nextRFQID:      1,
		nextQuoteID:    1,
		nextItemID:     1,
		nextContractID: 1,
		nextAuditID:    1,
		rfqs:           make(map[int64]rfq.RFQ),
		quotes:         make(map[int64]quote.Quote),
		contracts:      make(map[int64]contract.Contract),
		conversations:  make(map[int64]conversation.Conversation),
		notifications:  make(map[uuid.UUID]notification.Notification),
	}}
}

// snapshot copies the maps. Values are stored by value and slices inside
// them are never mutated in place, so a shallow copy per map is enough.
func (s state) snapshot() state {
	cp := s
	cp.rfqs = make(map[int64]rfq.RFQ, len(s.rfqs))
	for k, v := range s.rfqs {
		cp.rfqs[k] = v
	}
	cp.quotes = make(map[int64]quote.Quote, len(s.quotes))
	for k, v := range s.quotes {
		cp.quotes[k] = v
	}
	cp.contracts = make(map[int64]contract.Contract, len(s.contracts))
	for k, v := range s.contracts {
		cp.contracts[k] = v
	}
	cp.conversations = make(map[int64]conversation.Conversation, len(s.conversations))
	for k, v := range s.conversations {
		cp.conversations[k] = v
	}
	cp.notifications = make(map[uuid.UUID]notification.Notification, len(s.notifications))
	for k, v := range s.notifications {
		cp.notifications[k] = v
	}
	cp.audits = append([]audit.AuditLog(nil), s.audits...)
	return cp
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	b, ok := ctx.Value(txKey{}).(bool)
	return ok && b
}

func (s *Store) rlock(ctx context.Context) {
	if !isTx(ctx) {
		s.mu.RLock()
	}
}

func (s *Store) runlock(ctx context.Context) {
	if !isTx(ctx) {
		s.mu.RUnlock()
	}
}

func (s *Store) wlock(ctx context.Context) {
	if !isTx(ctx) {
		s.mu.Lock()
	}
}

func (s *Store) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		s.mu.Unlock()
	}
}

// WithinTx runs fn holding the write lock. If fn fails every change it made
// is discarded. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.state.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.state = saved
		return err
	}
	return nil
}

// PutConversation registers a conversation. Conversations are owned by the
// messaging system; the workflow only reads them.
func (s *Store) PutConversation(c conversation.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = c
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortByIDDesc[T any](items []T, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) > id(items[j]) })
}
