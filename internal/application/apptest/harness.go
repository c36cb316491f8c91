// Package apptest wires the workflow services over the in-memory store for tests.
package apptest

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/authz"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/bulk"
	contractapp "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/contract"
	quoteapp "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/quote"
	rfqapp "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/rfq"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/audit"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/memory"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/metrics"
)

// Sent is one call to Notifier.Notify.
type Sent struct {
	UserID int64
	Event  notification.Event
}

// Notifier records events instead of delivering them.
type Notifier struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

func (n *Notifier) Notify(_ context.Context, userID int64, evt notification.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Sent{UserID: userID, Event: evt})
	return n.Err
}

// Sent returns the recorded events.
func (n *Notifier) Sent() []Sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Sent(nil), n.sent...)
}

// Types returns the event types sent to userID, in order.
func (n *Notifier) Types(userID int64) []string {
	var out []string
	for _, s := range n.Sent() {
		if s.UserID == userID {
			out = append(out, s.Event.Type)
		}
	}
	return out
}

// AuditLog records entries synchronously.
type AuditLog struct {
	mu      sync.Mutex
	entries []audit.AuditEntry
}

func (l *AuditLog) Log(_ context.Context, entry *audit.AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *entry)
}

func (l *AuditLog) Entries() []audit.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]audit.AuditEntry(nil), l.entries...)
}

// Harness holds the services and the store behind them.
type Harness struct {
	Store     *memory.Store
	RFQRepo   *memory.RFQs
	QuoteRepo *memory.Quotes
	Contracts *memory.Contracts

	RFQ      *rfqapp.Service
	Quote    *quoteapp.Service
	Contract *contractapp.Service
	Bulk     *bulk.Orchestrator

	Notifier *Notifier
	Audit    *AuditLog
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// New builds a harness with an empty store.
func New() *Harness {
	h := &Harness{
		Store:    memory.NewStore(),
		Notifier: &Notifier{},
		Audit:    &AuditLog{},
		Registry: prometheus.NewRegistry(),
	}
	h.RFQRepo = memory.NewRFQs(h.Store)
	h.QuoteRepo = memory.NewQuotes(h.Store)
	h.Contracts = memory.NewContracts(h.Store)
	h.Metrics = metrics.New(h.Registry, "test")

	logger := zerolog.Nop()
	az := authz.New()
	conversations := memory.NewConversations(h.Store)

	h.RFQ = rfqapp.NewService(h.RFQRepo, h.Store, az, h.Notifier, h.Audit, h.Metrics, logger)
	h.Quote = quoteapp.NewService(h.QuoteRepo, h.RFQRepo, conversations, h.RFQ, h.Store, az, h.Notifier, h.Audit, h.Metrics, logger)
	h.Contract = contractapp.NewService(h.Contracts, h.QuoteRepo, h.RFQRepo, h.Store, az, h.Notifier, h.Audit, h.Metrics, "USD", logger)
	h.Bulk = bulk.NewOrchestrator(h.RFQ, h.Quote, h.Contract, az, h.Metrics, logger)
	return h
}
