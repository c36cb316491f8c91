package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/audit"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/bulk"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/contract"
	appNotification "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/notification"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/rfq"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/actor"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/metrics"
)

// Deps are the services the HTTP layer routes to.
type Deps struct {
	RFQs          *rfq.Service
	Quotes        *quote.Service
	Contracts     *contract.Service
	Bulk          *bulk.Orchestrator
	Audit         *audit.Service
	Notifications *appNotification.Service
	Hub           notification.SSEHub
	Metrics       *metrics.Metrics
	// MetricsHandler serves /metrics. Nil leaves the route unmounted.
	MetricsHandler http.Handler
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	rfqSvc          *rfq.Service
	quoteSvc        *quote.Service
	contractSvc     *contract.Service
	bulk            *bulk.Orchestrator
	auditSvc        *audit.Service
	notificationSvc *appNotification.Service
	sseHub          notification.SSEHub
	metrics         *metrics.Metrics
	metricsHandler  http.Handler
	logger          zerolog.Logger
}

func NewServer(deps Deps, logger zerolog.Logger) *Server {
	return &Server{
		rfqSvc:          deps.RFQs,
		quoteSvc:        deps.Quotes,
		contractSvc:     deps.Contracts,
		bulk:            deps.Bulk,
		auditSvc:        deps.Audit,
		notificationSvc: deps.Notifications,
		sseHub:          deps.Hub,
		metrics:         deps.Metrics,
		metricsHandler:  deps.MetricsHandler,
		logger:          logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", s.health)
	if s.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.metricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireActor)

		// The stream is long-lived and must not inherit the request timeout.
		r.Get("/notifications/stream", s.notificationStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Route("/rfqs", func(r chi.Router) {
				r.Post("/", s.createRFQ)
				r.Get("/", s.listRFQs)
				r.Get("/{rfqId}", s.getRFQ)
				r.Post("/{rfqId}/transition", s.transitionRFQ)
				r.Delete("/{rfqId}", s.deleteRFQ)
				r.Post("/{rfqId}/restore", s.restoreRFQ)
			})

			r.Route("/quotes", func(r chi.Router) {
				r.Post("/", s.createQuote)
				r.Get("/", s.listQuotes)
				r.Get("/{quoteId}", s.getQuote)
				r.Patch("/{quoteId}", s.updateQuote)
				r.Delete("/{quoteId}", s.deleteQuote)
				r.Post("/{quoteId}/restore", s.restoreQuote)
			})

			r.Route("/contracts", func(r chi.Router) {
				r.Post("/", s.createContract)
				r.Get("/", s.listContracts)
				r.Get("/{contractId}", s.getContract)
				r.Post("/{contractId}/transition", s.transitionContract)
			})

			r.Post("/bulk", s.bulkAction)

			r.Get("/notifications", s.listNotifications)

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireRole(actor.RoleAdmin))
				r.Get("/audit/entities/{entityType}/{entityId}", s.entityHistory)
				r.Get("/audit/{auditId}/verify", s.verifyAudit)
			})
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"sseClients": s.notificationSvc.ClientCount(),
	})
}
