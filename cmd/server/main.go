package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpapi "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/api/http"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/audit"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/authz"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/bulk"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/contract"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/notification"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/application/rfq"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/config"
	domainAudit "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/audit"
	domainContract "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/contract"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/conversation"
	domainNotification "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/notification"
	domainQuote "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/quote"
	domainRFQ "github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/txn"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/memory"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/metrics"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/postgres"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/infrastructure/sse"
)

// storage is the persistence selected by STORAGE_DRIVER.
type storage struct {
	tx            txn.Manager
	rfqs          domainRFQ.Repository
	quotes        domainQuote.Repository
	contracts     domainContract.Repository
	conversations conversation.Repository
	notifications domainNotification.Repository
	audits        domainAudit.Repository
	close         func()
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("invalid LOG_LEVEL")
	}
	logger = logger.Level(level)

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("storage error")
	}
	defer store.close()

	// infrastructure
	m := metrics.New(prometheus.DefaultRegisterer, cfg.MetricsPrefix)
	sseHub := sse.NewHub()
	auditKey, err := domainAudit.DeriveSigningKey([]byte(cfg.AuditSigningSecret))
	if err != nil {
		logger.Fatal().Err(err).Msg("audit key error")
	}
	if auditKey == nil {
		logger.Warn().Msg("AUDIT_SIGNING_SECRET is empty, audit logs will not be signed")
	}

	// services
	auditSvc := audit.NewService(store.audits, logger, auditKey)
	notificationSvc := notification.NewService(store.notifications, sseHub, m, cfg.NotificationQueueSize, logger)
	notificationSvc.Start(cfg.NotificationWorkers)

	az := authz.New()
	rfqSvc := rfq.NewService(store.rfqs, store.tx, az, notificationSvc, auditSvc, m, logger)
	quoteSvc := quote.NewService(store.quotes, store.rfqs, store.conversations, rfqSvc, store.tx, az, notificationSvc, auditSvc, m, logger)
	contractSvc := contract.NewService(store.contracts, store.quotes, store.rfqs, store.tx, az, notificationSvc, auditSvc, m, cfg.DefaultCurrency, logger)
	orchestrator := bulk.NewOrchestrator(rfqSvc, quoteSvc, contractSvc, az, m, logger)

	// API server
	apiServer := httpapi.NewServer(httpapi.Deps{
		RFQs:           rfqSvc,
		Quotes:         quoteSvc,
		Contracts:      contractSvc,
		Bulk:           orchestrator,
		Audit:          auditSvc,
		Notifications:  notificationSvc,
		Hub:            sseHub,
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),
	}, logger)

	// No WriteTimeout: notification streams stay open.
	httpServer := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// background loops
	loopCtx, stopLoops := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(cfg.NotificationRetryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if n, err := notificationSvc.ProcessRetryable(loopCtx, 50); err != nil {
					logger.Error().Err(err).Msg("notification retry failed")
				} else if n > 0 {
					logger.Info().Int("count", n).Msg("notifications retried")
				}
				if _, err := notificationSvc.ExpireStale(loopCtx); err != nil {
					logger.Error().Err(err).Msg("notification expiry failed")
				}
			}
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("storage", cfg.StorageDriver).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	// Closing the hub ends open streams so Shutdown does not wait on them.
	sseHub.Stop()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	stopLoops()
	notificationSvc.Stop()
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		s := memory.NewStore()
		return &storage{
			tx:            s,
			rfqs:          memory.NewRFQs(s),
			quotes:        memory.NewQuotes(s),
			contracts:     memory.NewContracts(s),
			conversations: memory.NewConversations(s),
			notifications: memory.NewNotifications(s),
			audits:        memory.NewAuditLogs(s),
			close:         func() {},
		}, nil
	}

	if cfg.MigrationsEnabled {
		if err := postgres.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			return nil, err
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{})
	if err != nil {
		return nil, err
	}
	return &storage{
		tx:            postgres.NewTxManager(pool, logger),
		rfqs:          postgres.NewRFQRepository(pool),
		quotes:        postgres.NewQuoteRepository(pool),
		contracts:     postgres.NewContractRepository(pool),
		conversations: postgres.NewConversationRepository(pool),
		notifications: postgres.NewNotificationRepository(pool),
		audits:        postgres.NewAuditRepository(pool),
		close:         pool.Close,
	}, nil
}
