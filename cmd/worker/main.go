package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edibridge/backend/internal/application/ingest"
	"github.com/edibridge/backend/internal/application/mappers/gtnexus"
	"github.com/edibridge/backend/internal/domain/audit"
	"github.com/edibridge/backend/internal/domain/document"
	"github.com/edibridge/backend/internal/infrastructure/config"
	"github.com/edibridge/backend/internal/infrastructure/docview"
	"github.com/edibridge/backend/internal/infrastructure/intake"
	"github.com/edibridge/backend/internal/infrastructure/lock"
	"github.com/edibridge/backend/internal/infrastructure/logger"
	"github.com/edibridge/backend/internal/infrastructure/persistence"
	"github.com/edibridge/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting document worker",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.Int("workers", cfg.Worker.Workers),
		zap.String("lock_backend", cfg.Worker.LockBackend),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Select the keyed lock backend
	locks, cleanup, err := buildLocks(cfg, db, log)
	if err != nil {
		log.Fatal("Failed to initialize keyed locks", zap.Error(err))
	}
	defer cleanup()

	// Initialize repositories
	orderRepo := persistence.NewGormOrderRepository(db)
	shipmentRepo := persistence.NewGormShipmentRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	partyRepo := persistence.NewGormPartyRepository(db)
	productRepo := persistence.NewGormProductRepository(db)

	// Audit snapshot sink; the durable audit trail lives in audit_records
	// regardless, this mirrors full snapshots to object storage
	var sink audit.Sink = audit.NopSink{}
	if cfg.Storage.Enabled && cfg.Worker.AuditSnapshots {
		store, err := storage.NewS3DocumentStore(&cfg.Storage, storage.WithStoreLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := store.EnsureBucket(context.Background()); err != nil {
			log.Fatal("Failed to ensure snapshot bucket", zap.Error(err))
		}
		sink = storage.NewSnapshotSink(store)
		log.Info("Audit snapshots enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	resolver := ingest.NewPartyResolver(partyRepo, locks, cfg.Worker.DefaultActor,
		ingest.WithResolverLogger(log),
	)
	parser := docview.XMLParser{}

	common := []ingest.PipelineOption{
		ingest.WithPartyResolver(resolver),
		ingest.WithAuditSink(sink),
		ingest.WithActor(cfg.Worker.DefaultActor),
		ingest.WithLogger(log),
	}

	orders, err := ingest.NewPipeline[*document.Order, document.OrderLine, gtnexus.OrderLineDescriptor](
		gtnexus.NewOrderMapper(), orderRepo, parser, locks,
		append(common, ingest.WithProductCatalog(productRepo))...,
	)
	if err != nil {
		log.Fatal("Failed to build order pipeline", zap.Error(err))
	}
	shipments, err := ingest.NewPipeline[*document.Shipment, document.ShipmentLine, gtnexus.ShipmentLineDescriptor](
		gtnexus.NewShipmentMapper(), shipmentRepo, parser, locks,
		append(common, ingest.WithOrderLookup(orderRepo))...,
	)
	if err != nil {
		log.Fatal("Failed to build shipment pipeline", zap.Error(err))
	}
	invoices, err := ingest.NewPipeline[*document.Invoice, document.InvoiceLine, gtnexus.InvoiceLineDescriptor](
		gtnexus.NewInvoiceMapper(), invoiceRepo, parser, locks,
		append(common, ingest.WithOrderLookup(orderRepo))...,
	)
	if err != nil {
		log.Fatal("Failed to build invoice pipeline", zap.Error(err))
	}

	router := ingest.NewRouter()
	router.Register(gtnexus.SystemCode, "order", orders)
	router.Register(gtnexus.SystemCode, "shipment", shipments)
	router.Register(gtnexus.SystemCode, "invoice", invoices)

	pool := ingest.NewPool(router,
		ingest.WithWorkers(cfg.Worker.Workers),
		ingest.WithQueueDepth(cfg.Worker.QueueDepth),
		ingest.WithMaxRetries(cfg.Worker.MaxRetries),
		ingest.WithRetryDelay(cfg.Worker.RetryDelay),
		ingest.WithPoolLogger(log),
		ingest.WithDeadLetter(func(ctx context.Context, raw ingest.RawDocument, err error) {
			log.Error("Document dead-lettered",
				zap.String("system_code", raw.SystemCode),
				zap.String("source_ref", raw.SourceRef),
				zap.Error(err),
			)
		}),
	)

	// Intake and the pool run under separate contexts: stopping intake must
	// not yank the workers mid-drain, or queued documents are lost with
	// their inbox files already archived.
	poolCtx, poolCancel := context.WithCancel(context.Background())
	defer poolCancel()
	intakeCtx, intakeCancel := context.WithCancel(context.Background())
	defer intakeCancel()

	pool.Start(poolCtx)
	log.Info("Worker pool started")

	// Periodic connection pool stats; a growing wait count means the pool
	// is undersized for the worker count.
	go func() {
		ticker := time.NewTicker(cfg.Worker.StatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-poolCtx.Done():
				return
			case <-ticker.C:
				stats, err := db.Stats()
				if err != nil {
					log.Error("Failed to read connection pool stats", zap.Error(err))
					continue
				}
				log.Info("Connection pool stats",
					zap.Int("open", stats.OpenConnections),
					zap.Int("in_use", stats.InUse),
					zap.Int("idle", stats.Idle),
					zap.Int64("wait_count", stats.WaitCount),
					zap.Duration("wait_duration", stats.WaitDuration),
				)
			}
		}
	}()

	if cfg.Worker.PollDirectory != "" {
		tenantID, err := uuid.Parse(cfg.Worker.DefaultTenant)
		if err != nil {
			log.Fatal("Invalid default tenant ID", zap.Error(err))
		}
		poller := intake.NewPoller(cfg.Worker.PollDirectory, cfg.Worker.PollInterval, tenantID, pool, log)
		go func() {
			if err := poller.Run(intakeCtx); err != nil && intakeCtx.Err() == nil {
				log.Error("Inbox poller stopped", zap.Error(err))
			}
		}()
		log.Info("Inbox poller started",
			zap.String("dir", cfg.Worker.PollDirectory),
			zap.Duration("interval", cfg.Worker.PollInterval),
		)
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down", zap.Duration("grace", cfg.Worker.ShutdownGrace))

	// Stop intake first so nothing new enters the queue, then drain the
	// pool. The workers keep their own context until the grace elapses, so
	// everything already queued finishes instead of being dropped.
	intakeCancel()

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()
	select {
	case <-done:
		log.Info("Worker pool drained")
	case <-time.After(cfg.Worker.ShutdownGrace):
		poolCancel()
		log.Warn("Shutdown grace elapsed with documents still in flight")
	}

	log.Info("Worker exited")
}

// buildLocks constructs the configured keyed lock backend. The returned
// cleanup releases any client the backend owns.
func buildLocks(cfg *config.Config, db *persistence.Database, log *zap.Logger) (lock.Keyed, func(), error) {
	nop := func() {}
	switch cfg.Worker.LockBackend {
	case "memory":
		return lock.NewMemory(cfg.Worker.LockTimeout), nop, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, nop, err
		}
		locks := lock.NewRedis(client,
			lock.WithTTL(cfg.Worker.LockTTL),
			lock.WithAcquireTimeout(cfg.Worker.LockTimeout),
		)
		return locks, func() {
			if err := client.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}, nil
	case "postgres":
		return lock.NewPostgres(db.DB, cfg.Worker.LockTimeout), nop, nil
	default:
		return nil, nop, fmt.Errorf("unknown lock backend %q", cfg.Worker.LockBackend)
	}
}
