package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opdemr/orderflow/internal/config"
	v1 "github.com/opdemr/orderflow/internal/handler/v1"
	"github.com/opdemr/orderflow/internal/idgen"
	"github.com/opdemr/orderflow/internal/repository"
	"github.com/opdemr/orderflow/internal/service"
	"github.com/opdemr/orderflow/pkg/auth"
	"github.com/opdemr/orderflow/pkg/database"
	"github.com/opdemr/orderflow/pkg/logger"
	"github.com/opdemr/orderflow/pkg/metrics"
	"github.com/opdemr/orderflow/pkg/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting orderflow",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initialising tracer: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	presRepo := repository.NewPrescriptionRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	labRepo := repository.NewLabOrderRepository(db)
	pharmRepo := repository.NewPharmacyOrderRepository(db)
	sampleRepo := repository.NewSampleRepository(db)
	billRepo := repository.NewBillingRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	ids := idgen.New()
	auditSvc := service.NewAuditService(auditRepo, log)

	deps := v1.RouterDeps{
		Prescriptions: service.NewPrescriptionService(presRepo, billRepo, auditSvc, log),
		Fanout:        service.NewFanoutService(presRepo, catalogRepo, labRepo, pharmRepo, ids, auditSvc, log),
		Status:        service.NewStatusService(labRepo, pharmRepo, sampleRepo, ids, auditSvc, log),
		Billing:       service.NewBillingService(billRepo, labRepo, pharmRepo, ids, auditSvc, log),
		Views:         service.NewViewService(presRepo, labRepo, pharmRepo, billRepo, log),
		Catalog:       service.NewCatalogService(catalogRepo),
		Verifier:      auth.NewVerifier(cfg.JWT),
		Collector:     metrics.NewCollector("orderflow"),
		Logger:        log,
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	v1.RegisterRoutes(engine, deps)

	engine.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	engine.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}

	// Flush buffered audit entries before closing the database.
	auditSvc.Shutdown()

	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("tracer shutdown failed", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Warn("database close failed", zap.Error(err))
		}
	}

	log.Info("stopped")
	return nil
}
