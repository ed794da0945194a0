package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpclib "google.golang.org/grpc"

	"github.com/simaogato/pricewatch-backend/internal/adapter/catalog"
	grpcadapter "github.com/simaogato/pricewatch-backend/internal/adapter/grpc"
	"github.com/simaogato/pricewatch-backend/internal/adapter/repository/sqlstore"
	"github.com/simaogato/pricewatch-backend/internal/config"
	"github.com/simaogato/pricewatch-backend/internal/domain"
	"github.com/simaogato/pricewatch-backend/internal/obs"
	"github.com/simaogato/pricewatch-backend/internal/usecase/cycle"
	"github.com/simaogato/pricewatch-backend/internal/usecase/scheduler"
	"github.com/simaogato/pricewatch-backend/internal/usecase/seeder"
	"github.com/simaogato/pricewatch-backend/internal/usecase/tracking"
)

const (
	serviceName     = "pricewatch"
	connectAttempts = 5
)

func main() {
	// 1. Configuration and observability
	cfg, err := config.Load()
	if err != nil {
		obs.Logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	obs.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	shutdownTracing, err := obs.SetupTracing(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		fatal("failed to set up tracing", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	// 2. Setup Database
	db, err := connect(ctx, cfg)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		fatal("failed to migrate database", err)
	}

	// 3. Initialize Repositories
	userRepo := sqlstore.NewUserRepository(db)
	trackedItemRepo := sqlstore.NewTrackedItemRepository(db)
	ruleRepo := sqlstore.NewRuleRepository(db)
	snapshotRepo := sqlstore.NewSnapshotRepository(db)
	alertRepo := sqlstore.NewAlertRepository(db)

	// 4. Initialize Services (Use Cases)
	trackingService := tracking.NewTrackingService(userRepo, trackedItemRepo, ruleRepo, alertRepo)
	cycleService := cycle.NewCycleService(trackedItemRepo, ruleRepo, snapshotRepo, alertRepo, newCatalog(cfg), cycle.Options{
		Workers:        cfg.CycleWorkers,
		StoreTimeout:   cfg.StoreTimeout,
		CatalogTimeout: cfg.CatalogTimeout,
	})

	if cfg.SeedFile != "" {
		seed, err := seeder.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			fatal("failed to load seed file", err)
		}
		summary, err := seeder.NewSeeder(userRepo, trackedItemRepo, ruleRepo).Seed(ctx, seed)
		if err != nil {
			fatal("failed to apply seed file", err)
		}
		obs.Logger.Info("seed_applied", "file", cfg.SeedFile, "users", summary.Users, "items", summary.Items, "rules", summary.Rules)
	}

	if cfg.ScheduleInterval > 0 {
		sched := scheduler.NewScheduler(userRepo, cycleService, cfg.ScheduleInterval)
		go func() {
			if err := sched.Run(ctx); err != nil {
				obs.Logger.Error("scheduler stopped", "error", err)
			}
		}()
	}

	// 5. Start gRPC Server
	grpcServer := grpcadapter.NewGRPCServer(cfg.APIToken, grpcadapter.NewServer(trackingService, cycleService))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		fatal("failed to listen", err)
	}

	go func() {
		obs.Logger.Info("grpc server listening", "addr", cfg.GRPCAddr, "catalog_mode", cfg.CatalogMode, "db_driver", cfg.DBDriver)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpclib.ErrServerStopped) {
			fatal("failed to serve gRPC server", err)
		}
	}()

	// Graceful shutdown
	waitForShutdown(ctx, grpcServer)
}

// connect opens the store, retrying while the database container starts
func connect(ctx context.Context, cfg *config.Config) (*sqlstore.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := sqlstore.NewDB(cfg.DBDriver, cfg.DSN())
		if err == nil {
			return db, nil
		}
		lastErr = err
		obs.Logger.Warn("database not ready", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return nil, lastErr
}

func newCatalog(cfg *config.Config) domain.CatalogLookup {
	if cfg.CatalogMode == config.CatalogModeHTTP {
		return catalog.NewHTTPCatalog(cfg.CatalogURL, cfg.CatalogTimeout, nil)
	}
	return catalog.NewMockCatalog()
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(ctx context.Context, grpcServer *grpclib.Server) {
	<-ctx.Done()
	obs.Logger.Info("received shutdown signal, shutting down gracefully")

	grpcServer.GracefulStop()
	obs.Logger.Info("gRPC server stopped")
}

func fatal(msg string, err error) {
	obs.Logger.Error(msg, "error", err)
	os.Exit(1)
}
