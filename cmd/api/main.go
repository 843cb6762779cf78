package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/crashlens/internal/adapters/csvsource"
	"github.com/samirrijal/crashlens/internal/adapters/echarts"
	"github.com/samirrijal/crashlens/internal/adapters/http"
	natsadapter "github.com/samirrijal/crashlens/internal/adapters/nats"
	"github.com/samirrijal/crashlens/internal/adapters/postgres"
	"github.com/samirrijal/crashlens/internal/adapters/valkey"
	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/core/geo"
	"github.com/samirrijal/crashlens/internal/core/ports"
	"github.com/samirrijal/crashlens/internal/core/usecases"
	"github.com/samirrijal/crashlens/internal/pkg/config"
	"github.com/samirrijal/crashlens/internal/pkg/logging"
	"github.com/samirrijal/crashlens/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("crashlens-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, os.Getenv("LOG_FORMAT"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Dataset source
	var (
		source ports.CrashSource
		db     *postgres.DB
	)
	switch cfg.Dataset.Source {
	case config.SourcePostgres:
		db, err = postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		go db.ReportPoolStats(ctx, 15*time.Second)
		source = postgres.NewCrashRepo(db)
	default:
		source = csvsource.NewFile(cfg.Dataset.CSVPath)
	}

	// Cache
	var queryCache ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
	if err != nil {
		slog.Warn("valkey unavailable, query cache disabled", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		queryCache = cache
	}

	// Use cases
	datasetSvc := usecases.NewDatasetService(source, queryCache, cfg.Dataset.MaxRows, cfg.Cache.TTLSeconds)
	geoOpts := geo.Options{
		MaxPoints: cfg.Geo.MaxPoints,
		Bounds:    cfg.Geo.Bounds,
		LatRange:  cfg.Geo.LatRange,
		LonRange:  cfg.Geo.LonRange,
	}
	mapSvc := usecases.NewMapService(datasetSvc, geoOpts, cfg.Geo.LabelThreshold)
	chartSvc := usecases.NewChartService(datasetSvc)

	// A failed initial load leaves the API up; data endpoints answer 503
	// until a reload succeeds.
	if err := datasetSvc.Reload(ctx); err != nil {
		slog.Error("initial dataset load failed", "error", err)
	}

	// NATS: reload on every ingest and relay the event to WebSocket clients
	var publisher *natsadapter.Publisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats publisher unavailable", "error", err)
	} else {
		publisher = p
		defer publisher.Close()
	}

	if sub, err := natsadapter.NewSubscriber(cfg.NATS.URL); err != nil {
		slog.Warn("nats subscriber unavailable, dataset will not auto-reload", "error", err)
	} else {
		defer sub.Close()
		err := sub.SubscribeIngested(ctx, func(ctx context.Context, event domain.IngestEvent) error {
			slog.Info("ingest event received", "batch_id", event.BatchID, "stored", event.Stored)
			if err := datasetSvc.Reload(ctx); err != nil {
				return err
			}
			if publisher != nil {
				if data, err := natsadapter.EncodeIngestEvent(event); err == nil {
					_ = publisher.PublishBroadcast(ctx, data)
				}
			}
			return nil
		})
		if err != nil {
			slog.Warn("subscribe ingested failed", "error", err)
		}
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	deps := &http.Dependencies{
		Dataset:  datasetSvc,
		Maps:     mapSvc,
		Charts:   chartSvc,
		Renderer: echarts.NewRenderer(cfg.Dashboard.AssetsHost, cfg.Dashboard.Theme),
		NATS:     natsConn,
		DB:       db,
		Cache:    cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		AppName:      "Crashlens API",
	})
	app.Use(recover.New())

	http.SetupRoutes(app, deps, http.RouterOptions{
		AllowOrigins: cfg.Server.AllowOrigins,
		RateLimit:    cfg.Server.RateLimit,
	})

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "source", cfg.Dataset.Source)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
