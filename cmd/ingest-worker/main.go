package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/crashlens/internal/adapters/nats"
	"github.com/samirrijal/crashlens/internal/adapters/postgres"
	"github.com/samirrijal/crashlens/internal/core/ports"
	"github.com/samirrijal/crashlens/internal/core/usecases"
	"github.com/samirrijal/crashlens/internal/pkg/config"
	"github.com/samirrijal/crashlens/internal/pkg/logging"
	"github.com/samirrijal/crashlens/internal/workflows"
)

func main() {
	cfg, err := config.Load("crashlens-ingest-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, ingest events will not be published", "error", err)
	} else {
		defer p.Close()
		publisher = p
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.IngestWorkflow)
	w.RegisterActivity(&workflows.IngestActivities{
		Ingest: usecases.NewIngestService(postgres.NewCrashRepo(db), publisher, 0),
	})

	slog.Info("ingest worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
