package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/crashlens/internal/adapters/csvsource"
	natsadapter "github.com/samirrijal/crashlens/internal/adapters/nats"
	"github.com/samirrijal/crashlens/internal/adapters/postgres"
	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/core/ports"
	"github.com/samirrijal/crashlens/internal/core/usecases"
	"github.com/samirrijal/crashlens/internal/pkg/config"
	"github.com/samirrijal/crashlens/internal/pkg/logging"
	"github.com/samirrijal/crashlens/internal/workflows"
)

const usage = `usage:
  ingestor run <csv|url>...     store feeds directly and announce them
  ingestor submit <csv>...      start one ingest workflow per feed`

func main() {
	if len(os.Args) < 3 {
		log.Fatal(usage)
	}

	cfg, err := config.Load("crashlens-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	ctx := context.Background()
	feeds := os.Args[2:]

	switch os.Args[1] {
	case "run":
		runInline(ctx, cfg, feeds)
	case "submit":
		submit(ctx, cfg, feeds)
	default:
		log.Fatalf("unknown command: %s\n%s", os.Args[1], usage)
	}
}

// runInline stores every feed in this process, at most 4 at a time.
func runInline(ctx context.Context, cfg *config.Config, feeds []string) {
	if err := postgres.RunMigrations(cfg.Database.DSN()); err != nil {
		log.Fatalf("migrate: %v", err)
	}
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

	svc := usecases.NewIngestService(postgres.NewCrashRepo(db), publisher, 0)
	httpClient := &http.Client{Timeout: 10 * time.Minute}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4)
	failed := 0
	var mu sync.Mutex

	for _, feed := range feeds {
		wg.Add(1)
		go func(feed string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			event, err := ingestFeed(ctx, svc, httpClient, feed)
			if err != nil {
				slog.Error("ingest failed", "feed", feed, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			slog.Info("feed ingested", "feed", feed, "batch_id", event.BatchID,
				"rows", event.Rows, "stored", event.Stored, "skipped", event.Skipped)
		}(feed)
	}

	wg.Wait()
	if failed > 0 {
		log.Fatalf("%d of %d feeds failed", failed, len(feeds))
	}
	slog.Info("ingestion complete", "feeds", len(feeds))
}

func ingestFeed(ctx context.Context, svc *usecases.IngestService, httpClient *http.Client, feed string) (domain.IngestEvent, error) {
	path := feed
	if strings.HasPrefix(feed, "http://") || strings.HasPrefix(feed, "https://") {
		tmp, err := download(ctx, httpClient, feed)
		if err != nil {
			return domain.IngestEvent{}, err
		}
		defer os.Remove(tmp)
		path = tmp
	}

	reader, closer, err := csvsource.NewFile(path).Open()
	if err != nil {
		return domain.IngestEvent{}, err
	}
	defer closer.Close()
	return svc.Ingest(ctx, feed, reader)
}

// download copies a remote CSV export to a temporary file.
func download(ctx context.Context, httpClient *http.Client, url string) (string, error) {
	slog.Info("downloading feed", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	f, err := os.CreateTemp("", "crashlens-*.csv")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("save feed: %w", err)
	}
	return f.Name(), nil
}

// submit starts an IngestWorkflow per feed and waits for each result.
func submit(ctx context.Context, cfg *config.Config, feeds []string) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	for _, feed := range feeds {
		input := workflows.IngestInput{BatchID: uuid.NewString(), Path: feed}
		run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        "ingest-" + input.BatchID,
			TaskQueue: cfg.Temporal.TaskQueue,
		}, workflows.IngestWorkflow, input)
		if err != nil {
			log.Fatalf("start workflow for %s: %v", feed, err)
		}
		slog.Info("workflow started", "feed", feed, "workflow_id", run.GetID(), "run_id", run.GetRunID())

		var event domain.IngestEvent
		if err := run.Get(ctx, &event); err != nil {
			log.Fatalf("workflow %s: %v", run.GetID(), err)
		}
		slog.Info("feed ingested", "feed", feed, "batch_id", event.BatchID, "stored", event.Stored, "skipped", event.Skipped)
	}
}
