//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/crashlens/internal/adapters/echarts"
	"github.com/samirrijal/crashlens/internal/adapters/http"
	"github.com/samirrijal/crashlens/internal/adapters/postgres"
	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/core/geo"
	"github.com/samirrijal/crashlens/internal/core/usecases"
	"github.com/samirrijal/crashlens/internal/pkg/config"
)

// setupTestDB connects to the test database and applies migrations.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("crashlens-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	dsn := cfg.Database.DSN()
	if err := postgres.RunMigrations(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

// setupTestDeps wires the services over the crash table, no cache.
func setupTestDeps(t *testing.T, db *postgres.DB) *http.Dependencies {
	dataset := usecases.NewDatasetService(postgres.NewCrashRepo(db), nil, 0, 0)
	if err := dataset.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	return &http.Dependencies{
		Dataset:  dataset,
		Maps:     usecases.NewMapService(dataset, geo.DefaultOptions(), geo.DefaultLabelThreshold),
		Charts:   usecases.NewChartService(dataset),
		Renderer: echarts.NewRenderer("", ""),
		DB:       db,
	}
}

// seedCrashes stores records under a fresh batch id and returns it.
func seedCrashes(t *testing.T, db *postgres.DB, records []domain.Record) string {
	batchID := uuid.NewString()
	n, err := postgres.NewCrashRepo(db).UpsertBatch(context.Background(), batchID, records)
	if err != nil {
		t.Fatalf("seed crashes: %v", err)
	}
	if n != len(records) {
		t.Fatalf("expected %d rows stored, got %d", len(records), n)
	}
	return batchID
}

func TestUpsert_Integration_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()
	repo := postgres.NewCrashRepo(db)

	records := []domain.Record{
		{"collision_id": "it-1", "borough": "BRONX", "crash_datetime": "2022-06-01 10:00:00",
			"latitude": 40.84, "longitude": -73.87, "number_of_persons_injured": 1, "number_of_persons_killed": 0},
	}
	seedCrashes(t, db, records)
	before, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}

	seedCrashes(t, db, records)
	after, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if before != after {
		t.Errorf("re-ingest changed row count: %d -> %d", before, after)
	}
}

func TestMap_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	seedCrashes(t, db, []domain.Record{
		{"collision_id": "it-map-1", "borough": "BROOKLYN", "crash_datetime": "2023-01-05 08:30:00",
			"latitude": 40.65, "longitude": -73.95, "number_of_persons_injured": 2, "number_of_persons_killed": 0},
		{"collision_id": "it-map-2", "borough": "BROOKLYN", "crash_datetime": "2023-01-06 09:00:00",
			"location": "POINT (-73.94 40.66)", "number_of_persons_injured": 0, "number_of_persons_killed": 0},
	})

	app := setupApp(setupTestDeps(t, db))

	resp, err := app.Test(postJSON("/api/map", `{"borough":["BROOKLYN"]}`), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var view domain.MapView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.TotalPoints < 2 {
		t.Errorf("expected at least 2 resolved points, got %d", view.TotalPoints)
	}
}

func TestReady_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()
	seedCrashes(t, db, []domain.Record{
		{"collision_id": "it-ready-1", "borough": "QUEENS", "crash_datetime": "2023-02-10 17:00:00"},
	})

	app := setupApp(setupTestDeps(t, db))
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Checks["database"] != "ok" {
		t.Errorf("expected database ok, got %q", body.Checks["database"])
	}
}
