package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/core/usecases"
)

func loadedDataset(t *testing.T, cache *mockCache) *usecases.DatasetService {
	t.Helper()
	repo := &mockCrashRepo{
		loadAllFn: func(ctx context.Context, limit int) ([]domain.Record, error) {
			return crashRecords(), nil
		},
	}
	var svc *usecases.DatasetService
	if cache != nil {
		svc = usecases.NewDatasetService(repo, cache, 200000, 60)
	} else {
		svc = usecases.NewDatasetService(repo, nil, 200000, 60)
	}
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	return svc
}

func TestDatasetService_NotLoaded(t *testing.T) {
	svc := usecases.NewDatasetService(&mockCrashRepo{}, nil, 0, 0)
	if svc.Loaded() {
		t.Fatal("expected not loaded")
	}
	if _, err := svc.Query(context.Background(), domain.Filters{}); !errors.Is(err, usecases.ErrDatasetNotLoaded) {
		t.Fatalf("expected ErrDatasetNotLoaded, got %v", err)
	}
	if _, err := svc.Options(context.Background()); !errors.Is(err, usecases.ErrDatasetNotLoaded) {
		t.Fatalf("expected ErrDatasetNotLoaded, got %v", err)
	}
}

func TestDatasetService_ReloadError(t *testing.T) {
	repo := &mockCrashRepo{
		loadAllFn: func(ctx context.Context, limit int) ([]domain.Record, error) {
			return nil, errors.New("disk gone")
		},
	}
	svc := usecases.NewDatasetService(repo, nil, 10, 0)
	if err := svc.Reload(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if svc.Loaded() {
		t.Error("failed reload must not mark the dataset loaded")
	}
}

func TestDatasetService_ReloadPassesLimitAndDerivesYear(t *testing.T) {
	var gotLimit int
	repo := &mockCrashRepo{
		loadAllFn: func(ctx context.Context, limit int) ([]domain.Record, error) {
			gotLimit = limit
			return crashRecords(), nil
		},
	}
	svc := usecases.NewDatasetService(repo, nil, 200000, 0)
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if gotLimit != 200000 {
		t.Errorf("expected limit 200000, got %d", gotLimit)
	}

	opts, err := svc.Options(context.Background())
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if len(opts.Years) != 2 || opts.Years[0] != 2021 || opts.Years[1] != 2022 {
		t.Errorf("unexpected years %v", opts.Years)
	}
	if version, n, _ := svc.Status(); version != 1 || n != 3 {
		t.Errorf("unexpected status version=%d records=%d", version, n)
	}
}

func TestDatasetService_QueryMergesSearch(t *testing.T) {
	svc := loadedDataset(t, nil)

	res, err := svc.Query(context.Background(), domain.Filters{Search: "brooklyn 2022"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].String("collision_id") != "3" {
		t.Fatalf("expected only collision 3, got %d records", len(res.Records))
	}
	if len(res.Filters.Borough) != 1 || res.Filters.Borough[0] != "Brooklyn" {
		t.Errorf("expected merged borough filter, got %v", res.Filters.Borough)
	}
}

func TestDatasetService_QueryUsesCache(t *testing.T) {
	cache := newMockCache()
	svc := loadedDataset(t, cache)
	f := domain.Filters{Borough: domain.StringList{"Brooklyn"}}

	first, err := svc.Query(context.Background(), f)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	second, err := svc.Query(context.Background(), f)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if cache.sets != 1 {
		t.Errorf("expected 1 cache write, got %d", cache.sets)
	}
	if len(first.Records) != 2 || len(second.Records) != 2 {
		t.Fatalf("expected 2 records, got %d and %d", len(first.Records), len(second.Records))
	}
	for i := range first.Records {
		if first.Records[i].String("collision_id") != second.Records[i].String("collision_id") {
			t.Errorf("cached result differs at %d", i)
		}
	}
}

func TestDatasetService_SharedCacheAcrossDatasets(t *testing.T) {
	cache := newMockCache()
	load := func(records []domain.Record) *usecases.DatasetService {
		t.Helper()
		svc := usecases.NewDatasetService(&mockCrashRepo{
			loadAllFn: func(ctx context.Context, limit int) ([]domain.Record, error) {
				return records, nil
			},
		}, cache, 0, 60)
		if err := svc.Reload(context.Background()); err != nil {
			t.Fatalf("reload: %v", err)
		}
		return svc
	}

	first := load([]domain.Record{
		{"collision_id": "a", "borough": "Queens"},
		{"collision_id": "b", "borough": "Brooklyn"},
	})
	second := load([]domain.Record{
		{"collision_id": "c", "borough": "Brooklyn"},
		{"collision_id": "a", "borough": "Queens"},
		{"collision_id": "b", "borough": "Brooklyn"},
	})
	f := domain.Filters{Borough: domain.StringList{"Queens"}}

	for name, svc := range map[string]*usecases.DatasetService{"first": first, "second": second} {
		res, err := svc.Query(context.Background(), f)
		if err != nil {
			t.Fatalf("%s query: %v", name, err)
		}
		if len(res.Records) != 1 || res.Records[0].String("collision_id") != "a" {
			t.Errorf("%s: expected only collision a, got %v", name, res.Records)
		}
	}
	if cache.sets != 2 {
		t.Errorf("expected one cache entry per dataset, got %d writes", cache.sets)
	}

	// A restarted process holding the same rows reuses the entry.
	restarted := load([]domain.Record{
		{"collision_id": "c", "borough": "Brooklyn"},
		{"collision_id": "a", "borough": "Queens"},
		{"collision_id": "b", "borough": "Brooklyn"},
	})
	res, err := restarted.Query(context.Background(), f)
	if err != nil {
		t.Fatalf("restarted query: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].String("collision_id") != "a" {
		t.Errorf("restarted: expected only collision a, got %v", res.Records)
	}
	if cache.sets != 2 {
		t.Errorf("expected cache hit for identical dataset, got %d writes", cache.sets)
	}
}

func TestDatasetService_Page(t *testing.T) {
	svc := loadedDataset(t, nil)

	page, total, err := svc.Page(context.Background(), domain.Filters{}, 1, 5)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("expected total 3 and 2 rows, got %d and %d", total, len(page))
	}

	page, _, _ = svc.Page(context.Background(), domain.Filters{}, 10, 5)
	if page == nil || len(page) != 0 {
		t.Errorf("expected empty non-nil page, got %v", page)
	}
}
