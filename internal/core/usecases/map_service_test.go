package usecases_test

import (
	"context"
	"testing"

	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/core/geo"
	"github.com/samirrijal/crashlens/internal/core/usecases"
)

func TestMapService_View(t *testing.T) {
	svc := usecases.NewMapService(loadedDataset(t, nil), geo.DefaultOptions(), 120)

	view, err := svc.View(context.Background(), domain.Filters{}, 0)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.TotalData != 3 || view.TotalPoints != 3 {
		t.Fatalf("expected 3/3, got %d/%d", view.TotalData, view.TotalPoints)
	}
	if len(view.Lat) != 3 || len(view.Colors) != 3 {
		t.Fatalf("expected 3 points, got %d", len(view.Lat))
	}
	if view.Colors[2] != geo.ColorKilled {
		t.Errorf("expected red marker for fatal crash, got %s", view.Colors[2])
	}
	if !view.ShowLabels {
		t.Error("expected labels for a small view")
	}
}

func TestMapService_ViewIsMemoised(t *testing.T) {
	svc := usecases.NewMapService(loadedDataset(t, nil), geo.DefaultOptions(), 120)
	f := domain.Filters{Borough: domain.StringList{"Brooklyn"}}

	first, err := svc.View(context.Background(), f, 1)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	second, err := svc.View(context.Background(), f, 1)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !first.GeneratedAt.Equal(second.GeneratedAt) {
		t.Error("expected the memoised view to be returned")
	}
	if len(first.Lat) != 1 {
		t.Errorf("expected cap of 1 point, got %d", len(first.Lat))
	}

	other, _ := svc.View(context.Background(), f, 2)
	if len(other.Lat) != 2 {
		t.Errorf("expected a new view for a different cap, got %d points", len(other.Lat))
	}
}

func TestMapService_Nearby(t *testing.T) {
	svc := usecases.NewMapService(loadedDataset(t, nil), geo.DefaultOptions(), 120)

	points, err := svc.Nearby(context.Background(), domain.Filters{}, 40.68, -73.97, 1000, 10)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(points) != 1 || points[0].CollisionID != "1" {
		t.Fatalf("expected collision 1 only, got %+v", points)
	}
}
