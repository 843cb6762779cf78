package geo

import (
	"sort"

	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/pkg/geospatial"
)

// Nearby returns the points within radiusMeters of lat/lon, closest first.
func Nearby(points []domain.GeoPoint, lat, lon, radiusMeters float64, limit int) []domain.NearbyPoint {
	center := geospatial.Point{Lat: lat, Lon: lon}
	box := geospatial.Around(center, radiusMeters)

	out := make([]domain.NearbyPoint, 0)
	for _, p := range points {
		pt := geospatial.Point{Lat: p.Lat, Lon: p.Lon}
		if !box.Contains(pt) {
			continue
		}
		d := geospatial.Distance(center, pt)
		if d > radiusMeters {
			continue
		}
		out = append(out, domain.NearbyPoint{GeoPoint: p, Distance: d})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
