// Package geospatial holds great-circle helpers for radius searches.
package geospatial

import "math"

const (
	earthRadiusMeters = 6371008.8
	metersPerDegree   = 111320.0
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Box is an inclusive lat/lon rectangle.
type Box struct {
	Min Point
	Max Point
}

// Contains reports whether p lies inside the box.
func (b Box) Contains(p Point) bool {
	return p.Lat >= b.Min.Lat && p.Lat <= b.Max.Lat &&
		p.Lon >= b.Min.Lon && p.Lon <= b.Max.Lon
}

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Around returns a box that encloses every point within radiusMeters of
// center. Near the poles the box spans all longitudes.
func Around(center Point, radiusMeters float64) Box {
	latDelta := radiusMeters / metersPerDegree
	cos := math.Cos(radians(center.Lat))
	lonDelta := 180.0
	if cos > 1e-9 {
		lonDelta = math.Min(180, radiusMeters/(metersPerDegree*cos))
	}
	return Box{
		Min: Point{Lat: center.Lat - latDelta, Lon: center.Lon - lonDelta},
		Max: Point{Lat: center.Lat + latDelta, Lon: center.Lon + lonDelta},
	}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
