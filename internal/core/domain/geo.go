package domain

import "time"

// GeoPoint is a resolved, validated map point derived from one crash record.
// Values are created fresh on every resolution pass and never mutated.
type GeoPoint struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Injured     int     `json:"injured"`
	Killed      int     `json:"killed"`
	CollisionID string  `json:"collision_id,omitempty"`
	DateKey     string  `json:"date,omitempty"`
	Source      Record  `json:"-"`
}

// Severe reports whether anyone was injured or killed.
func (p GeoPoint) Severe() bool {
	return p.Killed > 0 || p.Injured > 0
}

// Bounds represents a geographic bounding box (inclusive).
type Bounds struct {
	MinLat float64 `json:"min_lat" mapstructure:"min_lat"`
	MinLon float64 `json:"min_lon" mapstructure:"min_lon"`
	MaxLat float64 `json:"max_lat" mapstructure:"max_lat"`
	MaxLon float64 `json:"max_lon" mapstructure:"max_lon"`
}

// Contains reports whether lat/lon fall inside the box.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Range is an open numeric interval (Min, Max).
type Range struct {
	Min float64 `json:"min" mapstructure:"min"`
	Max float64 `json:"max" mapstructure:"max"`
}

// Within reports whether v lies strictly between Min and Max.
func (r Range) Within(v float64) bool {
	return v > r.Min && v < r.Max
}

// NYCBounds is the box around the five boroughs used to drop outliers.
var NYCBounds = Bounds{MinLat: 40.0, MinLon: -75.0, MaxLat: 41.2, MaxLon: -72.0}

// NearbyPoint is a GeoPoint with its distance from a query location.
type NearbyPoint struct {
	GeoPoint
	Distance float64 `json:"distance"` // meters
}

// MapView is the render-ready form of a resolution pass: parallel arrays
// for a scatter map plus diagnostics about the input feed.
type MapView struct {
	Lat              []float64     `json:"lat"`
	Lon              []float64     `json:"lon"`
	Sizes            []int         `json:"sizes"`
	Colors           []string      `json:"colors"`
	Labels           []string      `json:"labels"`
	Text             []string      `json:"text"`
	ShowLabels       bool          `json:"show_labels"`
	TotalData        int           `json:"total_data"`
	TotalPoints      int           `json:"total_points"`
	AvailableColumns []string      `json:"available_columns"`
	Samples          []PointSample `json:"samples"`
	GeneratedAt      time.Time     `json:"generated_at"`
}

// PointSample is a compact diagnostic view of a resolved point.
type PointSample struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Injured int     `json:"injured"`
	Killed  int     `json:"killed"`
}
