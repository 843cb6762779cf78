package geo

import (
	"fmt"
	"slices"
	"time"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// Marker colors by severity.
const (
	ColorKilled  = "red"
	ColorInjured = "orange"
	ColorNone    = "yellow"
)

// DefaultLabelThreshold is the largest point count that still gets text labels.
const DefaultLabelThreshold = 120

var boroughAliases = []string{"borough", "Borough", "borough_name"}

// MarkerSize grows with casualties.
func MarkerSize(p domain.GeoPoint) int {
	return 5 + p.Injured*2 + p.Killed*10
}

// MarkerColor is red for fatal, orange for injury, yellow otherwise.
func MarkerColor(p domain.GeoPoint) string {
	switch {
	case p.Killed > 0:
		return ColorKilled
	case p.Injured > 0:
		return ColorInjured
	}
	return ColorNone
}

// Borough returns the first non-empty borough alias of the point's record.
func Borough(p domain.GeoPoint) string {
	for _, k := range boroughAliases {
		if s := p.Source.String(k); s != "" {
			return s
		}
	}
	return ""
}

// HoverText is the multi-line tooltip of a marker.
func HoverText(p domain.GeoPoint) string {
	borough := Borough(p)
	if borough == "" {
		borough = "Unknown"
	}
	date := "Unknown"
	if t, ok := p.Source.CrashTime(); ok {
		date = t.Format("1/2/2006")
	}
	return fmt.Sprintf("Borough: %s<br>Injured: %d, Killed: %d<br>Date: %s",
		borough, p.Injured, p.Killed, date)
}

// BuildMapView resolves records and lays the result out as parallel arrays.
func BuildMapView(records []domain.Record, opts Options, labelThreshold int) (domain.MapView, Resolution) {
	if labelThreshold <= 0 {
		labelThreshold = DefaultLabelThreshold
	}
	res := Resolve(records, opts)

	n := len(res.Points)
	view := domain.MapView{
		Lat:              make([]float64, n),
		Lon:              make([]float64, n),
		Sizes:            make([]int, n),
		Colors:           make([]string, n),
		Labels:           make([]string, n),
		Text:             make([]string, n),
		ShowLabels:       n > 0 && n <= labelThreshold,
		TotalData:        res.TotalInput,
		TotalPoints:      res.TotalValid,
		AvailableColumns: AvailableColumns(records),
		GeneratedAt:      time.Now().UTC(),
	}
	for i, p := range res.Points {
		view.Lat[i] = p.Lat
		view.Lon[i] = p.Lon
		view.Sizes[i] = MarkerSize(p)
		view.Colors[i] = MarkerColor(p)
		view.Labels[i] = Borough(p)
		view.Text[i] = HoverText(p)
	}

	limit := 5
	if len(res.Deduped) < limit {
		limit = len(res.Deduped)
	}
	view.Samples = make([]domain.PointSample, limit)
	for i, p := range res.Deduped[:limit] {
		view.Samples[i] = domain.PointSample{Lat: p.Lat, Lon: p.Lon, Injured: p.Injured, Killed: p.Killed}
	}
	return view, res
}

// AvailableColumns is the sorted union of field names across records.
func AvailableColumns(records []domain.Record) []string {
	set := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			set[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return cols
}
