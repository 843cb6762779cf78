// Package geo turns loosely-structured crash records into deduplicated,
// region-checked map points and samples them down to a display cap.
package geo

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// Field aliases in priority order.
var (
	LatAliases = []string{
		"latitude", "Latitude", "LATITUDE", "lat", "Lat", "LAT", "y", "Y",
		"latitudes", "lat_dd", "latitude_deg",
	}
	LonAliases = []string{
		"longitude", "Longitude", "LONGITUDE", "lon", "Lon", "LON", "lng", "Lng",
		"x", "X", "long", "longitude_dd", "longitude_deg",
	}
	CombinedAliases = []string{
		"location", "Location", "coords", "coordinates", "coordinate", "the_geom",
		"geom", "shape", "point", "latlong", "latitude_longitude", "location_point",
	}
)

var (
	nonNumeric  = regexp.MustCompile(`[^0-9+\-.eE]`)
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	pairPattern = regexp.MustCompile(`(-?\d+\.\d+)\s*,?\s*(-?\d+\.\d+)`)
	wktPattern  = regexp.MustCompile(`(?i)POINT\s*\(\s*(-?\d+\.?\d*)\s+(-?\d+\.?\d*)\s*\)`)
)

// Strategy is one named way of pulling a single number out of a record.
type Strategy struct {
	Name    string
	Extract func(domain.Record) (float64, bool)
}

// FieldStrategies builds one strategy per alias, tried in order.
func FieldStrategies(aliases []string) []Strategy {
	out := make([]Strategy, 0, len(aliases))
	for _, key := range aliases {
		key := key
		out = append(out, Strategy{
			Name: key,
			Extract: func(r domain.Record) (float64, bool) {
				v, ok := r[key]
				if !ok {
					return 0, false
				}
				return cleanFloat(domain.Stringify(v))
			},
		})
	}
	return out
}

// firstOf returns the value of the first strategy that succeeds.
func firstOf(r domain.Record, strategies []Strategy) (float64, bool) {
	for _, s := range strategies {
		if v, ok := s.Extract(r); ok {
			return v, true
		}
	}
	return 0, false
}

// cleanFloat strips everything but digits, signs, dots and exponent markers
// and parses the longest numeric prefix of what is left.
func cleanFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	return parseFloatPrefix(nonNumeric.ReplaceAllString(s, ""))
}

func parseFloatPrefix(s string) (float64, bool) {
	m := floatPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Extractor resolves a coordinate pair from a record.
type Extractor struct {
	Lat      []Strategy
	Lon      []Strategy
	Combined []string
	LatRange domain.Range
	LonRange domain.Range
}

// NewExtractor returns an extractor over the default aliases.
func NewExtractor(latRange, lonRange domain.Range) *Extractor {
	return &Extractor{
		Lat:      FieldStrategies(LatAliases),
		Lon:      FieldStrategies(LonAliases),
		Combined: CombinedAliases,
		LatRange: latRange,
		LonRange: lonRange,
	}
}

// Extract tries the separate fields first and falls back to combined
// fields when either axis is missing. A combined match sets both axes.
func (e *Extractor) Extract(r domain.Record) (lat, lon float64, ok bool) {
	if r == nil {
		return 0, 0, false
	}
	lat, latOK := firstOf(r, e.Lat)
	lon, lonOK := firstOf(r, e.Lon)
	if latOK && lonOK {
		return lat, lon, true
	}

	for _, key := range e.Combined {
		v, present := r[key]
		if !present {
			continue
		}
		raw := domain.Stringify(v)
		if raw == "" {
			continue
		}
		if la, lo, found := e.parsePair(raw); found {
			return la, lo, true
		}
		if la, lo, found := parseWKT(raw); found {
			return la, lo, true
		}
	}
	return 0, 0, false
}

// parsePair finds two decimals and orders them by the magnitude heuristic.
func (e *Extractor) parsePair(raw string) (lat, lon float64, ok bool) {
	m := pairPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, 0, false
	}
	a, errA := strconv.ParseFloat(m[1], 64)
	b, errB := strconv.ParseFloat(m[2], 64)
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	switch {
	case e.LatRange.Within(a) && e.LonRange.Within(b):
		return a, b, true
	case e.LatRange.Within(b) && e.LonRange.Within(a):
		return b, a, true
	}
	return 0, 0, false
}

// parseWKT reads POINT (lon lat).
func parseWKT(raw string) (lat, lon float64, ok bool) {
	m := wktPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, 0, false
	}
	x, errX := strconv.ParseFloat(m[1], 64)
	y, errY := strconv.ParseFloat(m[2], 64)
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return y, x, true
}

var intPrefix = regexp.MustCompile(`^[+-]?\d+`)

// parseCount reads a leading integer ("3", "2.0", " 4 people") and
// defaults to 0.
func parseCount(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return clampCount(t)
	case int:
		return clampCount(float64(t))
	case int64:
		return clampCount(float64(t))
	}
	m := intPrefix.FindString(strings.TrimSpace(domain.Stringify(v)))
	if m == "" {
		return 0
	}
	// ParseFloat reports an overflow as ErrRange with f set to ±Inf.
	f, err := strconv.ParseFloat(m, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return clampCount(f)
}

// clampCount truncates f toward zero within the int32 range so huge
// counts stay severe instead of wrapping.
func clampCount(f float64) int {
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}
