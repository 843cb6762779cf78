package geo

import (
	"math"
	"math/big"
	"strconv"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// DefaultMaxPoints caps how many markers a map view carries.
const DefaultMaxPoints = 1500

// Options tunes a resolution pass. The bounding box and disambiguation
// ranges encode one metro area; other regions override them.
type Options struct {
	MaxPoints int
	Bounds    domain.Bounds
	LatRange  domain.Range
	LonRange  domain.Range
}

// DefaultOptions targets New York City.
func DefaultOptions() Options {
	return Options{
		MaxPoints: DefaultMaxPoints,
		Bounds:    domain.NYCBounds,
		LatRange:  domain.Range{Min: 10, Max: 90},
		LonRange:  domain.Range{Min: -180, Max: 0},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxPoints <= 0 {
		o.MaxPoints = d.MaxPoints
	}
	if o.Bounds == (domain.Bounds{}) {
		o.Bounds = d.Bounds
	}
	if o.LatRange == (domain.Range{}) {
		o.LatRange = d.LatRange
	}
	if o.LonRange == (domain.Range{}) {
		o.LonRange = d.LonRange
	}
	return o
}

// Resolution is the outcome of one pass over a record sequence.
type Resolution struct {
	// Points is never nil; an empty slice means nothing was plottable.
	Points     []domain.GeoPoint
	TotalInput int
	// TotalValid counts distinct valid points before sampling.
	TotalValid  int
	Unresolved  int
	OutOfBounds int
	Duplicates  int
	// Deduped holds every distinct valid point in first-seen order.
	Deduped []domain.GeoPoint
}

// Resolve extracts, validates, deduplicates and samples map points.
// It never fails: unusable records are counted and skipped.
func Resolve(records []domain.Record, opts Options) Resolution {
	opts = opts.withDefaults()
	ex := NewExtractor(opts.LatRange, opts.LonRange)

	res := Resolution{TotalInput: len(records)}
	seen := make(map[string]struct{}, len(records))
	deduped := make([]domain.GeoPoint, 0, len(records))

	for _, r := range records {
		lat, lon, ok := ex.Extract(r)
		if !ok {
			res.Unresolved++
			continue
		}
		if !opts.Bounds.Contains(lat, lon) {
			res.OutOfBounds++
			continue
		}

		p := newPoint(r, lat, lon)
		key := DedupKey(p)
		if _, dup := seen[key]; dup {
			res.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, p)
	}

	res.Deduped = deduped
	res.TotalValid = len(deduped)
	res.Points = Sample(deduped, opts.MaxPoints)
	return res
}

func newPoint(r domain.Record, lat, lon float64) domain.GeoPoint {
	p := domain.GeoPoint{
		Lat:     lat,
		Lon:     lon,
		Injured: parseCount(r[domain.ColInjured]),
		Killed:  parseCount(r[domain.ColKilled]),
		Source:  r,
	}
	if id, ok := r[domain.ColCollisionID]; ok && truthy(id) {
		p.CollisionID = domain.Stringify(id)
	}
	if dt, ok := r[domain.ColCrashDatetime]; ok && truthy(dt) {
		s := domain.Stringify(dt)
		if len(s) > 10 {
			s = s[:10]
		}
		p.DateKey = s
	}
	return p
}

// truthy treats nil, "", 0 and false as absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	}
	return true
}

// DedupKey is the collision id when known, else rounded coordinates plus day.
func DedupKey(p domain.GeoPoint) string {
	if p.CollisionID != "" {
		return "id:" + p.CollisionID
	}
	return "coord:" + fixed6(p.Lat) + "|" + fixed6(p.Lon) + "|" + p.DateKey
}

// fixed6 formats x with six decimals, rounding exact ties away from zero
// like JavaScript's toFixed(6) does.
func fixed6(x float64) string {
	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}
	n := roundMicro(x)
	return sign + strconv.FormatUint(n/1e6, 10) + "." + padMicro(n%1e6)
}

// roundMicro returns floor(x*1e6 + 0.5) for x >= 0, computed exactly when
// x*1e6 lies close to a half.
func roundMicro(x float64) uint64 {
	t := x * 1e6
	if d := t - math.Floor(t) - 0.5; d > 1e-7 || d < -1e-7 {
		return uint64(math.Floor(t + 0.5))
	}
	b := new(big.Float).SetPrec(128).SetFloat64(x)
	b.Mul(b, new(big.Float).SetPrec(128).SetInt64(1e6))
	b.Add(b, big.NewFloat(0.5))
	n, _ := b.Uint64()
	return n
}

func padMicro(n uint64) string {
	s := strconv.FormatUint(n, 10)
	for len(s) < 6 {
		s = "0" + s
	}
	return s
}

// Sample bounds points to max. Severe points always come first; if they
// alone reach the cap the benign ones are dropped entirely, otherwise the
// remaining slots are filled from the benign points at a fixed stride.
func Sample(points []domain.GeoPoint, max int) []domain.GeoPoint {
	if max <= 0 {
		return []domain.GeoPoint{}
	}
	if len(points) <= max {
		out := make([]domain.GeoPoint, len(points))
		copy(out, points)
		return out
	}

	var severe, benign []domain.GeoPoint
	for _, p := range points {
		if p.Severe() {
			severe = append(severe, p)
		} else {
			benign = append(benign, p)
		}
	}

	if len(severe) >= max {
		out := make([]domain.GeoPoint, max)
		copy(out, severe[:max])
		return out
	}

	remaining := max - len(severe)
	step := len(benign) / remaining
	if step < 1 {
		step = 1
	}

	out := make([]domain.GeoPoint, 0, max)
	out = append(out, severe...)
	for i, n := 0, 0; i < len(benign) && n < remaining; i += step {
		out = append(out, benign[i])
		n++
	}
	if len(out) > max {
		out = out[:max]
	}
	return out
}
