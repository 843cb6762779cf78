package domain

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record is one loosely-typed crash row (or crash-person pair). No field is
// guaranteed to be present and names vary between feeds.
type Record map[string]any

// Well-known column names of the merged crash dataset.
const (
	ColCollisionID   = "collision_id"
	ColCrashDatetime = "crash_datetime"
	ColBorough       = "borough"
	ColYear          = "year"
	ColMonth         = "month"
	ColDay           = "day"
	ColVehicle1      = "vehicle_type_code_1"
	ColVehicle2      = "vehicle_type_code_2"
	ColFactor1       = "contributing_factor_vehicle_1"
	ColFactor2       = "contributing_factor_vehicle_2"
	ColInjured       = "number_of_persons_injured"
	ColKilled        = "number_of_persons_killed"
	ColPersonInjury  = "person_injury"
	ColOnStreet      = "on_street_name"
	ColCrossStreet   = "cross_street_name"
	ColOffStreet     = "off_street_name"
)

// Value returns the raw value stored under key.
func (r Record) Value(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// Has reports whether key is present, even with a nil value.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// String renders the value under key as text ("" when missing or nil).
func (r Record) String(key string) string {
	return Stringify(r[key])
}

// Float returns the value under key as a number when it is numeric or a
// numeric string.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, !math.IsNaN(v)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Keys returns the record's field names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stringify formats a cell value the way the dashboard displays it:
// integral floats lose their decimals and nil becomes "".
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// InferValue types a raw CSV cell: empty cells become nil, integers int64,
// decimals float64, everything else stays text.
func InferValue(cell string) any {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return cell
}

var crashTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ParseCrashTime parses the timestamp formats seen in crash feeds.
func ParseCrashTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range crashTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CrashTime returns the record's crash timestamp when it parses.
func (r Record) CrashTime() (time.Time, bool) {
	return ParseCrashTime(r.String(ColCrashDatetime))
}

// DeriveDateParts fills year, month and day from crash_datetime.
func DeriveDateParts(r Record) {
	t, ok := r.CrashTime()
	if !ok {
		return
	}
	r[ColYear] = t.Year()
	r[ColMonth] = int(t.Month())
	r[ColDay] = t.Day()
}
