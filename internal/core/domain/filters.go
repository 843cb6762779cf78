package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Injury type filter values.
const (
	InjuryInjured = "Injured"
	InjuryKilled  = "Killed"
	InjuryNone    = "None"
)

// Filter keys shared by the dropdowns, the search parser and the API body.
const (
	FilterBorough            = "borough"
	FilterYear               = "year"
	FilterVehicleType        = "vehicle_type"
	FilterContributingFactor = "contributing_factor"
	FilterInjuryType         = "injury_type"
)

// FilterKeys lists the multi-select filters in display order.
var FilterKeys = []string{
	FilterBorough, FilterYear, FilterVehicleType, FilterContributingFactor, FilterInjuryType,
}

// StringList is a JSON list whose elements may be strings or numbers.
type StringList []string

// UnmarshalJSON accepts ["a", 2021, ...] as well as a bare scalar.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*l = nil
	case []any:
		out := make(StringList, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, Stringify(item))
		}
		*l = out
	case string, float64, bool:
		*l = StringList{Stringify(v)}
	default:
		return fmt.Errorf("unsupported filter value %s", string(data))
	}
	return nil
}

// Filters holds the dashboard's multi-select filters and free-text search.
type Filters struct {
	Borough            StringList `json:"borough,omitempty"`
	Year               StringList `json:"year,omitempty"`
	VehicleType        StringList `json:"vehicle_type,omitempty"`
	ContributingFactor StringList `json:"contributing_factor,omitempty"`
	InjuryType         StringList `json:"injury_type,omitempty"`
	Search             string     `json:"search,omitempty"`
}

// List returns the selection for a filter key.
func (f *Filters) List(key string) StringList {
	switch key {
	case FilterBorough:
		return f.Borough
	case FilterYear:
		return f.Year
	case FilterVehicleType:
		return f.VehicleType
	case FilterContributingFactor:
		return f.ContributingFactor
	case FilterInjuryType:
		return f.InjuryType
	}
	return nil
}

// SetList replaces the selection for a filter key. Unknown keys are ignored.
func (f *Filters) SetList(key string, values StringList) {
	switch key {
	case FilterBorough:
		f.Borough = values
	case FilterYear:
		f.Year = values
	case FilterVehicleType:
		f.VehicleType = values
	case FilterContributingFactor:
		f.ContributingFactor = values
	case FilterInjuryType:
		f.InjuryType = values
	}
}

// HasStructured reports whether any multi-select filter is set.
func (f *Filters) HasStructured() bool {
	for _, k := range FilterKeys {
		if len(f.List(k)) > 0 {
			return true
		}
	}
	return false
}

// CacheKey is a canonical string form used for memoisation and caching.
func (f *Filters) CacheKey() string {
	var b strings.Builder
	for _, k := range FilterKeys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(f.List(k), "\x1f"))
		b.WriteByte(';')
	}
	b.WriteString("search=")
	b.WriteString(strings.TrimSpace(f.Search))
	return b.String()
}

// FilterOptions are the dropdown choices derived from the dataset.
type FilterOptions struct {
	Boroughs            []string `json:"boroughs"`
	Years               []int    `json:"years"`
	VehicleTypes        []string `json:"vehicle_types"`
	ContributingFactors []string `json:"contributing_factors"`
	InjuryTypes         []string `json:"injury_types"`
}
