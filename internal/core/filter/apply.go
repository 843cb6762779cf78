// Package filter narrows the crash dataset by dashboard selections and
// free-text search.
package filter

import (
	"strconv"
	"strings"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// SearchColumns are the text columns matched by free-text search.
var SearchColumns = []string{
	domain.ColBorough,
	domain.ColVehicle1, domain.ColVehicle2,
	domain.ColFactor1, domain.ColFactor2,
	domain.ColOnStreet, domain.ColCrossStreet, domain.ColOffStreet,
}

// columnSet records which columns appear in at least one record. A filter
// over a column no record carries is not applied.
type columnSet map[string]struct{}

func columnsOf(records []domain.Record) columnSet {
	cols := make(columnSet)
	for _, r := range records {
		for k := range r {
			cols[k] = struct{}{}
		}
	}
	return cols
}

func (c columnSet) has(k string) bool {
	_, ok := c[k]
	return ok
}

// predicate reports whether a record passes one filter.
type predicate func(domain.Record) bool

// Apply returns the records that pass every active filter, in input order.
// Filters are expected to be merged with the parsed search already.
func Apply(records []domain.Record, f domain.Filters) []domain.Record {
	idx := Indices(records, f)
	out := make([]domain.Record, len(idx))
	for i, n := range idx {
		out[i] = records[n]
	}
	return out
}

// Indices returns the positions of the records that pass every filter.
func Indices(records []domain.Record, f domain.Filters) []int {
	preds := predicates(columnsOf(records), f)

	out := make([]int, 0, len(records))
	for i, r := range records {
		if matchAll(r, preds) {
			out = append(out, i)
		}
	}
	return out
}

func matchAll(r domain.Record, preds []predicate) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}

func predicates(cols columnSet, f domain.Filters) []predicate {
	var preds []predicate

	if len(f.Borough) > 0 && cols.has(domain.ColBorough) {
		set := toSet(f.Borough)
		preds = append(preds, func(r domain.Record) bool {
			return inSet(set, r, domain.ColBorough)
		})
	}

	if len(f.Year) > 0 && cols.has(domain.ColYear) {
		years := make(map[int]struct{}, len(f.Year))
		for _, y := range f.Year {
			if n, err := strconv.Atoi(strings.TrimSpace(y)); err == nil {
				years[n] = struct{}{}
			}
		}
		preds = append(preds, func(r domain.Record) bool {
			v, ok := r.Float(domain.ColYear)
			if !ok {
				return false
			}
			_, hit := years[int(v)]
			return hit && float64(int(v)) == v
		})
	}

	if len(f.VehicleType) > 0 && (cols.has(domain.ColVehicle1) || cols.has(domain.ColVehicle2)) {
		set := toSet(f.VehicleType)
		preds = append(preds, func(r domain.Record) bool {
			_, ok := set[PrimaryVehicle(r)]
			return ok
		})
	}

	if len(f.ContributingFactor) > 0 && (cols.has(domain.ColFactor1) || cols.has(domain.ColFactor2)) {
		set := toSet(f.ContributingFactor)
		preds = append(preds, func(r domain.Record) bool {
			return inSet(set, r, domain.ColFactor1) || inSet(set, r, domain.ColFactor2)
		})
	}

	if len(f.InjuryType) > 0 {
		preds = append(preds, injuryPredicate(cols, f.InjuryType))
	}

	if words := strings.Fields(strings.ToLower(f.Search)); len(words) > 0 {
		var searchCols []string
		for _, c := range SearchColumns {
			if cols.has(c) {
				searchCols = append(searchCols, c)
			}
		}
		preds = append(preds, func(r domain.Record) bool {
			for _, c := range searchCols {
				text := strings.ToLower(r.String(c))
				for _, w := range words {
					if strings.Contains(text, w) {
						return true
					}
				}
			}
			return false
		})
	}

	return preds
}

// injuryPredicate ORs the selected injury types. A type whose count
// columns are missing never matches.
func injuryPredicate(cols columnSet, types domain.StringList) predicate {
	hasInjured := cols.has(domain.ColInjured)
	hasKilled := cols.has(domain.ColKilled)

	return func(r domain.Record) bool {
		injured, injOK := r.Float(domain.ColInjured)
		killed, killOK := r.Float(domain.ColKilled)
		for _, t := range types {
			switch t {
			case domain.InjuryInjured:
				if hasInjured && injOK && injured > 0 {
					return true
				}
			case domain.InjuryKilled:
				if hasKilled && killOK && killed > 0 {
					return true
				}
			case domain.InjuryNone:
				if hasInjured && hasKilled && injOK && killOK && injured == 0 && killed == 0 {
					return true
				}
			}
		}
		return false
	}
}

// PrimaryVehicle is vehicle_type_code_1, or vehicle_type_code_2 when the
// first is empty.
func PrimaryVehicle(r domain.Record) string {
	if v := r.String(domain.ColVehicle1); v != "" {
		return v
	}
	return r.String(domain.ColVehicle2)
}

func toSet(values domain.StringList) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func inSet(set map[string]struct{}, r domain.Record, key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return false
	}
	_, hit := set[domain.Stringify(v)]
	return hit
}
