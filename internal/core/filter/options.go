package filter

import (
	"sort"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// Options derives the dropdown choices from the loaded records.
func Options(records []domain.Record) domain.FilterOptions {
	cols := columnsOf(records)
	opts := domain.FilterOptions{
		Boroughs:            uniqueStrings(records, domain.ColBorough),
		Years:               uniqueYears(records),
		VehicleTypes:        uniqueStrings(records, domain.ColVehicle1),
		ContributingFactors: uniqueStrings(records, domain.ColFactor1),
		InjuryTypes:         []string{},
	}
	if cols.has(domain.ColInjured) && cols.has(domain.ColKilled) {
		opts.InjuryTypes = []string{domain.InjuryInjured, domain.InjuryKilled, domain.InjuryNone}
	}
	return opts
}

func uniqueStrings(records []domain.Record, key string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		s := domain.Stringify(v)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func uniqueYears(records []domain.Record) []int {
	seen := make(map[int]struct{})
	out := []int{}
	for _, r := range records {
		v, ok := r.Float(domain.ColYear)
		if !ok {
			continue
		}
		y := int(v)
		if _, dup := seen[y]; dup {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
