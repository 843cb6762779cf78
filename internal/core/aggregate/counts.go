// Package aggregate computes the chart-ready group/count/sort views of a
// filtered crash slice.
package aggregate

import (
	"sort"
	"strings"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// Labels used for missing or bucketed categories.
const (
	LabelUnknown     = "Unknown"
	LabelOther       = "Other"
	labelUnspecified = "Unspecified"
)

// DefaultTopFactors is how many contributing factors the factor chart keeps.
const DefaultTopFactors = 10

// maxSlices is the largest pie that is shown without folding into Other.
const maxSlices = 8

// counter tallies labels and remembers first-appearance order so that
// ties sort deterministically.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(label string, n int) {
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label] += n
}

// sorted returns counts in descending order, ties by first appearance.
func (c *counter) sorted() []domain.CategoryCount {
	out := make([]domain.CategoryCount, 0, len(c.order))
	for _, label := range c.order {
		out = append(out, domain.CategoryCount{Label: label, Count: c.counts[label]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// ByBorough counts rows per borough; rows without one count as Unknown.
func ByBorough(records []domain.Record) []domain.CategoryCount {
	c := newCounter()
	for _, r := range records {
		b := r.String(domain.ColBorough)
		if b == "" {
			b = LabelUnknown
		}
		c.add(b, 1)
	}
	return c.sorted()
}

func knownCategory(s string) bool {
	return s != "" && s != LabelUnknown && s != labelUnspecified
}

// TopFactors counts both contributing-factor columns and keeps the n most
// frequent, ignoring Unknown and Unspecified. n <= 0 means the default.
func TopFactors(records []domain.Record, n int) []domain.CategoryCount {
	if n <= 0 {
		n = DefaultTopFactors
	}
	c := newCounter()
	for _, r := range records {
		for _, col := range []string{domain.ColFactor1, domain.ColFactor2} {
			if f := r.String(col); knownCategory(f) {
				c.add(f, 1)
			}
		}
	}
	out := c.sorted()
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// VehicleShare assigns every row one vehicle category (code 1, else code 2,
// else Unknown). With a vehicle selection active, rows outside it fall into
// Other so the shares still sum to the row count. More than eight
// categories fold into the top seven plus Other.
func VehicleShare(records []domain.Record, selected domain.StringList) []domain.CategoryCount {
	filterSet := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		filterSet[s] = struct{}{}
	}

	c := newCounter()
	for _, r := range records {
		chosen := LabelUnknown
		if v1 := strings.TrimSpace(r.String(domain.ColVehicle1)); knownCategory(v1) {
			chosen = v1
		} else if v2 := strings.TrimSpace(r.String(domain.ColVehicle2)); knownCategory(v2) {
			chosen = v2
		}

		if len(selected) > 0 {
			if _, ok := filterSet[chosen]; !ok {
				chosen = LabelOther
			}
		}
		c.add(chosen, 1)
	}

	entries := c.sorted()
	if len(entries) > maxSlices {
		other := 0
		for _, e := range entries[maxSlices-1:] {
			other += e.Count
		}
		entries = append(entries[:maxSlices-1:maxSlices-1], domain.CategoryCount{Label: LabelOther, Count: other})
	}

	out := entries[:0]
	for _, e := range entries {
		if e.Count > 0 {
			out = append(out, e)
		}
	}
	return out
}
