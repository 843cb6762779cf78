package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// MonthNames label the heatmap columns.
var MonthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// HeatmapBoroughs are the heatmap rows. Other borough spellings are not
// counted.
var HeatmapBoroughs = []string{"Brooklyn", "Queens", "Manhattan", "Bronx", "Staten Island", LabelUnknown}

// numeric reads a count column; blanks and garbage read as absent.
func numeric(r domain.Record, key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return 0, false
	}
	return r.Float(key)
}

// Monthly buckets rows by YYYY-MM of crash_datetime. Injuries and deaths
// come from the crash-level count columns when the slice carries any;
// otherwise each person_injury row mentioning an injury or death counts once.
func Monthly(records []domain.Record) domain.MonthlySeries {
	var injuredSum, killedSum float64
	for _, r := range records {
		if v, ok := numeric(r, domain.ColInjured); ok {
			injuredSum += v
		}
		if v, ok := numeric(r, domain.ColKilled); ok {
			killedSum += v
		}
	}
	crashLevel := injuredSum > 0 || killedSum > 0

	crashes := make(map[string]int)
	injured := make(map[string]float64)
	killed := make(map[string]float64)

	for _, r := range records {
		t, ok := r.CrashTime()
		if !ok {
			continue
		}
		key := fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
		crashes[key]++

		if crashLevel {
			if v, ok := numeric(r, domain.ColInjured); ok {
				injured[key] += v
			}
			if v, ok := numeric(r, domain.ColKilled); ok {
				killed[key] += v
			}
			continue
		}

		pi := strings.ToLower(r.String(domain.ColPersonInjury))
		if pi == "" {
			continue
		}
		if strings.Contains(pi, "injur") {
			injured[key]++
		}
		if strings.Contains(pi, "kill") || strings.Contains(pi, "death") {
			killed[key]++
		}
	}

	months := make([]string, 0, len(crashes))
	for k := range crashes {
		months = append(months, k)
	}
	sort.Strings(months)

	series := domain.MonthlySeries{
		Months:  months,
		Crashes: make([]int, len(months)),
		Injured: make([]float64, len(months)),
		Killed:  make([]float64, len(months)),
	}
	for i, m := range months {
		series.Crashes[i] = crashes[m]
		series.Injured[i] = injured[m]
		series.Killed[i] = killed[m]
	}
	return series
}

// Heatmap counts rows per fixed borough and calendar month.
func Heatmap(records []domain.Record) domain.Heatmap {
	rowIdx := make(map[string]int, len(HeatmapBoroughs))
	z := make([][]int, len(HeatmapBoroughs))
	for i, b := range HeatmapBoroughs {
		rowIdx[b] = i
		z[i] = make([]int, len(MonthNames))
	}

	for _, r := range records {
		t, ok := r.CrashTime()
		if !ok {
			continue
		}
		b := r.String(domain.ColBorough)
		if b == "" {
			b = LabelUnknown
		}
		if i, ok := rowIdx[b]; ok {
			z[i][int(t.Month())-1]++
		}
	}

	return domain.Heatmap{
		Rows:    append([]string(nil), HeatmapBoroughs...),
		Columns: append([]string(nil), MonthNames...),
		Z:       z,
	}
}

// Summary fills the stat cards. Injured and killed count person rows whose
// person_injury is exactly that outcome.
func Summary(records []domain.Record) domain.Summary {
	s := domain.Summary{Rows: len(records)}

	ids := make(map[string]struct{})
	for _, r := range records {
		id := "\x00missing"
		if v, ok := r[domain.ColCollisionID]; ok && v != nil {
			id = domain.Stringify(v)
		}
		ids[id] = struct{}{}

		switch strings.ToLower(r.String(domain.ColPersonInjury)) {
		case "injured":
			s.Injured++
		case "killed":
			s.Killed++
		}
	}
	s.UniqueCollisions = len(ids)

	monthly := Monthly(records)
	if n := len(monthly.Crashes); n > 0 {
		xs := make([]float64, n)
		for i, c := range monthly.Crashes {
			xs[i] = float64(c)
		}
		if n == 1 {
			s.MonthlyMean = xs[0]
		} else {
			s.MonthlyMean, s.MonthlyStdDev = stat.MeanStdDev(xs, nil)
		}
	}
	return s
}
