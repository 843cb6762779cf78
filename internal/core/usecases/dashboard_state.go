package usecases

import (
	"slices"
	"sync"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// ActiveFilter is one selected dropdown value.
type ActiveFilter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DashboardState holds one dashboard's filter selections, dropdown options
// and last fetched records. Renderers receive it by pointer.
type DashboardState struct {
	mu      sync.RWMutex
	filters domain.Filters
	options domain.FilterOptions
	data    []domain.Record
}

// NewDashboardState returns an empty state.
func NewDashboardState() *DashboardState {
	return &DashboardState{}
}

// Toggle adds value to the selection for key, or removes it when already
// selected. Unknown keys are ignored.
func (s *DashboardState) Toggle(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.filters.List(key)
	if i := slices.Index(current, value); i >= 0 {
		s.filters.SetList(key, slices.Delete(slices.Clone(current), i, i+1))
		return
	}
	s.filters.SetList(key, append(slices.Clone(current), value))
}

// Remove drops value from the selection for key.
func (s *DashboardState) Remove(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.filters.List(key)
	if i := slices.Index(current, value); i >= 0 {
		s.filters.SetList(key, slices.Delete(slices.Clone(current), i, i+1))
	}
}

// ClearAll empties every selection and the search text.
func (s *DashboardState) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = domain.Filters{}
}

// SetSearch replaces the free-text search.
func (s *DashboardState) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Search = text
}

// SetOptions stores the dropdown choices.
func (s *DashboardState) SetOptions(opts domain.FilterOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = opts
}

// SetData stores the records of the last query.
func (s *DashboardState) SetData(records []domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = records
}

// Filters returns a copy of the current selections.
func (s *DashboardState) Filters() domain.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := domain.Filters{Search: s.filters.Search}
	for _, k := range domain.FilterKeys {
		if l := s.filters.List(k); len(l) > 0 {
			out.SetList(k, slices.Clone(l))
		}
	}
	return out
}

// Options returns the stored dropdown choices.
func (s *DashboardState) Options() domain.FilterOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options
}

// Data returns the stored records.
func (s *DashboardState) Data() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Counts returns the number of selected values per filter key.
func (s *DashboardState) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(domain.FilterKeys))
	for _, k := range domain.FilterKeys {
		counts[k] = len(s.filters.List(k))
	}
	return counts
}

// Active lists every selected value in filter-key order.
func (s *DashboardState) Active() []ActiveFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ActiveFilter
	for _, k := range domain.FilterKeys {
		for _, v := range s.filters.List(k) {
			out = append(out, ActiveFilter{Key: k, Value: v})
		}
	}
	return out
}
