package http

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/core/usecases"
)

// filtersFromBody decodes a JSON filter body. An empty body selects
// everything.
func filtersFromBody(c *fiber.Ctx) (domain.Filters, error) {
	var f domain.Filters
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return f, nil
	}
	err := json.Unmarshal(body, &f)
	return f, err
}

// filtersFromQuery reads repeated query keys, e.g.
// ?borough=QUEENS&borough=BRONX&search=bike.
func filtersFromQuery(c *fiber.Ctx) domain.Filters {
	f := domain.Filters{Search: strings.TrimSpace(c.Query("search"))}
	args := c.Context().QueryArgs()
	for _, key := range domain.FilterKeys {
		var values domain.StringList
		for _, v := range args.PeekMulti(key) {
			if s := strings.TrimSpace(string(v)); s != "" && !slices.Contains(values, s) {
				values = append(values, s)
			}
		}
		f.SetList(key, values)
	}
	return f
}

// stateFromQuery builds the dashboard state for one page render.
func stateFromQuery(c *fiber.Ctx) *usecases.DashboardState {
	state := usecases.NewDashboardState()
	f := filtersFromQuery(c)
	for _, key := range domain.FilterKeys {
		for _, v := range f.List(key) {
			state.Toggle(key, v)
		}
	}
	state.SetSearch(f.Search)
	return state
}

// maxPointsParam reads max_points; 0 keeps the configured default.
func maxPointsParam(c *fiber.Ctx) (int, bool) {
	n := c.QueryInt("max_points", 0)
	return n, n >= 0 && n <= maxPointsLimit
}

const maxPointsLimit = 20000
