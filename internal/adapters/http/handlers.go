package http

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/crashlens/internal/adapters/echarts"
	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/core/usecases"
)

// DataResponse is the body of POST /api/data.
type DataResponse struct {
	Count int             `json:"count"`
	Data  []domain.Record `json:"data"`
}

// FilterOptionsHandler returns the dropdown choices of the loaded dataset.
func FilterOptionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts, err := deps.Dataset.Options(c.UserContext())
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(opts)
	}
}

// DataHandler returns every record matching the posted filters.
func DataHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filtersFromBody(c)
		if err != nil {
			return errBadRequest(c, "invalid filter body: "+err.Error())
		}

		res, err := deps.Dataset.Query(c.UserContext(), f)
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(DataResponse{Count: len(res.Records), Data: res.Records})
	}
}

// RecordsHandler pages through filtered records. Filters come from the
// query string.
func RecordsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 1000 {
			limit = 100
		}

		records, total, err := deps.Dataset.Page(c.UserContext(), filtersFromQuery(c), offset, limit)
		if err != nil {
			return errService(c, err)
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: records, Pagination: pg})
	}
}

// MapHandler resolves the filtered records into map markers.
func MapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		maxPoints, ok := maxPointsParam(c)
		if !ok {
			return errBadRequest(c, "max_points must be between 0 and 20000")
		}
		f, err := filtersFromBody(c)
		if err != nil {
			return errBadRequest(c, "invalid filter body: "+err.Error())
		}

		view, err := deps.Maps.View(c.UserContext(), f, maxPoints)
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(view)
	}
}

// NearbyHandler returns resolved crash points within a radius of a location.
func NearbyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 500)
		limit := c.QueryInt("limit", 50)

		if lat == 0 || lon == 0 {
			return errBadRequest(c, "lat and lon are required")
		}
		if radius <= 0 || radius > 5000 {
			return errBadRequest(c, "radius must be between 1 and 5000 meters")
		}

		points, err := deps.Maps.Nearby(c.UserContext(), filtersFromQuery(c), lat, lon, radius, limit)
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(points)
	}
}

// ChartHandler returns the JSON series for one chart.
func ChartHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("name")
		f, err := filtersFromBody(c)
		if err != nil {
			return errBadRequest(c, "invalid filter body: "+err.Error())
		}

		ctx := c.UserContext()
		var result any
		switch name {
		case usecases.ChartBorough:
			result, err = deps.Charts.Borough(ctx, f)
		case usecases.ChartFactors:
			result, err = deps.Charts.Factors(ctx, f, c.QueryInt("n", 10))
		case usecases.ChartVehicles:
			result, err = deps.Charts.Vehicles(ctx, f)
		case usecases.ChartTimeline:
			result, err = deps.Charts.Timeline(ctx, f)
		case usecases.ChartHeatmap:
			result, err = deps.Charts.Heatmap(ctx, f)
		case usecases.ChartSummary:
			result, err = deps.Charts.Summary(ctx, f)
		default:
			return errNotFound(c, "unknown chart: "+name)
		}
		if err != nil {
			return errService(c, err)
		}
		return c.JSON(result)
	}
}

// DashboardHandler renders the full HTML dashboard for the filters in the
// query string.
func DashboardHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		state := stateFromQuery(c)

		opts, err := deps.Dataset.Options(ctx)
		if err != nil {
			return errService(c, err)
		}
		state.SetOptions(opts)

		f := state.Filters()
		res, err := deps.Dataset.Query(ctx, f)
		if err != nil {
			return errService(c, err)
		}
		state.SetData(res.Records)

		var data echarts.DashboardData
		for _, name := range usecases.ChartNames {
			if err := loadChart(c, deps, name, f, &data); err != nil {
				return errService(c, err)
			}
		}

		var buf bytes.Buffer
		if err := deps.Renderer.Dashboard(&buf, state, data); err != nil {
			return errInternal(c, err.Error())
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	}
}

// ChartPageHandler renders one chart as a standalone HTML page.
func ChartPageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("name")
		if name == usecases.ChartSummary {
			return errNotFound(c, "summary has no chart page")
		}

		var data echarts.DashboardData
		if err := loadChart(c, deps, name, filtersFromQuery(c), &data); err != nil {
			return errService(c, err)
		}
		chart, err := deps.Renderer.Chart(name, data)
		if err != nil {
			return errNotFound(c, err.Error())
		}

		var buf bytes.Buffer
		if err := echarts.Render(&buf, chart); err != nil {
			return errInternal(c, err.Error())
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	}
}

// loadChart computes the aggregate behind one chart into data. Unknown
// names leave data untouched.
func loadChart(c *fiber.Ctx, deps *Dependencies, name string, f domain.Filters, data *echarts.DashboardData) error {
	ctx := c.UserContext()
	var err error
	switch name {
	case usecases.ChartSummary:
		data.Summary, err = deps.Charts.Summary(ctx, f)
	case usecases.ChartBorough:
		data.Borough, err = deps.Charts.Borough(ctx, f)
	case usecases.ChartFactors:
		data.Factors, err = deps.Charts.Factors(ctx, f, c.QueryInt("n", 10))
	case usecases.ChartVehicles:
		data.Vehicles, err = deps.Charts.Vehicles(ctx, f)
	case usecases.ChartTimeline:
		data.Timeline, err = deps.Charts.Timeline(ctx, f)
	case usecases.ChartHeatmap:
		data.Heatmap, err = deps.Charts.Heatmap(ctx, f)
	case usecases.ChartMap:
		maxPoints, ok := maxPointsParam(c)
		if !ok {
			maxPoints = 0
		}
		data.Map, err = deps.Maps.View(ctx, f, maxPoints)
	}
	return err
}
