// Package echarts renders dashboard charts server-side with go-echarts.
package echarts

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"

	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/core/geo"
)

// DefaultAssetsHost serves echarts.min.js when no host is configured.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var heatmapPalette = []string{"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#b10026"}

// Renderer builds go-echarts charts from aggregate results.
type Renderer struct {
	assetsHost string
	theme      string
}

// NewRenderer creates a Renderer. Empty values fall back to the public
// assets host and the dark theme.
func NewRenderer(assetsHost, theme string) *Renderer {
	if assetsHost == "" {
		assetsHost = DefaultAssetsHost
	}
	if theme == "" {
		theme = "dark"
	}
	return &Renderer{assetsHost: assetsHost, theme: theme}
}

// AssetsHost returns the host echarts.min.js is loaded from.
func (r *Renderer) AssetsHost() string { return r.assetsHost }

func (r *Renderer) init(title, height string) opts.Initialization {
	return opts.Initialization{
		PageTitle:  title,
		Theme:      r.theme,
		Width:      "100%",
		Height:     height,
		AssetsHost: r.assetsHost,
	}
}

// Render writes a standalone HTML page for one chart.
func Render(w io.Writer, chart render.Renderer) error {
	if err := chart.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func labelsAndBars(counts []domain.CategoryCount) ([]string, []opts.BarData) {
	labels := make([]string, len(counts))
	bars := make([]opts.BarData, len(counts))
	for i, c := range counts {
		labels[i] = c.Label
		bars[i] = opts.BarData{Name: c.Label, Value: c.Count}
	}
	return labels, bars
}

// Borough renders crashes per borough as a vertical bar chart.
func (r *Renderer) Borough(counts []domain.CategoryCount) *charts.Bar {
	labels, bars := labelsAndBars(counts)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(r.init("Crashes by Borough", "420px")),
		charts.WithTitleOpts(opts.Title{Title: "Crashes by Borough"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Crashes"}),
	)
	bar.SetXAxis(labels).
		AddSeries("crashes", bars,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#5470c6"}),
		)
	return bar
}

// Factors renders the top contributing factors as a horizontal bar chart,
// most frequent at the top.
func (r *Renderer) Factors(counts []domain.CategoryCount) *charts.Bar {
	reversed := make([]domain.CategoryCount, len(counts))
	for i, c := range counts {
		reversed[len(counts)-1-i] = c
	}
	labels, bars := labelsAndBars(reversed)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(r.init("Top Contributing Factors", "480px")),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Top %d Contributing Factors", len(counts))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithGridOpts(opts.Grid{Left: "30%"}),
	)
	bar.SetXAxis(labels).
		AddSeries("crashes", bars,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#91cc75"}),
		).
		XYReversal()
	return bar
}

// Vehicles renders the vehicle-type share as a donut chart.
func (r *Renderer) Vehicles(counts []domain.CategoryCount) *charts.Pie {
	slices := make([]opts.PieData, len(counts))
	for i, c := range counts {
		slices[i] = opts.PieData{Name: c.Label, Value: c.Count}
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(r.init("Vehicle Types", "420px")),
		charts.WithTitleOpts(opts.Title{Title: "Vehicle Types"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	pie.AddSeries("vehicles", slices,
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
	)
	return pie
}

// Timeline renders monthly crashes, injuries and fatalities.
func (r *Renderer) Timeline(series domain.MonthlySeries) *charts.Line {
	crashes := make([]opts.LineData, len(series.Months))
	injured := make([]opts.LineData, len(series.Months))
	killed := make([]opts.LineData, len(series.Months))
	for i := range series.Months {
		crashes[i] = opts.LineData{Value: series.Crashes[i]}
		injured[i] = opts.LineData{Value: series.Injured[i]}
		killed[i] = opts.LineData{Value: series.Killed[i]}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(r.init("Crashes Over Time", "420px")),
		charts.WithTitleOpts(opts.Title{Title: "Crashes Over Time"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(series.Months).
		AddSeries("Crashes", crashes, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#5470c6"})).
		AddSeries("Injured", injured, charts.WithItemStyleOpts(opts.ItemStyle{Color: geo.ColorInjured})).
		AddSeries("Killed", killed, charts.WithItemStyleOpts(opts.ItemStyle{Color: geo.ColorKilled}))
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

// Heatmap renders the borough-by-month crash matrix.
func (r *Renderer) Heatmap(h domain.Heatmap) *charts.HeatMap {
	cells := make([]opts.HeatMapData, 0, len(h.Rows)*len(h.Columns))
	max := 0
	for i := range h.Rows {
		for j := range h.Columns {
			z := h.Z[i][j]
			if z > max {
				max = z
			}
			cells = append(cells, opts.HeatMapData{Value: [3]int{j, i, z}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(r.init("Crash Heatmap", "420px")),
		charts.WithTitleOpts(opts.Title{Title: "Crashes by Borough and Month"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: h.Columns, SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: h.Rows, SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(max),
			Orient:     "horizontal",
			Left:       "center",
			Bottom:     "0",
			InRange:    &opts.VisualMapInRange{Color: heatmapPalette},
		}),
	)
	hm.SetXAxis(h.Columns).AddSeries("crashes", cells,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}),
	)
	return hm
}

// mapSeries splits resolved markers by color so each series carries one
// item style.
type mapSeries struct {
	name  string
	color string
	data  []opts.ScatterData
}

// Map renders resolved crash locations on a lon/lat scatter. Marker size
// and color follow the severity of the crash; labels are drawn only when
// the view asks for them.
func (r *Renderer) Map(view domain.MapView) *charts.Scatter {
	series := []*mapSeries{
		{name: "Fatal", color: geo.ColorKilled},
		{name: "Injury", color: geo.ColorInjured},
		{name: "No injury", color: geo.ColorNone},
	}
	byColor := make(map[string]*mapSeries, len(series))
	for _, s := range series {
		byColor[s.color] = s
	}

	for i := range view.Lat {
		s, ok := byColor[view.Colors[i]]
		if !ok {
			s = series[len(series)-1]
		}
		s.data = append(s.data, opts.ScatterData{
			Value:      []any{view.Lon[i], view.Lat[i], view.Labels[i], view.Text[i]},
			SymbolSize: view.Sizes[i],
		})
	}

	subtitle := fmt.Sprintf("%s of %s records plotted",
		strconv.Itoa(view.TotalPoints), strconv.Itoa(view.TotalData))

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(r.init("Crash Locations", "640px")),
		charts.WithTitleOpts(opts.Title{Title: "Crash Locations", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "item",
			Formatter: opts.FuncOpts("function (p) { return p.value[3]; }"),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", Type: "value", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", Type: "value", Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "inside", XAxisIndex: []int{0}},
			opts.DataZoom{Type: "inside", YAxisIndex: []int{0}},
		),
	)

	label := opts.Label{Show: opts.Bool(view.ShowLabels), Position: "right", FontSize: 9}
	if view.ShowLabels {
		label.Formatter = opts.FuncOpts("function (p) { return p.value[2]; }")
	}
	for _, s := range series {
		if len(s.data) == 0 {
			continue
		}
		scatter.AddSeries(s.name, s.data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.color, Opacity: opts.Float(0.8)}),
			charts.WithLabelOpts(label),
		)
	}
	return scatter
}

// Chart builds the named chart from the aggregates in data.
func (r *Renderer) Chart(name string, data DashboardData) (render.Renderer, error) {
	switch name {
	case "borough":
		return r.Borough(data.Borough), nil
	case "factors":
		return r.Factors(data.Factors), nil
	case "vehicles":
		return r.Vehicles(data.Vehicles), nil
	case "timeline":
		return r.Timeline(data.Timeline), nil
	case "heatmap":
		return r.Heatmap(data.Heatmap), nil
	case "map":
		return r.Map(data.Map), nil
	}
	return nil, fmt.Errorf("unknown chart %q", name)
}
