package echarts

import (
	"fmt"
	"html/template"
	"io"

	"github.com/go-echarts/go-echarts/v2/render"

	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/core/usecases"
)

// DashboardData is every aggregate shown on the dashboard page.
type DashboardData struct {
	Summary  domain.Summary
	Borough  []domain.CategoryCount
	Factors  []domain.CategoryCount
	Vehicles []domain.CategoryCount
	Timeline domain.MonthlySeries
	Heatmap  domain.Heatmap
	Map      domain.MapView
}

type statCard struct {
	Label string
	Value string
}

type chartBlock struct {
	Name    string
	Element template.HTML
	Script  template.HTML
}

type dashboardPage struct {
	Title      string
	AssetsHost string
	Theme      string
	Cards      []statCard
	Active     []usecases.ActiveFilter
	Counts     map[string]int
	Search     string
	Charts     []chartBlock
}

var dashboardTpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.AssetsHost}}echarts.min.js"></script>
<style>
body { font-family: sans-serif; margin: 0; background: {{if eq .Theme "dark"}}#100c2a; color: #eee{{else}}#fff; color: #222{{end}}; }
header { padding: 16px 24px; }
.cards { display: flex; gap: 12px; flex-wrap: wrap; padding: 0 24px; }
.card { border: 1px solid #444; border-radius: 6px; padding: 12px 16px; min-width: 140px; }
.card .v { font-size: 1.6em; font-weight: bold; }
.chips { padding: 8px 24px; }
.chip { display: inline-block; border-radius: 12px; padding: 2px 10px; margin: 2px; background: #3a3f6b; }
.grid { display: flex; flex-wrap: wrap; padding: 12px; }
.chart { flex: 1 1 560px; padding: 12px; }
.chart.wide { flex-basis: 100%; }
</style>
</head>
<body>
<header><h1>{{.Title}}</h1></header>
<section class="cards">
{{- range .Cards}}
<div class="card"><div class="l">{{.Label}}</div><div class="v">{{.Value}}</div></div>
{{- end}}
</section>
<section class="chips">
{{- range $k, $v := .Counts}}{{if $v}}<span class="count">{{$k}} ({{$v}})</span> {{end}}{{end}}
{{- if .Search}}<span class="chip">search: {{.Search}}</span>{{end}}
{{- range .Active}}<span class="chip">{{.Key}}: {{.Value}}</span>{{end}}
{{- if and (not .Active) (not .Search)}}<span>No filters applied</span>{{end}}
</section>
<section class="grid">
{{- range .Charts}}
<div class="chart{{if or (eq .Name "map") (eq .Name "timeline")}} wide{{end}}">{{.Element}}</div>
{{- end}}
</section>
{{- range .Charts}}
{{.Script}}
{{- end}}
</body>
</html>
`))

// Dashboard writes the full dashboard page: stat cards, the active filters
// held in state, and every chart.
func (r *Renderer) Dashboard(w io.Writer, state *usecases.DashboardState, data DashboardData) error {
	filters := state.Filters()
	page := dashboardPage{
		Title:      "NYC Motor Vehicle Collisions",
		AssetsHost: r.assetsHost,
		Theme:      r.theme,
		Cards:      summaryCards(data.Summary),
		Active:     state.Active(),
		Counts:     state.Counts(),
		Search:     filters.Search,
	}

	blocks := []struct {
		name  string
		chart render.Renderer
	}{
		{usecases.ChartBorough, r.Borough(data.Borough)},
		{usecases.ChartVehicles, r.Vehicles(data.Vehicles)},
		{usecases.ChartTimeline, r.Timeline(data.Timeline)},
		{usecases.ChartFactors, r.Factors(data.Factors)},
		{usecases.ChartHeatmap, r.Heatmap(data.Heatmap)},
		{usecases.ChartMap, r.Map(data.Map)},
	}
	for _, b := range blocks {
		snippet := b.chart.RenderSnippet()
		page.Charts = append(page.Charts, chartBlock{
			Name:    b.name,
			Element: template.HTML(snippet.Element),
			Script:  template.HTML(snippet.Script),
		})
	}

	if err := dashboardTpl.Execute(w, page); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

func summaryCards(s domain.Summary) []statCard {
	return []statCard{
		{Label: "Rows", Value: formatInt(s.Rows)},
		{Label: "Unique Collisions", Value: formatInt(s.UniqueCollisions)},
		{Label: "Injured", Value: formatInt(s.Injured)},
		{Label: "Killed", Value: formatInt(s.Killed)},
		{Label: "Avg Crashes / Month", Value: fmt.Sprintf("%.1f ± %.1f", s.MonthlyMean, s.MonthlyStdDev)},
	}
}

// formatInt renders n with thousands separators.
func formatInt(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}
