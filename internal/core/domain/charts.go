package domain

// CategoryCount is one bar or pie slice.
type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MonthlySeries holds crash, injury and fatality totals per YYYY-MM.
type MonthlySeries struct {
	Months  []string  `json:"months"`
	Crashes []int     `json:"crashes"`
	Injured []float64 `json:"injured"`
	Killed  []float64 `json:"killed"`
}

// Heatmap is a borough-by-month crash count matrix. Z[i][j] is the count
// for Rows[i] in Columns[j].
type Heatmap struct {
	Rows    []string `json:"y"`
	Columns []string `json:"x"`
	Z       [][]int  `json:"z"`
}

// Summary backs the dashboard's stat cards.
type Summary struct {
	Rows             int     `json:"rows"`
	UniqueCollisions int     `json:"unique_collisions"`
	Injured          int     `json:"injured"`
	Killed           int     `json:"killed"`
	MonthlyMean      float64 `json:"monthly_mean"`
	MonthlyStdDev    float64 `json:"monthly_std_dev"`
}
