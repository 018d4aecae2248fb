package dashboard

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// CurrentChartHTML renders the pack current history as a standalone HTML line
// chart, oldest sample on the left.
func CurrentChartHTML(history []float64, dark bool) (string, error) {
	line := charts.NewLine()

	theme := types.ThemeWesteros
	if dark {
		theme = types.ThemeChalk
	}
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Pack current", Theme: theme}),
		charts.WithTitleOpts(opts.Title{Title: "Pack Current"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Sample"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Current (A)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	xAxis := make([]string, len(history))
	yAxis := make([]opts.LineData, len(history))
	for i, v := range history {
		xAxis[i] = strconv.Itoa(i + 1)
		yAxis[i] = opts.LineData{Value: v}
	}
	line.SetXAxis(xAxis).AddSeries("Current", yAxis,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.String(), nil
}

// NewChartHandler serves the current history chart via GET /api/chart/current.
func NewChartHandler(src StateSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := src.Snapshot()
		html, err := CurrentChartHTML(s.CurrentHistory, s.Preferences.DarkMode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	})
}
