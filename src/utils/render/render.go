package render

import (
	"fmt"
	"io"

	"portfolio/src/schemas"
	"portfolio/src/utils"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// NewPortfolioLine builds the line chart of the portfolio's daily totals.
// Dates on the x axis are formatted with dateLayout.
func NewPortfolioLine(title string, totals []schemas.DailyTotal, dateLayout string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithAnimation(false),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			SplitLine: &opts.SplitLine{Show: opts.Bool(true)},
		}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "1100px",
			Height:    "600px",
		}),
	)

	labels := make([]string, len(totals))
	items := make([]opts.LineData, len(totals))
	for i, t := range totals {
		labels[i] = t.Date.Format(dateLayout)
		items[i] = opts.LineData{Name: labels[i], Value: fmt.Sprintf("%.2f", t.Total)}
	}

	line.SetXAxis(labels).AddSeries("Total", items,
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.2)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: utils.GetChartColor(0)}),
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
	)
	return line
}

// RenderPortfolioChart writes the daily totals chart as a standalone HTML page.
func RenderPortfolioChart(w io.Writer, title string, totals []schemas.DailyTotal, dateLayout string) error {
	if dateLayout == "" {
		return fmt.Errorf("a date layout is required to label the chart")
	}
	if err := NewPortfolioLine(title, totals, dateLayout).Render(w); err != nil {
		return fmt.Errorf("failed to render portfolio chart: %w", err)
	}
	return nil
}
