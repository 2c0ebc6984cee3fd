// Package report renders the study comparison as a self-contained HTML page:
// one bar chart per headline metric, cells grouped by scenario and
// composition.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/metrics"
)

// #region render

// Render writes the comparison page for the aggregated study results.
func Render(w io.Writer, summaries []metrics.GroupSummary) error {
	page := components.NewPage()
	page.PageTitle = "Social Law Study"

	page.AddCharts(
		barChart("Average Speed (m/s)", summaries, func(s metrics.GroupSummary) float64 { return s.AvgSpeedMean }),
		barChart("Collisions per Run", summaries, func(s metrics.GroupSummary) float64 { return s.CollisionsMean }),
		barChart("Close TTC Events per Run", summaries, func(s metrics.GroupSummary) float64 { return s.TTCEventsMean }),
		barChart("Acceleration Std (flow stability)", summaries, func(s metrics.GroupSummary) float64 { return s.AccelStdMean }),
		barChart("Merge Success Rate", summaries, func(s metrics.GroupSummary) float64 { return s.MergeSuccessMean }),
	)
	return page.Render(w)
}

// RenderFile renders the comparison page to a file path.
func RenderFile(path string, summaries []metrics.GroupSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer f.Close()
	if err := Render(f, summaries); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// barChart builds one metric's bar chart with a series per scenario and a
// category per composition.
func barChart(title string, summaries []metrics.GroupSummary, value func(metrics.GroupSummary) float64) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	compositions := orderedCompositions(summaries)
	bar.SetXAxis(compositions)

	for _, scenario := range orderedScenarios(summaries) {
		data := make([]opts.BarData, len(compositions))
		for i, comp := range compositions {
			for _, s := range summaries {
				if s.Key.Scenario == scenario && s.Key.Composition == comp {
					data[i] = opts.BarData{Value: value(s)}
				}
			}
		}
		bar.AddSeries(scenario, data)
	}
	return bar
}

func orderedScenarios(summaries []metrics.GroupSummary) []string {
	return uniqueInOrder(summaries, func(s metrics.GroupSummary) string { return s.Key.Scenario })
}

func orderedCompositions(summaries []metrics.GroupSummary) []string {
	return uniqueInOrder(summaries, func(s metrics.GroupSummary) string { return s.Key.Composition })
}

func uniqueInOrder(summaries []metrics.GroupSummary, key func(metrics.GroupSummary) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range summaries {
		k := key(s)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// #endregion render
