package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// #region aggregator

// GroupKey identifies one scenario-composition cell of the study grid.
type GroupKey struct {
	Scenario    string
	Composition string
}

// GroupSummary is the cross-run statistics for one cell.
type GroupSummary struct {
	Key              GroupKey
	Runs             int
	AvgSpeedMean     float64
	AvgSpeedStd      float64
	CollisionsMean   float64
	TTCEventsMean    float64
	AccelStdMean     float64
	MergeSuccessMean float64
}

// Aggregator groups run summaries across the study grid.
type Aggregator struct {
	runs map[GroupKey][]RunMetrics
}

// NewAggregator builds an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{runs: make(map[GroupKey][]RunMetrics)}
}

// Add records one completed run under its grid cell.
func (a *Aggregator) Add(key GroupKey, m RunMetrics) {
	a.runs[key] = append(a.runs[key], m)
}

// Summaries reduces every cell, ordered by scenario then composition.
func (a *Aggregator) Summaries() []GroupSummary {
	keys := make([]GroupKey, 0, len(a.runs))
	for k := range a.runs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Scenario != keys[j].Scenario {
			return keys[i].Scenario < keys[j].Scenario
		}
		return keys[i].Composition < keys[j].Composition
	})

	out := make([]GroupSummary, 0, len(keys))
	for _, k := range keys {
		runs := a.runs[k]
		speeds := make([]float64, len(runs))
		collisions := make([]float64, len(runs))
		ttcs := make([]float64, len(runs))
		accels := make([]float64, len(runs))
		merges := make([]float64, len(runs))
		for i, r := range runs {
			speeds[i] = r.AvgSpeed
			collisions[i] = float64(r.TotalCollisions)
			ttcs[i] = float64(r.TTCEventCount)
			accels[i] = r.AccelStd
			merges[i] = r.MergeSuccessRate
		}
		s := GroupSummary{
			Key:              k,
			Runs:             len(runs),
			AvgSpeedMean:     stat.Mean(speeds, nil),
			CollisionsMean:   stat.Mean(collisions, nil),
			TTCEventsMean:    stat.Mean(ttcs, nil),
			AccelStdMean:     stat.Mean(accels, nil),
			MergeSuccessMean: stat.Mean(merges, nil),
		}
		if len(runs) > 1 {
			s.AvgSpeedStd = stat.StdDev(speeds, nil)
		}
		out = append(out, s)
	}
	return out
}

// #endregion aggregator

// #region csv

// WriteCSV emits every cell's summary in the study result layout.
func (a *Aggregator) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{
		"scenario", "composition", "runs",
		"avg_speed_mean", "avg_speed_std",
		"collisions_mean", "ttc_events_mean",
		"acceleration_std_mean", "merge_success_mean",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range a.Summaries() {
		row := []string{
			s.Key.Scenario,
			s.Key.Composition,
			fmt.Sprintf("%d", s.Runs),
			num(s.AvgSpeedMean),
			num(s.AvgSpeedStd),
			num(s.CollisionsMean),
			num(s.TTCEventsMean),
			num(s.AccelStdMean),
			num(s.MergeSuccessMean),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%.4f", v)
}

// #endregion csv
