package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/results"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to study.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/study.db [--last N] [--run id] [--json]")
		os.Exit(2)
	}

	store, err := results.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		err = runDetailMode(store, *runID, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID       string    `json:"run_id"`
	Scenario    string    `json:"scenario"`
	Composition string    `json:"composition"`
	Seed        int64     `json:"seed"`
	Steps       int       `json:"steps"`
	CreatedAt   time.Time `json:"created_at"`
}

func runListMode(store *results.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[i] = listRow{
			RunID:       r.RunID,
			Scenario:    r.Scenario,
			Composition: r.Composition,
			Seed:        r.Seed,
			Steps:       r.Steps,
			CreatedAt:   r.CreatedAt,
		}
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Printf("%-38s| %-9s| %-26s| %-6s| %-7s| %s\n",
		"Run", "Scenario", "Composition", "Seed", "Steps", "Created")
	for _, row := range rows {
		fmt.Printf("%-38s| %-9s| %-26s| %-6d| %-7d| %s\n",
			row.RunID, row.Scenario, row.Composition, row.Seed, row.Steps,
			row.CreatedAt.Format(time.RFC3339))
	}
	fmt.Printf("%d runs\n", len(rows))
	return nil
}

// #endregion list-mode

// #region detail-mode

// detailRow flattens run metrics for JSON output. Infinite TTC values are
// omitted rather than emitted, matching their NULL storage.
type detailRow struct {
	RunID            string   `json:"run_id"`
	AvgSpeed         float64  `json:"avg_speed"`
	SpeedStd         float64  `json:"speed_std"`
	AccelStd         float64  `json:"accel_std"`
	TotalCollisions  int      `json:"total_collisions"`
	TTCEventCount    int      `json:"ttc_event_count"`
	MinTTC           *float64 `json:"min_ttc,omitempty"`
	AvgTTC           *float64 `json:"avg_ttc,omitempty"`
	MergeAttempts    int      `json:"merge_attempts"`
	MergeSuccessRate float64  `json:"merge_success_rate"`
	Steps            int      `json:"steps"`
}

func runDetailMode(store *results.Store, runID string, jsonOut bool) error {
	m, err := store.GetMetrics(runID)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(detailRow{
			RunID:            runID,
			AvgSpeed:         m.AvgSpeed,
			SpeedStd:         m.SpeedStd,
			AccelStd:         m.AccelStd,
			TotalCollisions:  m.TotalCollisions,
			TTCEventCount:    m.TTCEventCount,
			MinTTC:           finitePtr(m.MinTTC),
			AvgTTC:           finitePtr(m.AvgTTC),
			MergeAttempts:    m.MergeAttempts,
			MergeSuccessRate: m.MergeSuccessRate,
			Steps:            m.Steps,
		})
	}

	fmt.Printf("Run %s\n", runID)
	fmt.Printf("  avg speed:          %.3f m/s (std %.3f)\n", m.AvgSpeed, m.SpeedStd)
	fmt.Printf("  accel std:          %.3f m/s^2\n", m.AccelStd)
	fmt.Printf("  collisions:         %d\n", m.TotalCollisions)
	fmt.Printf("  close TTC events:   %d\n", m.TTCEventCount)
	fmt.Printf("  min TTC:            %s\n", ttc(m.MinTTC))
	fmt.Printf("  avg TTC:            %s\n", ttc(m.AvgTTC))
	fmt.Printf("  merge attempts:     %d\n", m.MergeAttempts)
	fmt.Printf("  merge success rate: %.2f\n", m.MergeSuccessRate)
	fmt.Printf("  steps:              %d\n", m.Steps)
	return nil
}

func ttc(v float64) string {
	if math.IsInf(v, 1) {
		return "none"
	}
	return fmt.Sprintf("%.3f s", v)
}

func finitePtr(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// #endregion detail-mode
