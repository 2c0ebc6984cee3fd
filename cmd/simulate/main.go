package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/compose"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/config"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/laws"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/logging"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/metrics"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/report"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/results"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/sim"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/telemetry"
)

// #region main

func main() {
	configPath := flag.String("config", "", "study config YAML (built-in defaults when empty)")
	scenarios := flag.String("scenarios", "highway,merge", "comma-separated scenarios to run")
	compositions := flag.String("compositions", "selfish,cooperative,mixed",
		"comma-separated compositions; ablation:<law> runs a single-law fleet")
	ablationAll := flag.Bool("ablation-all", false, "append one ablation composition per catalogue law")
	runs := flag.Int("runs", 0, "override runs per scenario-composition cell")
	mixedRatio := flag.Float64("mixed-ratio", 0.5, "cooperative fraction for mixed fleets")
	ttcThreshold := flag.Float64("ttc-threshold", 0, "override metrics.ttc_threshold, s")
	logSteps := flag.Bool("log-steps", false, "record every agent decision to the results database")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address (empty = off)")
	flag.Parse()

	opts := studyOptions{
		scenarios:    splitList(*scenarios),
		compositions: splitList(*compositions),
		ablationAll:  *ablationAll,
		runs:         *runs,
		mixedRatio:   *mixedRatio,
		ttcThreshold: *ttcThreshold,
		logSteps:     *logSteps,
		metricsAddr:  *metricsAddr,
	}
	if len(opts.scenarios) == 0 || len(opts.compositions) == 0 {
		fmt.Fprintln(os.Stderr, "usage: simulate [--config study.yaml] [--scenarios highway,merge] [--compositions selfish,cooperative,mixed]")
		os.Exit(2)
	}

	if err := runStudy(*configPath, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type studyOptions struct {
	scenarios    []string
	compositions []string
	ablationAll  bool
	runs         int
	mixedRatio   float64
	ttcThreshold float64
	logSteps     bool
	metricsAddr  string
}

// #endregion main

// #region study

func runStudy(configPath string, opts studyOptions) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.runs > 0 {
		cfg.Simulation.NumRunsPerConfig = opts.runs
	}
	if opts.ttcThreshold > 0 {
		cfg.Metrics.TTCThreshold = opts.ttcThreshold
	}

	cells, err := parseCompositions(opts, cfg.EnabledLaws())
	if err != nil {
		return err
	}

	tm := telemetry.New()
	if opts.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", tm.Handler())
		go func() {
			if err := http.ListenAndServe(opts.metricsAddr, mux); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
		fmt.Printf("Serving metrics on %s/metrics\n", opts.metricsAddr)
	}

	if err := os.MkdirAll(cfg.Output.ResultsDir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	if err := os.MkdirAll(cfg.Output.PlotsDir, 0o755); err != nil {
		return fmt.Errorf("create plots dir: %w", err)
	}
	if dir := filepath.Dir(cfg.Output.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database dir: %w", err)
		}
	}

	store, err := results.NewStore(cfg.Output.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	agg := metrics.NewAggregator()
	for _, scenario := range opts.scenarios {
		for _, cell := range cells {
			for run := 0; run < cfg.Simulation.NumRunsPerConfig; run++ {
				// Runs share seeds across cells so each comparison is paired.
				seed := cfg.Simulation.Seed + int64(run)
				m, err := simulateRun(&cfg, scenario, cell, seed, opts, store, tm)
				if err != nil {
					return fmt.Errorf("%s/%s run %d: %w", scenario, cell.name, run+1, err)
				}
				agg.Add(metrics.GroupKey{Scenario: scenario, Composition: cell.name}, m)
				fmt.Printf("%-8s %-28s run %d/%d: avg speed %6.2f m/s, %d collisions, %d close-TTC events\n",
					scenario, cell.name, run+1, cfg.Simulation.NumRunsPerConfig,
					m.AvgSpeed, m.TotalCollisions, m.TTCEventCount)
			}
		}
	}

	summaries := agg.Summaries()
	csvPath := filepath.Join(cfg.Output.ResultsDir, cfg.Output.DataFilename)
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", csvPath, err)
	}
	if err := agg.WriteCSV(csvFile); err != nil {
		csvFile.Close()
		return err
	}
	if err := csvFile.Close(); err != nil {
		return err
	}

	reportPath := filepath.Join(cfg.Output.PlotsDir, "comparison.html")
	if err := report.RenderFile(reportPath, summaries); err != nil {
		return err
	}

	fmt.Printf("\nStudy complete: %d cells, results in %s, report in %s\n",
		len(summaries), csvPath, reportPath)
	return nil
}

// simulateRun executes one seeded episode and returns its final metrics.
func simulateRun(cfg *config.Config, scenario string, cell compositionCell, seed int64,
	opts studyOptions, store *results.Store, tm *telemetry.Metrics) (metrics.RunMetrics, error) {

	simCfg := sim.DefaultConfig()
	simCfg.Scenario = sim.Scenario(scenario)
	simCfg.LaneCount = cfg.Simulation.LaneCount
	simCfg.VehicleCount = cfg.Simulation.VehicleCount
	simCfg.Dt = cfg.Dt()
	if simCfg.Scenario != sim.ScenarioHighway && simCfg.Scenario != sim.ScenarioMerge {
		return metrics.RunMetrics{}, fmt.Errorf("unknown scenario %q", scenario)
	}

	world := sim.New(simCfg, seed)
	spec := cell.spec
	spec.Agents = len(world.Vehicles())

	population, err := compose.New(cfg.EngineConfig(), cfg.LawConfig(), seed).BuildPopulation(spec)
	if err != nil {
		return metrics.RunMetrics{}, err
	}

	rec, err := store.CreateRun(scenario, cell.name, seed, cfg.Simulation.DurationSteps)
	if err != nil {
		return metrics.RunMetrics{}, err
	}
	var batcher *logging.Batcher
	if opts.logSteps {
		batcher = logging.NewBatcher(store.DB(), 0)
	}

	collector := metrics.NewCollector(cfg.Metrics.TTCThreshold, simCfg.Dt)
	for step := 0; step < cfg.Simulation.DurationSteps; step++ {
		for i, agent := range population {
			raw := world.Observe(i, cfg.Observation.SensorHorizon, cfg.Observation.MaxVehicles)
			cmd, trace := agent.Policy.Act(raw)
			world.SetCommand(i, cmd)
			tm.ObserveTrace(trace)
			if batcher != nil {
				if err := batcher.Add(logging.StepEntry{RunID: rec.RunID, Agent: i, Trace: trace}); err != nil {
					return metrics.RunMetrics{}, err
				}
			}
		}
		world.Step()
		collector.CollectStep(world)
		tm.StepsTotal.Inc()
	}

	m := collector.Finalize()
	tm.CollisionsTotal.Add(float64(m.TotalCollisions))
	if err := store.CommitMetrics(rec.RunID, m); err != nil {
		return metrics.RunMetrics{}, err
	}
	if batcher != nil {
		if err := batcher.Flush(); err != nil {
			return metrics.RunMetrics{}, err
		}
	}
	return m, nil
}

// #endregion study

// #region compositions

// compositionCell names one column of the study grid.
type compositionCell struct {
	name string
	spec compose.PolicySpec
}

func parseCompositions(opts studyOptions, enabledLaws []string) ([]compositionCell, error) {
	tokens := opts.compositions
	if opts.ablationAll {
		for _, name := range laws.Names() {
			tokens = append(tokens, "ablation:"+name)
		}
	}

	cells := make([]compositionCell, 0, len(tokens))
	for _, token := range tokens {
		spec := compose.PolicySpec{}
		switch {
		case token == "selfish":
			spec.Kind = compose.KindSelfish
		case token == "cooperative":
			spec.Kind = compose.KindCooperative
			spec.CooperativeLaws = enabledLaws
		case token == "mixed":
			spec.Kind = compose.KindMixed
			spec.CooperativeRatio = opts.mixedRatio
			spec.CooperativeLaws = enabledLaws
		case strings.HasPrefix(token, "ablation:"):
			spec.Kind = compose.KindAblation
			spec.AblationLaw = strings.TrimPrefix(token, "ablation:")
		default:
			return nil, fmt.Errorf("unknown composition %q", token)
		}
		cells = append(cells, compositionCell{name: token, spec: spec})
	}
	return cells, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// #endregion compositions
