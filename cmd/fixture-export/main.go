package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/config"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/laws"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/policy"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/replay"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/sim"
)

// #region main

func main() {
	outPath := flag.String("out", "", "output fixture JSON path")
	configPath := flag.String("config", "", "optional study config YAML")
	scenario := flag.String("scenario", "highway", "scenario: highway or merge")
	steps := flag.Int("steps", 100, "episode length in steps")
	seed := flag.Int64("seed", 1, "world and population seed")
	agent := flag.Int("agent", 0, "index of the agent to record")
	lawList := flag.String("laws", "", "comma-separated social laws, or 'all' (empty = selfish baseline)")
	description := flag.String("description", "", "free-form fixture description")
	flag.Parse()

	if *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --out path/to/episode.json [--scenario highway|merge] [--steps N] [--seed N] [--agent N] [--laws a,b,c]")
		os.Exit(2)
	}

	if err := run(*outPath, *configPath, *scenario, *steps, *seed, *agent, *lawList, *description); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(outPath, configPath, scenario string, steps int, seed int64, agent int, lawList, description string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	names := parseLaws(lawList)
	engineCfg := cfg.EngineConfig()
	lawCfg := cfg.LawConfig()

	simCfg := sim.DefaultConfig()
	simCfg.Scenario = sim.Scenario(scenario)
	simCfg.LaneCount = cfg.Simulation.LaneCount
	simCfg.VehicleCount = cfg.Simulation.VehicleCount
	simCfg.Dt = cfg.Dt()
	if simCfg.Scenario != sim.ScenarioHighway && simCfg.Scenario != sim.ScenarioMerge {
		return fmt.Errorf("unknown scenario %q", scenario)
	}

	world := sim.New(simCfg, seed)
	total := len(world.Vehicles())
	if agent < 0 || agent >= total {
		return fmt.Errorf("agent index %d out of range, world has %d vehicles", agent, total)
	}

	// Every vehicle in the episode drives with the same law set, so the
	// recorded agent sees traffic produced by its own kind.
	drivers := make([]*policy.Policy, total)
	for i := range drivers {
		set, err := laws.Build(names, lawCfg)
		if err != nil {
			return err
		}
		drivers[i] = policy.New(engineCfg, set)
	}

	stream := make([][][]float64, 0, steps)
	for s := 0; s < steps; s++ {
		for i := range drivers {
			raw := world.Observe(i, cfg.Observation.SensorHorizon, cfg.Observation.MaxVehicles)
			cmd, _ := drivers[i].Act(raw)
			world.SetCommand(i, cmd)
			if i == agent {
				stream = append(stream, raw)
			}
		}
		world.Step()
	}

	f := &replay.Fixture{
		Description: description,
		Laws:        names,
		Engine: replay.FixtureEngine{
			LaneCount:        engineCfg.LaneCount,
			DesiredVelocity:  engineCfg.IDM.V0,
			TimeHeadway:      engineCfg.IDM.THeadway,
			PolitenessFactor: engineCfg.MOBIL.Politeness,
			CooldownSteps:    engineCfg.MOBIL.CooldownSteps,
		},
	}
	recorder, err := replay.BuildEngine(f)
	if err != nil {
		return err
	}
	f.Steps = replay.Record(recorder, stream)

	if err := replay.WriteFixture(outPath, f); err != nil {
		return err
	}
	fmt.Printf("Exported %d steps to %s\n", len(f.Steps), outPath)
	return nil
}

func parseLaws(lawList string) []string {
	switch lawList {
	case "":
		return nil
	case "all":
		return laws.Names()
	}
	var names []string
	for _, name := range strings.Split(lawList, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// #endregion export
