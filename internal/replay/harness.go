// Package replay re-runs recorded episodes through a fresh decision engine
// and compares every step against the recording. Because the engine is a
// deterministic function of the observation stream and its own state, any
// divergence is a behavior change.
package replay

import (
	"math"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/laws"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/policy"
)

// #region types

// StepResult is the comparison outcome for one replayed step.
type StepResult struct {
	Step       int
	Match      bool
	GotAction  string
	WantAction string
	GotIntent  string
	WantIntent string
	GotAccel   float64
	WantAccel  float64
}

// Summary aggregates one fixture replay.
type Summary struct {
	TotalSteps int
	Matches    int
	Mismatches int
}

// Accelerations compare within a small tolerance; the recorded value went
// through JSON.
const accelTolerance = 1e-9

// #endregion types

// #region replay

// BuildEngine constructs the engine a fixture pins, defaults filled in.
func BuildEngine(f *Fixture) (*policy.Policy, error) {
	cfg := policy.DefaultConfig()
	if f.Engine.LaneCount > 0 {
		cfg.LaneCount = f.Engine.LaneCount
	}
	if f.Engine.DesiredVelocity > 0 {
		cfg.IDM.V0 = f.Engine.DesiredVelocity
	}
	if f.Engine.TimeHeadway > 0 {
		cfg.IDM.THeadway = f.Engine.TimeHeadway
	}
	if f.Engine.PolitenessFactor > 0 {
		cfg.MOBIL.Politeness = f.Engine.PolitenessFactor
	}
	if f.Engine.CooldownSteps > 0 {
		cfg.MOBIL.CooldownSteps = f.Engine.CooldownSteps
	}
	set, err := laws.Build(f.Laws, laws.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return policy.New(cfg, set), nil
}

// Replay runs the fixture through a fresh engine and compares each step.
func Replay(f *Fixture) ([]StepResult, error) {
	engine, err := BuildEngine(f)
	if err != nil {
		return nil, err
	}
	engine.Reset()

	results := make([]StepResult, 0, len(f.Steps))
	for _, step := range f.Steps {
		cmd, trace := engine.Act(step.Observation)
		r := StepResult{
			Step:       step.Step,
			GotAction:  trace.Action.String(),
			WantAction: step.Expected.Action,
			GotIntent:  cmd.Intent.String(),
			WantIntent: step.Expected.Intent,
			GotAccel:   cmd.Accel,
			WantAccel:  step.Expected.Accel,
		}
		r.Match = r.GotAction == r.WantAction &&
			r.GotIntent == r.WantIntent &&
			math.Abs(r.GotAccel-r.WantAccel) <= accelTolerance
		results = append(results, r)
	}
	return results, nil
}

// Record runs the engine over an observation stream and captures a fixture
// step for each observation, for export tooling.
func Record(engine *policy.Policy, observations [][][]float64) []FixtureStep {
	engine.Reset()
	steps := make([]FixtureStep, 0, len(observations))
	for i, raw := range observations {
		cmd, trace := engine.Act(raw)
		steps = append(steps, FixtureStep{
			Step:        i,
			Observation: raw,
			Expected: FixtureExpected{
				Action:     trace.Action.String(),
				Intent:     cmd.Intent.String(),
				Accel:      cmd.Accel,
				ActiveLaws: trace.ActiveLaws,
			},
		})
	}
	return steps
}

// Summarize reduces step results to totals.
func Summarize(results []StepResult) Summary {
	s := Summary{TotalSteps: len(results)}
	for _, r := range results {
		if r.Match {
			s.Matches++
		} else {
			s.Mismatches++
		}
	}
	return s
}

// #endregion replay
