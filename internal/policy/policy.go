// Package policy assembles the per-agent decision engine: observation
// normalization, longitudinal control, lane-change evaluation, the social-law
// chain, and the final safety re-check. One Policy instance belongs to one
// agent and holds only that agent's state.
package policy

import (
	"errors"
	"math"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/action"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/idm"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/laws"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/mobil"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/obs"
)

// #region config

// Config carries everything one agent's engine needs.
type Config struct {
	Obs       obs.Config
	IDM       idm.Params
	MOBIL     mobil.Config
	LaneCount int
}

// DefaultConfig returns the standard engine tuning for a 3-lane road.
func DefaultConfig() Config {
	return Config{
		Obs:       obs.DefaultConfig(),
		IDM:       idm.DefaultParams(),
		MOBIL:     mobil.DefaultConfig(),
		LaneCount: 3,
	}
}

// #endregion config

// #region trace

// StepTrace is the per-step record exposed to the metrics collaborator.
type StepTrace struct {
	Step       int
	Action     action.Meta
	Accel      float64
	Intent     action.LaneIntent
	ActiveLaws []string
	Recovered  bool // true when the observation was unusable and the agent held steady
}

// #endregion trace

// #region policy

// Policy is one agent's decision engine.
type Policy struct {
	cfg    Config
	laws   []laws.Law
	states []laws.State
	mapper *action.DiscreteMapper

	step     int
	cooldown int
}

// New builds an agent engine with the given law set. An empty set is the
// pure baseline agent.
func New(cfg Config, lawSet []laws.Law) *Policy {
	return &Policy{
		cfg:    cfg,
		laws:   lawSet,
		states: make([]laws.State, len(lawSet)),
		mapper: action.NewDiscreteMapper(nil),
	}
}

// LawNames returns the names of this agent's enabled laws in chain order.
func (p *Policy) LawNames() []string {
	out := make([]string, len(p.laws))
	for i, l := range p.laws {
		out[i] = l.Name()
	}
	return out
}

// Reset clears every law's state and the engine counters at episode start.
func (p *Policy) Reset() {
	for i := range p.states {
		p.states[i].Reset()
	}
	p.step = 0
	p.cooldown = 0
}

// Act runs one decision step. An undecodable observation is recovered
// locally with a hold-steady command; it never aborts the episode.
func (p *Policy) Act(raw [][]float64) (action.Command, StepTrace) {
	step := p.step
	p.step++

	snap, err := obs.Normalize(raw, p.cfg.Obs)
	if err != nil {
		var empty *obs.EmptyObservationError
		if errors.As(err, &empty) {
			cmd := action.Maintain()
			return cmd, StepTrace{Step: step, Action: p.mapper.Meta(cmd), Recovered: true}
		}
		// No other error class is produced by normalization; treat anything
		// unexpected the same way rather than halting the agent.
		cmd := action.Maintain()
		return cmd, StepTrace{Step: step, Action: p.mapper.Meta(cmd), Recovered: true}
	}

	ego := laws.Ego{
		Speed:     snap.EgoSpeed(),
		Lane:      p.currentLane(snap),
		LaneCount: p.cfg.LaneCount,
	}

	// Phase 1: triggers. Every enabled law sees every step so activation,
	// hysteresis, and timer restarts happen even when a higher-priority law
	// later dominates the command.
	active := make([]bool, len(p.laws))
	var activeNames []string
	for i, l := range p.laws {
		if l.DetectTrigger(snap, ego, &p.states[i]) {
			active[i] = true
			activeNames = append(activeNames, l.Name())
		}
	}

	// Phase 2: parameter overrides from active laws, consumed by the
	// baseline controllers below. Competing headways resolve to the longest.
	ov := p.collectOverrides(active)

	// Phase 3: baseline decision.
	decision := mobil.Evaluate(snap, mobil.Ego{
		Lane:      ego.Lane,
		LaneCount: ego.LaneCount,
		Cooldown:  p.cooldown,
	}, p.cfg.MOBIL, p.cfg.IDM, ov)
	cmd := action.Command{Accel: decision.BaselineAccel, Intent: decision.Intent}

	// Phase 4: fold the law chain over the command in priority order.
	for i, l := range p.laws {
		cmd = l.Apply(snap, ego, &p.states[i], cmd)
	}

	// Phase 5: safety re-check. A law may slow the agent down but must never
	// leave an unsafe lane action standing.
	if dir := intentDir(cmd.Intent); dir != 0 {
		if !mobil.SafeFor(snap, dir, ego.Speed, p.cfg.MOBIL, p.cfg.IDM) {
			cmd.Intent = action.IntentNone
		}
	}

	if cmd.Intent != action.IntentNone {
		p.cooldown = p.cfg.MOBIL.CooldownSteps
	} else if p.cooldown > 0 {
		p.cooldown--
	}

	return cmd, StepTrace{
		Step:       step,
		Action:     p.mapper.Meta(cmd),
		Accel:      cmd.Accel,
		Intent:     cmd.Intent,
		ActiveLaws: activeNames,
	}
}

// collectOverrides merges the parameter overrides of all active laws.
func (p *Policy) collectOverrides(active []bool) idm.Overrides {
	var ov idm.Overrides
	for i, l := range p.laws {
		if !active[i] {
			continue
		}
		ho, ok := l.(laws.HeadwayOverrider)
		if !ok {
			continue
		}
		o := ho.Overrides(&p.states[i])
		if o.THeadway > ov.THeadway {
			ov.THeadway = o.THeadway
		}
		if o.V0 > 0 && (ov.V0 == 0 || o.V0 < ov.V0) {
			ov.V0 = o.V0
		}
	}
	return ov
}

// currentLane infers the ego's lane index from its lateral position.
func (p *Policy) currentLane(snap *obs.Snapshot) int {
	lane := int(math.Round(snap.Ego.Y / snap.LaneWidth()))
	if lane < 0 {
		lane = 0
	}
	if lane >= p.cfg.LaneCount {
		lane = p.cfg.LaneCount - 1
	}
	return lane
}

func intentDir(li action.LaneIntent) int {
	switch li {
	case action.IntentLeft:
		return -1
	case action.IntentRight:
		return 1
	}
	return 0
}

// #endregion policy
