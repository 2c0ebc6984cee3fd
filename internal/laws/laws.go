// Package laws implements the social-law behavior layer: independently
// toggleable rules that post-process the baseline command. Each law owns
// private persistent state, detects its own trigger from the local
// observation, and applies a bounded, reversible effect. Laws never read
// another agent's state.
package laws

import (
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/action"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/idm"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/obs"
)

// #region contract

// Ego is the lane context a law sees beyond the observation snapshot.
type Ego struct {
	Speed     float64
	Lane      int
	LaneCount int
}

// State is the private persistent state of one law instance. Reset zeroes it.
type State struct {
	Active  bool
	Timer   int // steps remaining of an ongoing effect
	Counter int // law-specific tally
}

// Reset clears the state to inactive/zero.
func (s *State) Reset() {
	*s = State{}
}

// Law is one toggleable behavior rule. DetectTrigger may mutate the state
// (activation, hysteresis, timer restarts); Apply transforms the command and
// performs the per-step timer decrement. Both run every step for every
// enabled law, in catalogue priority order.
type Law interface {
	Name() string
	DetectTrigger(snap *obs.Snapshot, ego Ego, st *State) bool
	Apply(snap *obs.Snapshot, ego Ego, st *State, cmd action.Command) action.Command
}

// HeadwayOverrider is implemented by laws that modulate the longitudinal
// controller's parameters instead of (or in addition to) the command.
// Overrides is consulted after DetectTrigger and before the baseline
// controllers run.
type HeadwayOverrider interface {
	Overrides(st *State) idm.Overrides
}

// #endregion contract

// #region helpers

// brakeToward caps the command's acceleration at a bounded deceleration that
// would bring speed v toward factor*v over roughly one second. The cap never
// exceeds limit and never turns a braking command into a milder one.
func brakeToward(cmd action.Command, v, factor, limit float64) action.Command {
	decel := -(1 - factor) * v
	if decel < -limit {
		decel = -limit
	}
	if decel > 0 {
		decel = 0
	}
	if cmd.Accel > decel {
		cmd.Accel = decel
	}
	return cmd
}

// tickTimer decrements a positive timer by exactly one step.
func tickTimer(st *State) {
	if st.Timer > 0 {
		st.Timer--
	}
}

// #endregion helpers
