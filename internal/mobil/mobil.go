// Package mobil decides lane changes: a hard safety gate on the prospective
// new follower, then an incentive score traded off against the disadvantage
// imposed on that follower. The safety gate is absolute and runs first.
package mobil

import (
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/action"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/idm"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/obs"
)

// #region config

// Config are the lane-change tuning constants for one agent.
type Config struct {
	Politeness         float64 // weight on the new follower's loss
	SwitchingThreshold float64 // minimum net advantage to act, m/s^2
	SafeBrakingLimit   float64 // max deceleration imposable on the new follower, m/s^2
	LaneBias           float64 // fixed penalty discouraging churn, m/s^2
	CooldownSteps      int     // steps to hold the lane after a change
}

// DefaultConfig returns the standard lane-change tuning.
func DefaultConfig() Config {
	return Config{
		Politeness:         0.1,
		SwitchingThreshold: 0.2,
		SafeBrakingLimit:   4.0,
		LaneBias:           0.0,
		CooldownSteps:      10,
	}
}

// #endregion config

// #region decision

// Reason records why a direction was or was not taken.
type Reason string

const (
	ReasonNoLane      Reason = "no_lane"
	ReasonCooldown    Reason = "cooldown"
	ReasonUnsafe      Reason = "unsafe_for_follower"
	ReasonNoIncentive Reason = "insufficient_gain"
	ReasonAccepted    Reason = "accepted"
)

// Decision is the outcome of one lane-change evaluation.
type Decision struct {
	Intent        action.LaneIntent
	BaselineAccel float64 // ego IDM accel if it stays in lane
	Left, Right   Reason
}

// #endregion decision

// #region evaluate

// Ego is the lane context MOBIL needs beyond the snapshot.
type Ego struct {
	Lane      int
	LaneCount int
	Cooldown  int // steps remaining before another change is allowed
}

// Evaluate scores both adjacent lanes and returns the chosen intent. A tie
// between equally attractive sides resolves to no change. The returned
// BaselineAccel is the stay-in-lane IDM acceleration and is always valid.
func Evaluate(snap *obs.Snapshot, ego Ego, cfg Config, params idm.Params, ov idm.Overrides) Decision {
	v := snap.EgoSpeed()
	d := Decision{
		Intent:        action.IntentNone,
		BaselineAccel: idm.Accel(v, leaderAt(snap, 0), params, ov),
		Left:          ReasonNoLane,
		Right:         ReasonNoLane,
	}
	if ego.Cooldown > 0 {
		d.Left, d.Right = ReasonCooldown, ReasonCooldown
		return d
	}

	var gainLeft, gainRight float64
	if ego.Lane > 0 {
		d.Left, gainLeft = scoreDirection(snap, -1, v, d.BaselineAccel, cfg, params, ov)
	}
	if ego.Lane < ego.LaneCount-1 {
		d.Right, gainRight = scoreDirection(snap, 1, v, d.BaselineAccel, cfg, params, ov)
	}

	leftOK := d.Left == ReasonAccepted
	rightOK := d.Right == ReasonAccepted
	switch {
	case leftOK && rightOK:
		// Equal incentive on both sides is not a reason to move.
		if gainLeft == gainRight {
			d.Left, d.Right = ReasonNoIncentive, ReasonNoIncentive
		} else if gainLeft > gainRight {
			d.Intent = action.IntentLeft
		} else {
			d.Intent = action.IntentRight
		}
	case leftOK:
		d.Intent = action.IntentLeft
	case rightOK:
		d.Intent = action.IntentRight
	}
	return d
}

// SafeFor reports whether a change toward dir leaves the prospective new
// follower able to stay within the braking limit. This is the same predicate
// Evaluate applies, exposed for re-checking externally injected intents.
func SafeFor(snap *obs.Snapshot, dir int, egoSpeed float64, cfg Config, params idm.Params) bool {
	f, ok := followerAt(snap, dir)
	if !ok {
		return true
	}
	followerSpeed := egoSpeed + f.VX
	gap := -f.X
	if gap <= 0 {
		return false
	}
	// After the change the ego becomes the follower's leader.
	a := idm.Accel(followerSpeed, &idm.Leader{Gap: gap, Closing: followerSpeed - egoSpeed}, params, idm.Overrides{})
	return a >= -cfg.SafeBrakingLimit
}

// scoreDirection runs the safety gate then the incentive gate for one side.
func scoreDirection(snap *obs.Snapshot, dir int, v, baseline float64, cfg Config, params idm.Params, ov idm.Overrides) (Reason, float64) {
	if !SafeFor(snap, dir, v, cfg, params) {
		return ReasonUnsafe, 0
	}

	egoAfter := idm.Accel(v, leaderAt(snap, dir), params, ov)
	egoGain := egoAfter - baseline

	followerCost := 0.0
	if f, ok := followerAt(snap, dir); ok {
		followerSpeed := v + f.VX
		gap := -f.X
		before := idm.Accel(followerSpeed, followerLeader(snap, f, dir, v), params, idm.Overrides{})
		after := idm.Accel(followerSpeed, &idm.Leader{Gap: gap, Closing: followerSpeed - v}, params, idm.Overrides{})
		if cost := before - after; cost > 0 {
			followerCost = cost
		}
	}

	net := egoGain - cfg.Politeness*followerCost - cfg.LaneBias
	if net <= cfg.SwitchingThreshold {
		return ReasonNoIncentive, 0
	}
	return ReasonAccepted, net
}

// followerLeader returns the target-lane follower's current leader, which is
// the nearest vehicle ahead of it in that lane.
func followerLeader(snap *obs.Snapshot, f obs.VehicleObservation, dir int, egoSpeed float64) *idm.Leader {
	var best obs.VehicleObservation
	found := false
	for _, v := range snap.Adjacent(dir) {
		if v.X <= f.X || v == f {
			continue
		}
		if !found || v.X < best.X {
			best, found = v, true
		}
	}
	if !found {
		return nil
	}
	followerSpeed := egoSpeed + f.VX
	leaderSpeed := egoSpeed + best.VX
	return &idm.Leader{Gap: best.X - f.X, Closing: followerSpeed - leaderSpeed}
}

// leaderAt adapts a snapshot leader query to the IDM input, nil when clear.
func leaderAt(snap *obs.Snapshot, dir int) *idm.Leader {
	l, ok := snap.Leader(dir)
	if !ok {
		return nil
	}
	return &idm.Leader{Gap: l.X, Closing: -l.VX}
}

func followerAt(snap *obs.Snapshot, dir int) (obs.VehicleObservation, bool) {
	return snap.Follower(dir)
}

// #endregion evaluate
