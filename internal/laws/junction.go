package laws

import (
	"math"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/action"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/obs"
)

// #region cooperative-turn-taking

// TurnTakingConfig tunes the junction turn-taking law.
type TurnTakingConfig struct {
	MaxConsecutiveThrough int     // through passes before the ego must yield
	YieldSteps            int     // how long a yield lasts
	CourtesyGapSize       float64 // spacing offered to the waiting vehicle, m
	WaitingSpeed          float64 // below this a conflict vehicle counts as waiting, m/s
	MaxBraking            float64
}

// DefaultTurnTakingConfig returns the standard turn-taking tuning.
func DefaultTurnTakingConfig() TurnTakingConfig {
	return TurnTakingConfig{
		MaxConsecutiveThrough: 3,
		YieldSteps:            50, // 5.0 s
		CourtesyGapSize:       8.0,
		WaitingSpeed:          2.0,
		MaxBraking:            3.0,
	}
}

// CooperativeTurnTaking alternates priority at a conflict zone: after the
// ego has pushed through past a waiting vehicle a few times in a row, it
// yields once and the tally restarts.
type CooperativeTurnTaking struct {
	cfg TurnTakingConfig
}

// NewCooperativeTurnTaking builds the law.
func NewCooperativeTurnTaking(cfg TurnTakingConfig) *CooperativeTurnTaking {
	return &CooperativeTurnTaking{cfg: cfg}
}

func (l *CooperativeTurnTaking) Name() string { return "cooperative_turn_taking" }

// DetectTrigger counts steps spent passing a waiting conflict vehicle; once
// the tally exceeds the through quota it starts a yield episode.
func (l *CooperativeTurnTaking) DetectTrigger(snap *obs.Snapshot, ego Ego, st *State) bool {
	waiting := false
	for _, v := range snap.Neighbors {
		if math.Abs(v.X) > l.cfg.CourtesyGapSize*2 {
			continue
		}
		if math.Abs(v.Y) <= snap.LaneWidth()/2 {
			continue // same lane is ordinary following, not a conflict
		}
		if math.Abs(ego.Speed+v.VX) < l.cfg.WaitingSpeed {
			waiting = true
			break
		}
	}

	if waiting && st.Timer == 0 {
		st.Counter++
		if st.Counter > l.cfg.MaxConsecutiveThrough {
			st.Timer = l.cfg.YieldSteps
			st.Counter = 0
		}
	}
	if !waiting && st.Timer == 0 {
		st.Counter = 0
	}
	st.Active = st.Timer > 0
	return st.Active
}

// Apply brakes to open the courtesy gap for the duration of the yield.
func (l *CooperativeTurnTaking) Apply(snap *obs.Snapshot, ego Ego, st *State, cmd action.Command) action.Command {
	if !st.Active {
		return cmd
	}
	cmd = brakeToward(cmd, ego.Speed, 0.5, l.cfg.MaxBraking)
	cmd.Intent = action.IntentNone
	tickTimer(st)
	return cmd
}

// #endregion cooperative-turn-taking

// #region adaptive-right-of-way

// RightOfWayConfig tunes the adaptive right-of-way law.
type RightOfWayConfig struct {
	BaseWaitSteps     int     // first-encounter wait duration
	WaitMultiplier    float64 // wait growth per consecutive encounter
	MaxWaitSteps      int     // cap on the grown wait
	ConflictRange     float64 // forward range of the conflict zone, m
	EmergencyOverride bool    // skip waiting when a follower is about to rear-end
	MaxBraking        float64
}

// DefaultRightOfWayConfig returns the standard right-of-way tuning.
func DefaultRightOfWayConfig() RightOfWayConfig {
	return RightOfWayConfig{
		BaseWaitSteps:     30, // 3.0 s
		WaitMultiplier:    1.2,
		MaxWaitSteps:      90,
		ConflictRange:     25.0,
		EmergencyOverride: true,
		MaxBraking:        4.0,
	}
}

// AdaptiveRightOfWay waits for crossing traffic at a conflict zone, growing
// the wait on repeated encounters so persistent contention resolves instead
// of deadlocking a fixed standoff.
type AdaptiveRightOfWay struct {
	cfg RightOfWayConfig
}

// NewAdaptiveRightOfWay builds the law.
func NewAdaptiveRightOfWay(cfg RightOfWayConfig) *AdaptiveRightOfWay {
	return &AdaptiveRightOfWay{cfg: cfg}
}

func (l *AdaptiveRightOfWay) Name() string { return "adaptive_right_of_way" }

// DetectTrigger starts a wait when crossing traffic enters the conflict
// range. Each fresh encounter lengthens the next wait.
func (l *AdaptiveRightOfWay) DetectTrigger(snap *obs.Snapshot, ego Ego, st *State) bool {
	conflict := false
	for _, v := range snap.Adjacent(1) {
		if v.X > 0 && v.X < l.cfg.ConflictRange && v.VY < -0.2 {
			conflict = true
			break
		}
	}

	if conflict && st.Timer == 0 && !st.Active {
		wait := float64(l.cfg.BaseWaitSteps) * math.Pow(l.cfg.WaitMultiplier, float64(st.Counter))
		st.Timer = int(wait)
		if st.Timer > l.cfg.MaxWaitSteps {
			st.Timer = l.cfg.MaxWaitSteps
		}
		st.Counter++
	}
	if !conflict && st.Timer == 0 {
		st.Counter = 0
	}

	if l.cfg.EmergencyOverride && st.Timer > 0 {
		// A fast closing follower takes precedence over the wait.
		if f, ok := snap.Follower(0); ok && -f.X < 10 && f.VX > 5 {
			st.Timer = 0
		}
	}
	st.Active = st.Timer > 0
	return st.Active
}

// Apply holds the ego back for the duration of the wait.
func (l *AdaptiveRightOfWay) Apply(snap *obs.Snapshot, ego Ego, st *State, cmd action.Command) action.Command {
	if !st.Active {
		return cmd
	}
	cmd = brakeToward(cmd, ego.Speed, 0.3, l.cfg.MaxBraking)
	cmd.Intent = action.IntentNone
	tickTimer(st)
	return cmd
}

// #endregion adaptive-right-of-way
