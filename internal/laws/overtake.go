package laws

import (
	"math"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/action"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/obs"
)

// #region safe-overtaking-protocol

// OvertakingConfig tunes the overtaking-discipline law.
type OvertakingConfig struct {
	MinSpeedDifferential float64 // ego must be at least this much faster than the leader, m/s
	SafeDistance         float64 // target-lane clearance needed to start a pass, m
	AbortThreshold       float64 // target-lane traffic closer than this aborts the pass, m
	MaxBraking           float64
}

// DefaultOvertakingConfig returns the standard overtaking tuning.
func DefaultOvertakingConfig() OvertakingConfig {
	return OvertakingConfig{
		MinSpeedDifferential: 10.0,
		SafeDistance:         50.0,
		AbortThreshold:       20.0,
		MaxBraking:           3.0,
	}
}

// SafeOvertakingProtocol disciplines the ego's own passes: a left change is
// only worth starting with a real speed advantage and a long clear stretch,
// and an underway pass aborts when the passing lane fills in.
type SafeOvertakingProtocol struct {
	cfg OvertakingConfig
}

// NewSafeOvertakingProtocol builds the law.
func NewSafeOvertakingProtocol(cfg OvertakingConfig) *SafeOvertakingProtocol {
	return &SafeOvertakingProtocol{cfg: cfg}
}

func (l *SafeOvertakingProtocol) Name() string { return "safe_overtaking_protocol" }

// DetectTrigger fires whenever a pass is plausible, i.e. a leader is ahead;
// the actual filtering happens in Apply on the command's intent.
func (l *SafeOvertakingProtocol) DetectTrigger(snap *obs.Snapshot, ego Ego, st *State) bool {
	_, ok := snap.Leader(0)
	st.Active = ok
	return st.Active
}

// Apply cancels left intents that lack the speed differential or the
// clearance the protocol demands, and eases off when the passing lane has
// traffic inside the abort range.
func (l *SafeOvertakingProtocol) Apply(snap *obs.Snapshot, ego Ego, st *State, cmd action.Command) action.Command {
	if !st.Active || cmd.Intent != action.IntentLeft {
		return cmd
	}
	leader, ok := snap.Leader(0)
	if !ok {
		return cmd
	}

	leaderSpeed := ego.Speed + leader.VX
	if ego.Speed-leaderSpeed < l.cfg.MinSpeedDifferential {
		cmd.Intent = action.IntentNone
		return cmd
	}
	for _, v := range snap.Adjacent(-1) {
		if math.Abs(v.X) < l.cfg.AbortThreshold {
			cmd.Intent = action.IntentNone
			return brakeToward(cmd, ego.Speed, 0.95, l.cfg.MaxBraking)
		}
		if v.X > 0 && v.X < l.cfg.SafeDistance {
			cmd.Intent = action.IntentNone
			return cmd
		}
	}
	return cmd
}

// #endregion safe-overtaking-protocol

// #region defensive-positioning

// DefensiveConfig tunes the defensive-positioning law.
type DefensiveConfig struct {
	AllowFasterPass    bool    // hold speed so a faster vehicle can clear
	SpeedDiffThreshold float64 // closing speed that reads as a fast approacher, m/s
	DefensiveGapSize   float64 // rear range scanned for approachers, m
}

// DefaultDefensiveConfig returns the standard defensive tuning.
func DefaultDefensiveConfig() DefensiveConfig {
	return DefensiveConfig{
		AllowFasterPass:    true,
		SpeedDiffThreshold: 15.0,
		DefensiveGapSize:   20.0,
	}
}

// DefensivePositioning gets out of the way of much faster traffic closing
// from behind: no acceleration and no lane change while the approacher
// clears.
type DefensivePositioning struct {
	cfg DefensiveConfig
}

// NewDefensivePositioning builds the law.
func NewDefensivePositioning(cfg DefensiveConfig) *DefensivePositioning {
	return &DefensivePositioning{cfg: cfg}
}

func (l *DefensivePositioning) Name() string { return "defensive_positioning" }

// DetectTrigger fires when a rear vehicle in any nearby lane is closing
// faster than the threshold inside the defensive range.
func (l *DefensivePositioning) DetectTrigger(snap *obs.Snapshot, ego Ego, st *State) bool {
	st.Active = false
	for _, v := range snap.Neighbors {
		if v.X < 0 && -v.X < l.cfg.DefensiveGapSize*2 && v.VX > l.cfg.SpeedDiffThreshold {
			st.Active = true
			break
		}
	}
	return st.Active
}

// Apply pins the ego: no acceleration and no lane change until the
// approacher has passed.
func (l *DefensivePositioning) Apply(snap *obs.Snapshot, ego Ego, st *State, cmd action.Command) action.Command {
	if !st.Active || !l.cfg.AllowFasterPass {
		return cmd
	}
	if cmd.Accel > 0 {
		cmd.Accel = 0
	}
	cmd.Intent = action.IntentNone
	return cmd
}

// #endregion defensive-positioning
