package laws

import (
	"math"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/action"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/obs"
)

// #region polite-yielding

// PoliteYieldingConfig tunes the cut-in yielding law.
type PoliteYieldingConfig struct {
	SpeedFactor      float64 // fraction of current speed to ease toward
	GapCreationSteps int     // how long to keep yielding after a trigger
	IntentRange      float64 // longitudinal range in which a neighbor reads as cutting in, m
	SpeedAdvantage   float64 // ego/neighbor speed ratio that signals a cut-in
	MaxBraking       float64
}

// DefaultPoliteYieldingConfig returns the standard yielding tuning, with the
// timer expressed in steps at the default 10 Hz policy rate.
func DefaultPoliteYieldingConfig() PoliteYieldingConfig {
	return PoliteYieldingConfig{
		SpeedFactor:      0.9,
		GapCreationSteps: 20, // 2.0 s
		IntentRange:      20.0,
		SpeedAdvantage:   1.1,
		MaxBraking:       3.0,
	}
}

// PoliteYielding eases off for an adjacent vehicle that wants to cut in
// ahead, and keeps yielding for a short timer so the gap actually opens.
type PoliteYielding struct {
	cfg PoliteYieldingConfig
}

// NewPoliteYielding builds the law.
func NewPoliteYielding(cfg PoliteYieldingConfig) *PoliteYielding {
	return &PoliteYielding{cfg: cfg}
}

func (l *PoliteYielding) Name() string { return "polite_yielding" }

// DetectTrigger fires on a cut-in signal from either adjacent lane and
// restarts the gap-creation timer. The law stays triggered while the timer
// runs even if the signal disappears.
func (l *PoliteYielding) DetectTrigger(snap *obs.Snapshot, ego Ego, st *State) bool {
	if l.cutInSignal(snap.Adjacent(-1), ego.Speed) || l.cutInSignal(snap.Adjacent(1), ego.Speed) {
		st.Timer = l.cfg.GapCreationSteps
	}
	st.Active = st.Timer > 0
	return st.Active
}

// cutInSignal reports whether any neighbor in one adjacent lane reads as
// wanting to move into the ego's lane: alongside within range, notably
// slower than the ego, or laterally closing.
func (l *PoliteYielding) cutInSignal(lane []obs.VehicleObservation, egoSpeed float64) bool {
	for _, v := range lane {
		if math.Abs(v.X) >= l.cfg.IntentRange {
			continue
		}
		neighborSpeed := egoSpeed + v.VX
		if egoSpeed > neighborSpeed*l.cfg.SpeedAdvantage {
			return true
		}
		// Lateral velocity pointed at the ego's lane.
		if v.Y > 0 && v.VY < -0.2 || v.Y < 0 && v.VY > 0.2 {
			return true
		}
	}
	return false
}

// Apply eases the command toward the reduced speed while the timer runs, and
// spends one tick of the timer.
func (l *PoliteYielding) Apply(snap *obs.Snapshot, ego Ego, st *State, cmd action.Command) action.Command {
	if !st.Active {
		return cmd
	}
	cmd = brakeToward(cmd, ego.Speed, l.cfg.SpeedFactor, l.cfg.MaxBraking)
	tickTimer(st)
	return cmd
}

// #endregion polite-yielding

// #region polite-gap-provision

// PoliteGapProvisionConfig tunes the proactive gap-provision law.
type PoliteGapProvisionConfig struct {
	ExtensionSteps int     // how long an offered gap is held open
	DetectionRange float64 // longitudinal range scanned for gap seekers, m
	SpeedFactor    float64
	MaxBraking     float64
}

// DefaultPoliteGapProvisionConfig returns the standard gap-provision tuning.
func DefaultPoliteGapProvisionConfig() PoliteGapProvisionConfig {
	return PoliteGapProvisionConfig{
		ExtensionSteps: 15, // 1.5 s
		DetectionRange: 40.0,
		SpeedFactor:    0.85,
		MaxBraking:     3.0,
	}
}

// PoliteGapProvision holds a slightly larger gap whenever adjacent traffic
// close by could use one, without waiting for an explicit cut-in signal.
type PoliteGapProvision struct {
	cfg PoliteGapProvisionConfig
}

// NewPoliteGapProvision builds the law.
func NewPoliteGapProvision(cfg PoliteGapProvisionConfig) *PoliteGapProvision {
	return &PoliteGapProvision{cfg: cfg}
}

func (l *PoliteGapProvision) Name() string { return "polite_gap_provision" }

// DetectTrigger fires when any adjacent-lane vehicle sits within detection
// range, and keeps the offered gap open for the extension timer.
func (l *PoliteGapProvision) DetectTrigger(snap *obs.Snapshot, ego Ego, st *State) bool {
	for _, v := range snap.Neighbors {
		lateral := math.Abs(v.Y)
		if lateral > snap.LaneWidth()/2 && lateral < snap.LaneWidth()*1.5 && math.Abs(v.X) < l.cfg.DetectionRange {
			st.Timer = l.cfg.ExtensionSteps
			break
		}
	}
	st.Active = st.Timer > 0
	return st.Active
}

// Apply eases toward the reduced speed while the offer stands.
func (l *PoliteGapProvision) Apply(snap *obs.Snapshot, ego Ego, st *State, cmd action.Command) action.Command {
	if !st.Active {
		return cmd
	}
	cmd = brakeToward(cmd, ego.Speed, l.cfg.SpeedFactor, l.cfg.MaxBraking)
	tickTimer(st)
	return cmd
}

// #endregion polite-gap-provision
