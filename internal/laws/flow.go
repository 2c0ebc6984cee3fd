package laws

import (
	"math"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/action"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/obs"
)

// #region smooth-flow-maintenance

// SmoothFlowConfig tunes the accordion-damping law.
type SmoothFlowConfig struct {
	TargetSpacingFactor float64 // desired gap as a multiple of one headway second
	HarmonizationRate   float64 // blend rate toward the leader's speed
	AccordionThreshold  float64 // closing-speed magnitude that reads as a wave, m/s
}

// DefaultSmoothFlowConfig returns the standard flow-smoothing tuning.
func DefaultSmoothFlowConfig() SmoothFlowConfig {
	return SmoothFlowConfig{
		TargetSpacingFactor: 1.8,
		HarmonizationRate:   0.1,
		AccordionThreshold:  5.0,
	}
}

// SmoothFlowMaintenance damps stop-and-go waves by blending the command
// toward matching the leader's speed whenever the closing rate spikes.
type SmoothFlowMaintenance struct {
	cfg SmoothFlowConfig
}

// NewSmoothFlowMaintenance builds the law.
func NewSmoothFlowMaintenance(cfg SmoothFlowConfig) *SmoothFlowMaintenance {
	return &SmoothFlowMaintenance{cfg: cfg}
}

func (l *SmoothFlowMaintenance) Name() string { return "smooth_flow_maintenance" }

// DetectTrigger fires when the gap to the leader is churning faster than the
// accordion threshold in either direction.
func (l *SmoothFlowMaintenance) DetectTrigger(snap *obs.Snapshot, ego Ego, st *State) bool {
	leader, ok := snap.Leader(0)
	st.Active = ok && math.Abs(leader.VX) > l.cfg.AccordionThreshold
	return st.Active
}

// Apply blends the acceleration toward closing-rate cancellation. The blend
// is proportional, so the effect fades as the wave flattens.
func (l *SmoothFlowMaintenance) Apply(snap *obs.Snapshot, ego Ego, st *State, cmd action.Command) action.Command {
	if !st.Active {
		return cmd
	}
	leader, ok := snap.Leader(0)
	if !ok {
		return cmd
	}
	// leader.VX is the relative speed; accelerating by it over one second
	// would match speeds exactly. Take a rate-limited fraction of that.
	harmonized := leader.VX
	cmd.Accel = (1-l.cfg.HarmonizationRate)*cmd.Accel + l.cfg.HarmonizationRate*harmonized
	return cmd
}

// #endregion smooth-flow-maintenance

// #region slipstream-cooperation

// SlipstreamConfig tunes the drafting-cooperation law.
type SlipstreamConfig struct {
	MinSpeed         float64 // cooperation band lower bound, m/s
	MaxSpeed         float64 // cooperation band upper bound, m/s
	ConsistencyGain  float64 // how strongly the follower damps its accel while drafting
	DraftRange       float64 // max gap that counts as drafting, m
	LeadRotationSteps int    // steps of drafting before the roles swap
}

// DefaultSlipstreamConfig returns the standard drafting tuning. The speed
// band is 80-120 km/h expressed in m/s.
func DefaultSlipstreamConfig() SlipstreamConfig {
	return SlipstreamConfig{
		MinSpeed:          22.2,
		MaxSpeed:          33.3,
		ConsistencyGain:   0.95,
		DraftRange:        20.0,
		LeadRotationSteps: 200,
	}
}

// SlipstreamCooperation holds a steady draft behind a similar-speed leader
// inside the cooperation band, then periodically releases so the lead burden
// rotates instead of pinning one vehicle in front indefinitely.
type SlipstreamCooperation struct {
	cfg SlipstreamConfig
}

// NewSlipstreamCooperation builds the law.
func NewSlipstreamCooperation(cfg SlipstreamConfig) *SlipstreamCooperation {
	return &SlipstreamCooperation{cfg: cfg}
}

func (l *SlipstreamCooperation) Name() string { return "slipstream_cooperation" }

// DetectTrigger fires while a similar-speed leader sits in draft range and
// the ego is inside the cooperation speed band. Counter accumulates drafting
// steps; past the rotation quota the law backs off for an equal stretch.
func (l *SlipstreamCooperation) DetectTrigger(snap *obs.Snapshot, ego Ego, st *State) bool {
	if st.Timer > 0 {
		// Rotation break: let the roles swap before drafting again.
		st.Timer--
		st.Active = false
		st.Counter = 0
		return false
	}

	leader, ok := snap.Leader(0)
	drafting := ok &&
		leader.X < l.cfg.DraftRange &&
		math.Abs(leader.VX) < 2.0 &&
		ego.Speed >= l.cfg.MinSpeed && ego.Speed <= l.cfg.MaxSpeed
	if drafting {
		st.Counter++
		if st.Counter >= l.cfg.LeadRotationSteps {
			st.Timer = l.cfg.LeadRotationSteps
			st.Counter = 0
			drafting = false
		}
	} else {
		st.Counter = 0
	}
	st.Active = drafting
	return st.Active
}

// Apply damps the acceleration so the draft stays steady; it never touches
// lane intent, a drafting vehicle may still bail out laterally.
func (l *SlipstreamCooperation) Apply(snap *obs.Snapshot, ego Ego, st *State, cmd action.Command) action.Command {
	if !st.Active {
		return cmd
	}
	cmd.Accel *= 1 - l.cfg.ConsistencyGain
	return cmd
}

// #endregion slipstream-cooperation
