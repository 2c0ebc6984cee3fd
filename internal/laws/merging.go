package laws

import (
	"math"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/action"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/obs"
)

// #region cooperative-merging

// CooperativeMergingConfig tunes the merge-assistance law.
type CooperativeMergingConfig struct {
	DecelFactor       float64 // fraction of comfortable braking applied
	DetectionDistance float64 // how far ahead a merger is noticed, m
	ComfortBraking    float64 // agent's comfortable deceleration, m/s^2
	MergeTime         float64 // seconds a merger needs to complete the move
	MinSpacing        float64
}

// DefaultCooperativeMergingConfig returns the standard merge-assistance tuning.
func DefaultCooperativeMergingConfig() CooperativeMergingConfig {
	return CooperativeMergingConfig{
		DecelFactor:       0.8,
		DetectionDistance: 30.0,
		ComfortBraking:    3.0,
		MergeTime:         3.0,
		MinSpacing:        2.0,
	}
}

// CooperativeMerging decelerates to open a gap when a merge-lane vehicle
// ahead cannot fit into the current spacing.
type CooperativeMerging struct {
	cfg CooperativeMergingConfig
}

// NewCooperativeMerging builds the law.
func NewCooperativeMerging(cfg CooperativeMergingConfig) *CooperativeMerging {
	return &CooperativeMerging{cfg: cfg}
}

func (l *CooperativeMerging) Name() string { return "cooperative_merging" }

// DetectTrigger fires when a right-lane vehicle slightly ahead wants in and
// the gap to the ego's own leader cannot absorb it.
func (l *CooperativeMerging) DetectTrigger(snap *obs.Snapshot, ego Ego, st *State) bool {
	st.Active = false
	for _, v := range snap.Adjacent(1) {
		if v.X <= 0 || v.X >= l.cfg.DetectionDistance {
			continue
		}
		if l.mergeSpaceInsufficient(snap, ego, v) {
			st.Active = true
			return true
		}
	}
	return false
}

// mergeSpaceInsufficient checks whether the gap ahead of the ego can hold the
// merging vehicle, accounting for the distance it covers while merging.
func (l *CooperativeMerging) mergeSpaceInsufficient(snap *obs.Snapshot, ego Ego, merger obs.VehicleObservation) bool {
	front, ok := snap.Leader(0)
	if !ok {
		return false // open road ahead, merger fits trivially
	}
	mergeSpeed := math.Abs(ego.Speed + merger.VX)
	required := l.cfg.MinSpacing*2 + mergeSpeed*l.cfg.MergeTime + math.Abs(merger.VX)*1.5
	return front.X < required
}

// Apply caps the command at a moderate deceleration while a merger needs room.
func (l *CooperativeMerging) Apply(snap *obs.Snapshot, ego Ego, st *State, cmd action.Command) action.Command {
	if !st.Active {
		return cmd
	}
	decel := -l.cfg.DecelFactor * l.cfg.ComfortBraking
	if cmd.Accel > decel {
		cmd.Accel = decel
	}
	// Holding the lane keeps the gap predictable for the merger.
	cmd.Intent = action.IntentNone
	return cmd
}

// #endregion cooperative-merging

// #region entry-facilitation

// EntryFacilitationConfig tunes the ramp-entry assistance law.
type EntryFacilitationConfig struct {
	DetectionDistance   float64 // how far ahead an entering vehicle is noticed, m
	SpeedFactor         float64 // fraction of current speed to ease toward
	GapCreationDistance float64 // spacing to offer the entering vehicle, m
	MaxBraking          float64
}

// DefaultEntryFacilitationConfig returns the standard entry-assistance tuning.
func DefaultEntryFacilitationConfig() EntryFacilitationConfig {
	return EntryFacilitationConfig{
		DetectionDistance:   50.0,
		SpeedFactor:         0.9,
		GapCreationDistance: 15.0,
		MaxBraking:          3.0,
	}
}

// EntryFacilitation eases off early when a vehicle is entering from a ramp
// zone, before the tighter cooperative-merging criterion would fire.
type EntryFacilitation struct {
	cfg EntryFacilitationConfig
}

// NewEntryFacilitation builds the law.
func NewEntryFacilitation(cfg EntryFacilitationConfig) *EntryFacilitation {
	return &EntryFacilitation{cfg: cfg}
}

func (l *EntryFacilitation) Name() string { return "entry_facilitation" }

// DetectTrigger fires when an entry-side vehicle ahead is within detection
// range and closer than the gap the law wants to offer.
func (l *EntryFacilitation) DetectTrigger(snap *obs.Snapshot, ego Ego, st *State) bool {
	st.Active = false
	for _, v := range snap.Adjacent(1) {
		if v.X > 0 && v.X < l.cfg.DetectionDistance && v.X < l.cfg.GapCreationDistance+ego.Speed {
			st.Active = true
			return true
		}
	}
	return false
}

// Apply eases the command toward a mildly reduced speed.
func (l *EntryFacilitation) Apply(snap *obs.Snapshot, ego Ego, st *State, cmd action.Command) action.Command {
	if !st.Active {
		return cmd
	}
	return brakeToward(cmd, ego.Speed, l.cfg.SpeedFactor, l.cfg.MaxBraking)
}

// #endregion entry-facilitation

// #region exit-courtesy

// ExitCourtesyConfig tunes the exit-assistance law.
type ExitCourtesyConfig struct {
	EarlySignalDistance float64 // range at which an exiting vehicle is assisted, m
	GapProvision        bool    // ease off to open a gap for the exiter
	MaxBraking          float64
}

// DefaultExitCourtesyConfig returns the standard exit-assistance tuning.
func DefaultExitCourtesyConfig() ExitCourtesyConfig {
	return ExitCourtesyConfig{
		EarlySignalDistance: 30.0,
		GapProvision:        true,
		MaxBraking:          2.0,
	}
}

// ExitCourtesy helps adjacent vehicles cut across toward an exit: it holds
// the ego's own lane changes toward the exiting side and optionally eases
// off to open a gap.
type ExitCourtesy struct {
	cfg ExitCourtesyConfig
}

// NewExitCourtesy builds the law.
func NewExitCourtesy(cfg ExitCourtesyConfig) *ExitCourtesy {
	return &ExitCourtesy{cfg: cfg}
}

func (l *ExitCourtesy) Name() string { return "exit_courtesy" }

// DetectTrigger fires when a left-lane vehicle ahead is drifting rightward
// across the ego's lane, the signature of a vehicle lining up for an exit.
func (l *ExitCourtesy) DetectTrigger(snap *obs.Snapshot, ego Ego, st *State) bool {
	st.Active = false
	for _, v := range snap.Adjacent(-1) {
		if v.X > 0 && v.X < l.cfg.EarlySignalDistance && v.VY > 0.2 {
			st.Active = true
			return true
		}
	}
	return false
}

// Apply suppresses the ego's own rightward change and opens a gap.
func (l *ExitCourtesy) Apply(snap *obs.Snapshot, ego Ego, st *State, cmd action.Command) action.Command {
	if !st.Active {
		return cmd
	}
	if cmd.Intent == action.IntentRight {
		cmd.Intent = action.IntentNone
	}
	if l.cfg.GapProvision {
		cmd = brakeToward(cmd, ego.Speed, 0.95, l.cfg.MaxBraking)
	}
	return cmd
}

// #endregion exit-courtesy
