package laws

import (
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/action"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/idm"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/obs"
)

// #region phantom-jam-mitigation

// PhantomJamConfig tunes the density-reactive headway law.
type PhantomJamConfig struct {
	DensityThreshold float64 // activation density, veh/km/lane
	HysteresisMargin float64 // release at threshold minus this margin
	IncreasedHeadway float64 // headway while active, s
	WindowM          float64 // longitudinal density window, m
}

// DefaultPhantomJamConfig returns the standard density-reaction tuning.
func DefaultPhantomJamConfig() PhantomJamConfig {
	return PhantomJamConfig{
		DensityThreshold: 40.0,
		HysteresisMargin: 5.0,
		IncreasedHeadway: 2.0,
		WindowM:          100.0,
	}
}

// PhantomJamMitigation lengthens the time headway in dense traffic so speed
// ripples are absorbed instead of amplified. Activation is hysteretic: the
// law releases only once density falls a margin below the trigger threshold,
// and re-triggering while active changes nothing.
type PhantomJamMitigation struct {
	cfg PhantomJamConfig
}

// NewPhantomJamMitigation builds the law.
func NewPhantomJamMitigation(cfg PhantomJamConfig) *PhantomJamMitigation {
	return &PhantomJamMitigation{cfg: cfg}
}

func (l *PhantomJamMitigation) Name() string { return "phantom_jam_mitigation" }

// DetectTrigger updates the hysteretic active flag from the local density.
func (l *PhantomJamMitigation) DetectTrigger(snap *obs.Snapshot, ego Ego, st *State) bool {
	lanes := ego.LaneCount
	if lanes < 1 {
		lanes = 1
	}
	density := snap.LocalDensity(l.cfg.WindowM, lanes)
	if st.Active {
		if density < l.cfg.DensityThreshold-l.cfg.HysteresisMargin {
			st.Active = false
		}
	} else if density > l.cfg.DensityThreshold {
		st.Active = true
	}
	return st.Active
}

// Overrides lengthens the headway fed to the longitudinal controller while
// the law is active. The command itself is untouched.
func (l *PhantomJamMitigation) Overrides(st *State) idm.Overrides {
	if !st.Active {
		return idm.Overrides{}
	}
	return idm.Overrides{THeadway: l.cfg.IncreasedHeadway}
}

// Apply is the identity; the whole effect runs through Overrides.
func (l *PhantomJamMitigation) Apply(snap *obs.Snapshot, ego Ego, st *State, cmd action.Command) action.Command {
	return cmd
}

// #endregion phantom-jam-mitigation
