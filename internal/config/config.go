// Package config loads and validates the study configuration: baseline
// controller tuning, per-law parameters, simulation shape, and output paths.
// Timer-valued law parameters are written in seconds and converted to steps
// at the configured policy frequency.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/idm"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/laws"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/mobil"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/obs"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/policy"
)

// #region schema

// IDM is the longitudinal controller section.
type IDM struct {
	TimeHeadway             float64 `yaml:"time_headway"`
	MaxAcceleration         float64 `yaml:"max_acceleration"`
	ComfortableDeceleration float64 `yaml:"comfortable_deceleration"`
	MaxDeceleration         float64 `yaml:"max_deceleration"`
	DesiredVelocity         float64 `yaml:"desired_velocity"`
	MinimumSpacing          float64 `yaml:"minimum_spacing"`
}

// MOBIL is the lane-change section.
type MOBIL struct {
	PolitenessFactor    float64 `yaml:"politeness_factor"`
	LaneChangeThreshold float64 `yaml:"lane_change_threshold"`
	MaxSafeDeceleration float64 `yaml:"max_safe_deceleration"`
	LaneBias            float64 `yaml:"lane_bias"`
	CooldownSeconds     float64 `yaml:"cooldown_seconds"`
}

// Baseline groups the selfish controller sections.
type Baseline struct {
	IDM   IDM   `yaml:"idm"`
	MOBIL MOBIL `yaml:"mobil"`
}

// SocialLaw is one law's YAML section. Only the keys a law uses are read;
// unknown keys in a section are ignored so per-law sections stay free-form.
type SocialLaw struct {
	Enabled *bool `yaml:"enabled"`

	DecelerationFactor   float64 `yaml:"deceleration_factor"`
	DetectionDistance    float64 `yaml:"detection_distance"`
	SpeedReductionFactor float64 `yaml:"speed_reduction_factor"`
	GapCreationTime      float64 `yaml:"gap_creation_time"`
	DensityThreshold     float64 `yaml:"density_threshold"`
	HysteresisMargin     float64 `yaml:"hysteresis_margin"`
	IncreasedTimeHeadway float64 `yaml:"increased_time_headway"`
	GapExtensionTime     float64 `yaml:"gap_extension_time"`
	DetectionRange       float64 `yaml:"detection_range"`

	MaxConsecutiveThrough int     `yaml:"max_consecutive_through"`
	TurnWaitThreshold     float64 `yaml:"turn_wait_threshold"`
	CourtesyGapSize       float64 `yaml:"courtesy_gap_size"`

	BaseWaitTime       float64 `yaml:"base_wait_time"`
	WaitTimeMultiplier float64 `yaml:"wait_time_multiplier"`
	EmergencyOverride  *bool   `yaml:"emergency_override"`

	EntryDetectionDistance   float64 `yaml:"entry_detection_distance"`
	FacilitationSpeedFactor  float64 `yaml:"facilitation_speed_factor"`
	GapCreationDistance      float64 `yaml:"gap_creation_distance"`
	TargetSpacingFactor      float64 `yaml:"target_spacing_factor"`
	SpeedHarmonizationRate   float64 `yaml:"speed_harmonization_rate"`
	AccordionThreshold       float64 `yaml:"accordion_prevention_threshold"`
	EarlySignalDistance      float64 `yaml:"early_signal_distance"`
	MinSpeedDifferential     float64 `yaml:"minimum_speed_differential"`
	SafeOvertakingDistance   float64 `yaml:"safe_overtaking_distance"`
	AbortThreshold           float64 `yaml:"abort_threshold"`
	SpeedDifferentialThresh  float64 `yaml:"speed_differential_threshold"`
	DefensiveGapSize         float64 `yaml:"defensive_gap_size"`
	CooperationSpeedRange    []float64 `yaml:"cooperation_speed_range"`
	LeadConsistencyFactor    float64 `yaml:"lead_consistency_factor"`
	AlternatingLeadDistance  float64 `yaml:"alternating_lead_distance"`
}

// Simulation is the run-shape section.
type Simulation struct {
	DurationSteps    int     `yaml:"duration_steps"`
	NumRunsPerConfig int     `yaml:"num_runs_per_config"`
	PolicyFrequency  float64 `yaml:"policy_frequency"`
	LaneCount        int     `yaml:"lane_count"`
	VehicleCount     int     `yaml:"vehicle_count"`
	Seed             int64   `yaml:"seed"`
}

// Observation is the sensing section.
type Observation struct {
	Convention    string  `yaml:"convention"`
	SensorHorizon float64 `yaml:"sensor_horizon"`
	LaneWidth     float64 `yaml:"lane_width"`
	MaxVehicles   int     `yaml:"max_vehicles"`
	DensityWindow float64 `yaml:"density_window_m"`
}

// Metrics is the evaluation section.
type Metrics struct {
	TTCThreshold float64 `yaml:"ttc_threshold"` // near-miss time-to-collision, s
}

// Output is the artifact-destination section.
type Output struct {
	ResultsDir   string `yaml:"results_dir"`
	PlotsDir     string `yaml:"plots_dir"`
	DataFilename string `yaml:"data_filename"`
	DatabasePath string `yaml:"database_path"`
}

// Config is the full study configuration.
type Config struct {
	Baseline    Baseline             `yaml:"baseline"`
	SocialLaws  map[string]SocialLaw `yaml:"social_laws"`
	Simulation  Simulation           `yaml:"simulation"`
	Observation Observation          `yaml:"observation"`
	Metrics     Metrics              `yaml:"metrics"`
	Output      Output               `yaml:"output"`
}

// #endregion schema

// #region defaults

// Default returns the full standard configuration.
func Default() Config {
	return Config{
		Baseline: Baseline{
			IDM: IDM{
				TimeHeadway:             1.5,
				MaxAcceleration:         3.0,
				ComfortableDeceleration: 3.0,
				MaxDeceleration:         9.0,
				DesiredVelocity:         30.0,
				MinimumSpacing:          2.0,
			},
			MOBIL: MOBIL{
				PolitenessFactor:    0.1,
				LaneChangeThreshold: 0.2,
				MaxSafeDeceleration: 4.0,
				LaneBias:            0.0,
				CooldownSeconds:     1.0,
			},
		},
		SocialLaws: map[string]SocialLaw{},
		Simulation: Simulation{
			DurationSteps:    1000,
			NumRunsPerConfig: 5,
			PolicyFrequency:  10.0,
			LaneCount:        3,
			VehicleCount:     30,
			Seed:             1,
		},
		Observation: Observation{
			Convention:    string(obs.ConventionRelative),
			SensorHorizon: 100.0,
			LaneWidth:     4.0,
			MaxVehicles:   14,
			DensityWindow: 100.0,
		},
		Metrics: Metrics{
			TTCThreshold: 2.0,
		},
		Output: Output{
			ResultsDir:   "results",
			PlotsDir:     "plots",
			DataFilename: "results.csv",
			DatabasePath: "results/study.db",
		},
	}
}

// #endregion defaults

// #region load

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations that would make the controllers ill-posed.
func (c *Config) Validate() error {
	b := c.Baseline.IDM
	if b.MaxAcceleration <= 0 || b.ComfortableDeceleration <= 0 {
		return fmt.Errorf("baseline.idm: accelerations must be positive (a_max=%v, b_comfort=%v)", b.MaxAcceleration, b.ComfortableDeceleration)
	}
	if b.TimeHeadway <= 0 || b.DesiredVelocity <= 0 || b.MinimumSpacing <= 0 {
		return fmt.Errorf("baseline.idm: headway, desired velocity, and spacing must be positive")
	}
	m := c.Baseline.MOBIL
	if m.PolitenessFactor < 0 || m.MaxSafeDeceleration <= 0 {
		return fmt.Errorf("baseline.mobil: politeness must be non-negative and safe braking positive")
	}
	s := c.Simulation
	if s.PolicyFrequency <= 0 {
		return fmt.Errorf("simulation.policy_frequency must be positive, got %v", s.PolicyFrequency)
	}
	if s.DurationSteps <= 0 || s.LaneCount <= 0 {
		return fmt.Errorf("simulation: duration_steps and lane_count must be positive")
	}
	if c.Metrics.TTCThreshold <= 0 {
		return fmt.Errorf("metrics.ttc_threshold must be positive, got %v", c.Metrics.TTCThreshold)
	}
	for name := range c.SocialLaws {
		known := false
		for _, n := range laws.Names() {
			if n == name {
				known = true
				break
			}
		}
		if !known {
			return &laws.UnknownSocialLawError{Name: name}
		}
	}
	return nil
}

// Dt returns the step duration in seconds.
func (c *Config) Dt() float64 {
	return 1.0 / c.Simulation.PolicyFrequency
}

// steps converts a seconds-valued law parameter to policy steps, rounding
// up so short timers never vanish.
func (c *Config) steps(seconds float64) int {
	n := int(seconds*c.Simulation.PolicyFrequency + 0.5)
	if seconds > 0 && n == 0 {
		n = 1
	}
	return n
}

// #endregion load

// #region translation

// EngineConfig translates the configuration into the per-agent engine tuning.
func (c *Config) EngineConfig() policy.Config {
	return policy.Config{
		Obs: obs.Config{
			Convention:    obs.Convention(c.Observation.Convention),
			SensorHorizon: c.Observation.SensorHorizon,
			LaneWidth:     c.Observation.LaneWidth,
			MaxVehicles:   c.Observation.MaxVehicles,
		},
		IDM: idm.Params{
			AMax:     c.Baseline.IDM.MaxAcceleration,
			BComfort: c.Baseline.IDM.ComfortableDeceleration,
			BMax:     c.Baseline.IDM.MaxDeceleration,
			THeadway: c.Baseline.IDM.TimeHeadway,
			S0:       c.Baseline.IDM.MinimumSpacing,
			V0:       c.Baseline.IDM.DesiredVelocity,
			Delta:    4.0,
		},
		MOBIL: mobil.Config{
			Politeness:         c.Baseline.MOBIL.PolitenessFactor,
			SwitchingThreshold: c.Baseline.MOBIL.LaneChangeThreshold,
			SafeBrakingLimit:   c.Baseline.MOBIL.MaxSafeDeceleration,
			LaneBias:           c.Baseline.MOBIL.LaneBias,
			CooldownSteps:      c.steps(c.Baseline.MOBIL.CooldownSeconds),
		},
		LaneCount: c.Simulation.LaneCount,
	}
}

// LawConfig translates the per-law sections into the law-layer tuning,
// converting seconds-valued timers into steps.
func (c *Config) LawConfig() laws.Config {
	lc := laws.DefaultConfig()
	lc.CooperativeMerging.ComfortBraking = c.Baseline.IDM.ComfortableDeceleration
	lc.CooperativeMerging.MinSpacing = c.Baseline.IDM.MinimumSpacing
	lc.PhantomJam.WindowM = c.Observation.DensityWindow

	for name, s := range c.SocialLaws {
		switch name {
		case "cooperative_merging":
			setF(&lc.CooperativeMerging.DecelFactor, s.DecelerationFactor)
			setF(&lc.CooperativeMerging.DetectionDistance, s.DetectionDistance)
		case "polite_yielding":
			setF(&lc.PoliteYielding.SpeedFactor, s.SpeedReductionFactor)
			if s.GapCreationTime > 0 {
				lc.PoliteYielding.GapCreationSteps = c.steps(s.GapCreationTime)
			}
		case "phantom_jam_mitigation":
			setF(&lc.PhantomJam.DensityThreshold, s.DensityThreshold)
			setF(&lc.PhantomJam.HysteresisMargin, s.HysteresisMargin)
			setF(&lc.PhantomJam.IncreasedHeadway, s.IncreasedTimeHeadway)
		case "polite_gap_provision":
			if s.GapExtensionTime > 0 {
				lc.PoliteGapProvision.ExtensionSteps = c.steps(s.GapExtensionTime)
			}
			setF(&lc.PoliteGapProvision.DetectionRange, s.DetectionRange)
			setF(&lc.PoliteGapProvision.SpeedFactor, s.SpeedReductionFactor)
		case "cooperative_turn_taking":
			if s.MaxConsecutiveThrough > 0 {
				lc.TurnTaking.MaxConsecutiveThrough = s.MaxConsecutiveThrough
			}
			if s.TurnWaitThreshold > 0 {
				lc.TurnTaking.YieldSteps = c.steps(s.TurnWaitThreshold)
			}
			setF(&lc.TurnTaking.CourtesyGapSize, s.CourtesyGapSize)
		case "adaptive_right_of_way":
			if s.BaseWaitTime > 0 {
				lc.RightOfWay.BaseWaitSteps = c.steps(s.BaseWaitTime)
			}
			setF(&lc.RightOfWay.WaitMultiplier, s.WaitTimeMultiplier)
			if s.EmergencyOverride != nil {
				lc.RightOfWay.EmergencyOverride = *s.EmergencyOverride
			}
		case "entry_facilitation":
			setF(&lc.EntryFacilitation.DetectionDistance, s.EntryDetectionDistance)
			setF(&lc.EntryFacilitation.SpeedFactor, s.FacilitationSpeedFactor)
			setF(&lc.EntryFacilitation.GapCreationDistance, s.GapCreationDistance)
		case "smooth_flow_maintenance":
			setF(&lc.SmoothFlow.TargetSpacingFactor, s.TargetSpacingFactor)
			setF(&lc.SmoothFlow.HarmonizationRate, s.SpeedHarmonizationRate)
			setF(&lc.SmoothFlow.AccordionThreshold, s.AccordionThreshold)
		case "exit_courtesy":
			setF(&lc.ExitCourtesy.EarlySignalDistance, s.EarlySignalDistance)
		case "safe_overtaking_protocol":
			setF(&lc.Overtaking.MinSpeedDifferential, s.MinSpeedDifferential)
			setF(&lc.Overtaking.SafeDistance, s.SafeOvertakingDistance)
			setF(&lc.Overtaking.AbortThreshold, s.AbortThreshold)
		case "defensive_positioning":
			setF(&lc.Defensive.SpeedDiffThreshold, s.SpeedDifferentialThresh)
			setF(&lc.Defensive.DefensiveGapSize, s.DefensiveGapSize)
		case "slipstream_cooperation":
			if len(s.CooperationSpeedRange) == 2 {
				// The range is written in km/h like the source docs.
				lc.Slipstream.MinSpeed = s.CooperationSpeedRange[0] / 3.6
				lc.Slipstream.MaxSpeed = s.CooperationSpeedRange[1] / 3.6
			}
			setF(&lc.Slipstream.ConsistencyGain, s.LeadConsistencyFactor)
		}
	}
	return lc
}

// EnabledLaws returns the law names enabled in the social_laws section, in
// no particular order; the catalogue restores priority order at build time.
// A section without an explicit enabled key counts as enabled.
func (c *Config) EnabledLaws() []string {
	var out []string
	for name, s := range c.SocialLaws {
		if s.Enabled == nil || *s.Enabled {
			out = append(out, name)
		}
	}
	return out
}

func setF(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// #endregion translation
