package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/laws"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	engine := cfg.EngineConfig()
	if engine.IDM.THeadway != 1.5 || engine.IDM.V0 != 30.0 {
		t.Errorf("engine IDM defaults wrong: %+v", engine.IDM)
	}
	if engine.MOBIL.CooldownSteps != 10 {
		t.Errorf("cooldown = %d steps, want 10 (1.0s at 10Hz)", engine.MOBIL.CooldownSteps)
	}
	if cfg.Metrics.TTCThreshold != 2.0 {
		t.Errorf("ttc threshold = %v, want 2.0", cfg.Metrics.TTCThreshold)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
baseline:
  idm:
    time_headway: 2.0
  mobil:
    politeness_factor: 0.3
simulation:
  policy_frequency: 20
social_laws:
  polite_yielding:
    gap_creation_time: 2.0
  phantom_jam_mitigation:
    density_threshold: 50
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Baseline.IDM.TimeHeadway != 2.0 {
		t.Errorf("time_headway = %v, want 2.0", cfg.Baseline.IDM.TimeHeadway)
	}
	// Untouched keys keep their defaults.
	if cfg.Baseline.IDM.DesiredVelocity != 30.0 {
		t.Errorf("desired_velocity lost its default: %v", cfg.Baseline.IDM.DesiredVelocity)
	}
	if cfg.Baseline.MOBIL.PolitenessFactor != 0.3 {
		t.Errorf("politeness = %v, want 0.3", cfg.Baseline.MOBIL.PolitenessFactor)
	}

	lc := cfg.LawConfig()
	// 2.0s at 20Hz.
	if lc.PoliteYielding.GapCreationSteps != 40 {
		t.Errorf("gap creation steps = %d, want 40", lc.PoliteYielding.GapCreationSteps)
	}
	if lc.PhantomJam.DensityThreshold != 50 {
		t.Errorf("density threshold = %v, want 50", lc.PhantomJam.DensityThreshold)
	}
}

func TestLoadRejectsUnknownLawSection(t *testing.T) {
	path := writeConfig(t, `
social_laws:
  road_rage_mitigation:
    enabled: true
`)
	_, err := Load(path)
	var unknown *laws.UnknownSocialLawError
	if !errors.As(err, &unknown) {
		t.Fatalf("got %v, want UnknownSocialLawError", err)
	}
}

func TestValidateRejectsIllPosedControllers(t *testing.T) {
	cfg := Default()
	cfg.Baseline.IDM.MaxAcceleration = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero a_max accepted")
	}

	cfg = Default()
	cfg.Simulation.PolicyFrequency = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero policy frequency accepted")
	}
}

func TestEnabledLawsHonorsExplicitDisable(t *testing.T) {
	off := false
	cfg := Default()
	cfg.SocialLaws = map[string]SocialLaw{
		"polite_yielding":        {},
		"cooperative_merging":    {Enabled: &off},
		"phantom_jam_mitigation": {},
	}
	enabled := cfg.EnabledLaws()
	if len(enabled) != 2 {
		t.Fatalf("enabled = %v, want 2 laws", enabled)
	}
	for _, n := range enabled {
		if n == "cooperative_merging" {
			t.Error("explicitly disabled law still enabled")
		}
	}
}

func TestDtFollowsFrequency(t *testing.T) {
	cfg := Default()
	cfg.Simulation.PolicyFrequency = 25
	if cfg.Dt() != 0.04 {
		t.Errorf("dt = %v, want 0.04", cfg.Dt())
	}
}
