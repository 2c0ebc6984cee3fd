package replay

import (
	"encoding/json"
	"fmt"
	"os"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a recorded episode: one
// agent's observations plus the action the engine chose at every step.
// Replaying it through a fresh engine must reproduce the actions exactly.
type Fixture struct {
	Description string        `json:"description"`
	Laws        []string      `json:"laws"`
	Engine      FixtureEngine `json:"engine"`
	Steps       []FixtureStep `json:"steps"`
}

// FixtureEngine pins the engine tuning the episode was recorded with.
// Zero-valued fields fall back to the defaults.
type FixtureEngine struct {
	LaneCount        int     `json:"lane_count"`
	DesiredVelocity  float64 `json:"desired_velocity"`
	TimeHeadway      float64 `json:"time_headway"`
	PolitenessFactor float64 `json:"politeness_factor"`
	CooldownSteps    int     `json:"cooldown_steps"`
}

// FixtureStep is one recorded decision step.
type FixtureStep struct {
	Step        int             `json:"step"`
	Observation [][]float64     `json:"observation"`
	Expected    FixtureExpected `json:"expected"`
}

// FixtureExpected captures the recorded decision.
type FixtureExpected struct {
	Action     string   `json:"action"`
	Intent     string   `json:"intent"`
	Accel      float64  `json:"accel"`
	ActiveLaws []string `json:"active_laws,omitempty"`
}

// #endregion fixture-types

// #region fixture-io

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture serializes a fixture to disk.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion fixture-io
