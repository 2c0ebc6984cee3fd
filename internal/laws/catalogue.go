package laws

import (
	"fmt"
	"sort"
	"strings"
)

// #region config

// Config aggregates every law's tuning. Zero-valued sections are filled from
// the per-law defaults by Default().
type Config struct {
	CooperativeMerging CooperativeMergingConfig
	PoliteYielding     PoliteYieldingConfig
	PhantomJam         PhantomJamConfig
	PoliteGapProvision PoliteGapProvisionConfig
	TurnTaking         TurnTakingConfig
	RightOfWay         RightOfWayConfig
	EntryFacilitation  EntryFacilitationConfig
	SmoothFlow         SmoothFlowConfig
	ExitCourtesy       ExitCourtesyConfig
	Overtaking         OvertakingConfig
	Defensive          DefensiveConfig
	Slipstream         SlipstreamConfig
}

// DefaultConfig returns every law's standard tuning.
func DefaultConfig() Config {
	return Config{
		CooperativeMerging: DefaultCooperativeMergingConfig(),
		PoliteYielding:     DefaultPoliteYieldingConfig(),
		PhantomJam:         DefaultPhantomJamConfig(),
		PoliteGapProvision: DefaultPoliteGapProvisionConfig(),
		TurnTaking:         DefaultTurnTakingConfig(),
		RightOfWay:         DefaultRightOfWayConfig(),
		EntryFacilitation:  DefaultEntryFacilitationConfig(),
		SmoothFlow:         DefaultSmoothFlowConfig(),
		ExitCourtesy:       DefaultExitCourtesyConfig(),
		Overtaking:         DefaultOvertakingConfig(),
		Defensive:          DefaultDefensiveConfig(),
		Slipstream:         DefaultSlipstreamConfig(),
	}
}

// #endregion config

// #region catalogue

// priorityOrder fixes both which laws exist and the order the chain folds
// them over the command. Higher-priority laws apply first; later laws see
// the already-transformed command.
var priorityOrder = []string{
	"cooperative_merging",
	"polite_yielding",
	"phantom_jam_mitigation",
	"polite_gap_provision",
	"cooperative_turn_taking",
	"adaptive_right_of_way",
	"entry_facilitation",
	"smooth_flow_maintenance",
	"exit_courtesy",
	"safe_overtaking_protocol",
	"defensive_positioning",
	"slipstream_cooperation",
}

// Names returns the catalogue's law names in priority order.
func Names() []string {
	out := make([]string, len(priorityOrder))
	copy(out, priorityOrder)
	return out
}

// construct builds one named law from the aggregate config.
func construct(name string, cfg Config) (Law, bool) {
	switch name {
	case "cooperative_merging":
		return NewCooperativeMerging(cfg.CooperativeMerging), true
	case "polite_yielding":
		return NewPoliteYielding(cfg.PoliteYielding), true
	case "phantom_jam_mitigation":
		return NewPhantomJamMitigation(cfg.PhantomJam), true
	case "polite_gap_provision":
		return NewPoliteGapProvision(cfg.PoliteGapProvision), true
	case "cooperative_turn_taking":
		return NewCooperativeTurnTaking(cfg.TurnTaking), true
	case "adaptive_right_of_way":
		return NewAdaptiveRightOfWay(cfg.RightOfWay), true
	case "entry_facilitation":
		return NewEntryFacilitation(cfg.EntryFacilitation), true
	case "smooth_flow_maintenance":
		return NewSmoothFlowMaintenance(cfg.SmoothFlow), true
	case "exit_courtesy":
		return NewExitCourtesy(cfg.ExitCourtesy), true
	case "safe_overtaking_protocol":
		return NewSafeOvertakingProtocol(cfg.Overtaking), true
	case "defensive_positioning":
		return NewDefensivePositioning(cfg.Defensive), true
	case "slipstream_cooperation":
		return NewSlipstreamCooperation(cfg.Slipstream), true
	}
	return nil, false
}

// All builds the full enabled set in priority order.
func All(cfg Config) []Law {
	out := make([]Law, 0, len(priorityOrder))
	for _, name := range priorityOrder {
		l, _ := construct(name, cfg)
		out = append(out, l)
	}
	return out
}

// Build constructs the named laws, re-sorted into priority order regardless
// of the order requested. An unknown name fails with UnknownSocialLawError.
func Build(names []string, cfg Config) ([]Law, error) {
	rank := make(map[string]int, len(priorityOrder))
	for i, n := range priorityOrder {
		rank[n] = i
	}
	for _, n := range names {
		if _, ok := rank[n]; !ok {
			return nil, &UnknownSocialLawError{Name: n}
		}
	}
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Slice(sorted, func(i, j int) bool { return rank[sorted[i]] < rank[sorted[j]] })

	out := make([]Law, 0, len(sorted))
	for _, n := range sorted {
		l, _ := construct(n, cfg)
		out = append(out, l)
	}
	return out, nil
}

// #endregion catalogue

// #region errors

// UnknownSocialLawError reports an ablation or composition request naming a
// law that is not in the catalogue. It is a fatal configuration error raised
// before any simulation starts.
type UnknownSocialLawError struct {
	Name string
}

func (e *UnknownSocialLawError) Error() string {
	return fmt.Sprintf("unknown social law %q; available: %s", e.Name, strings.Join(priorityOrder, ", "))
}

// #endregion errors
