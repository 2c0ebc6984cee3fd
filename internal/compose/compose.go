// Package compose builds agent populations from a composition spec:
// homogeneous selfish or cooperative fleets, seeded mixed fleets, and
// single-law ablations.
package compose

import (
	"fmt"
	"math/rand"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/laws"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/policy"
)

// #region spec

// Kind selects the composition strategy.
type Kind string

const (
	KindSelfish     Kind = "selfish"
	KindCooperative Kind = "cooperative"
	KindMixed       Kind = "mixed"
	KindAblation    Kind = "ablation"
)

// PolicySpec describes one population to build.
type PolicySpec struct {
	Kind             Kind
	Agents           int
	CooperativeRatio float64  // mixed only: probability an agent is cooperative
	AblationLaw      string   // ablation only: the single law to enable
	CooperativeLaws  []string // cooperative and mixed: law subset, empty = full catalogue
}

// #endregion spec

// #region composer

// Agent pairs a built policy with its assigned type, fixed for the run.
type Agent struct {
	Policy      *policy.Policy
	Cooperative bool
}

// Composer builds populations deterministically from its seeded generator.
// The same seed and spec always produce the same per-agent assignment.
type Composer struct {
	engine policy.Config
	laws   laws.Config
	rng    *rand.Rand
}

// New builds a composer owning its own seeded generator.
func New(engine policy.Config, lawCfg laws.Config, seed int64) *Composer {
	return &Composer{
		engine: engine,
		laws:   lawCfg,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// BuildPopulation constructs one policy per agent. Type assignment happens
// here, at population-build time, and never changes during the run. An
// ablation naming a law outside the catalogue fails before any simulation
// starts.
func (c *Composer) BuildPopulation(spec PolicySpec) ([]Agent, error) {
	if spec.Agents <= 0 {
		return nil, fmt.Errorf("composition needs at least one agent, got %d", spec.Agents)
	}

	cooperativeSet := func() ([]laws.Law, bool, error) {
		if len(spec.CooperativeLaws) > 0 {
			set, err := laws.Build(spec.CooperativeLaws, c.laws)
			return set, true, err
		}
		return laws.All(c.laws), true, nil
	}

	var buildLaws func() ([]laws.Law, bool, error)
	switch spec.Kind {
	case KindSelfish:
		buildLaws = func() ([]laws.Law, bool, error) { return nil, false, nil }
	case KindCooperative:
		buildLaws = cooperativeSet
	case KindMixed:
		buildLaws = func() ([]laws.Law, bool, error) {
			if c.rng.Float64() < spec.CooperativeRatio {
				return cooperativeSet()
			}
			return nil, false, nil
		}
	case KindAblation:
		buildLaws = func() ([]laws.Law, bool, error) {
			set, err := laws.Build([]string{spec.AblationLaw}, c.laws)
			return set, true, err
		}
	default:
		return nil, fmt.Errorf("unknown composition kind %q", spec.Kind)
	}

	population := make([]Agent, spec.Agents)
	for i := range population {
		set, cooperative, err := buildLaws()
		if err != nil {
			return nil, err
		}
		population[i] = Agent{
			Policy:      policy.New(c.engine, set),
			Cooperative: cooperative,
		}
	}
	return population, nil
}

// #endregion composer
