package policy

import (
	"testing"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/action"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/laws"
)

func rawObs(egoY, egoSpeed float64, neighbors ...[4]float64) [][]float64 {
	raw := [][]float64{{1, 0, egoY, egoSpeed, 0}}
	for _, n := range neighbors {
		raw = append(raw, []float64{1, n[0], n[1], n[2], n[3]})
	}
	return raw
}

func TestEmptyObservationRecoversToMaintain(t *testing.T) {
	p := New(DefaultConfig(), nil)

	cmd, trace := p.Act(nil)
	if cmd != action.Maintain() {
		t.Fatalf("nil observation produced %+v, want maintain", cmd)
	}
	if !trace.Recovered {
		t.Error("trace does not mark the step as recovered")
	}
	if trace.Action != action.MetaIdle {
		t.Errorf("recovered action = %v, want IDLE", trace.Action)
	}

	// The agent keeps stepping normally afterwards.
	cmd, trace = p.Act(rawObs(0, 10))
	if trace.Recovered {
		t.Error("healthy observation marked recovered")
	}
	if cmd.Accel <= 0 {
		t.Errorf("free road at low speed: accel = %v, want > 0", cmd.Accel)
	}
}

func TestBaselineFreeRoadAccelerates(t *testing.T) {
	p := New(DefaultConfig(), nil)
	cmd, trace := p.Act(rawObs(0, 15))
	if cmd.Accel <= 0 || cmd.Intent != action.IntentNone {
		t.Fatalf("free road: %+v", cmd)
	}
	if trace.Action != action.MetaFaster {
		t.Errorf("trace action = %v, want FASTER", trace.Action)
	}
	if len(trace.ActiveLaws) != 0 {
		t.Errorf("baseline agent reports active laws %v", trace.ActiveLaws)
	}
}

func TestLawChainAppearsInTrace(t *testing.T) {
	cfg := DefaultConfig()
	set, err := laws.Build([]string{"cooperative_merging"}, laws.DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p := New(cfg, set)

	// Tight leader plus a merge-lane vehicle: the law activates and the
	// command is a deceleration.
	raw := rawObs(0, 20,
		[4]float64{5, 0, -2, 0},
		[4]float64{15, 4, -3, 0},
	)
	cmd, trace := p.Act(raw)
	if len(trace.ActiveLaws) != 1 || trace.ActiveLaws[0] != "cooperative_merging" {
		t.Fatalf("active laws = %v", trace.ActiveLaws)
	}
	if cmd.Accel >= 0 {
		t.Fatalf("merge assistance produced accel %v", cmd.Accel)
	}
}

func TestAblationMatchesBaselineWithoutTriggers(t *testing.T) {
	// polite_yielding enabled but never triggered: every step must be
	// bit-identical to the baseline agent on the same observations.
	set, err := laws.Build([]string{"polite_yielding"}, laws.DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ablation := New(DefaultConfig(), set)
	baseline := New(DefaultConfig(), nil)

	// A same-lane leader and a distant same-lane follower; nothing cuts in.
	scenes := [][][]float64{
		rawObs(0, 25, [4]float64{50, 0, -2, 0}),
		rawObs(0, 25, [4]float64{45, 0, -2, 0}, [4]float64{-60, 0, 1, 0}),
		rawObs(0, 24, [4]float64{40, 0, -1, 0}),
		rawObs(0, 24),
	}
	for i, raw := range scenes {
		a, at := ablation.Act(raw)
		b, bt := baseline.Act(raw)
		if a != b {
			t.Fatalf("step %d: ablation %+v differs from baseline %+v", i, a, b)
		}
		if at.Action != bt.Action || at.Intent != bt.Intent || at.Accel != bt.Accel {
			t.Fatalf("step %d: traces diverge: %+v vs %+v", i, at, bt)
		}
		if len(at.ActiveLaws) != 0 {
			t.Fatalf("step %d: yielding active without a trigger: %v", i, at.ActiveLaws)
		}
	}
}

func TestLawIntentNeverSurvivesSafetyRecheck(t *testing.T) {
	// MOBIL wants left around the slow leader, and the left follower is
	// close and fast, so the change is unsafe. With or without laws the
	// final intent must be none.
	cfg := DefaultConfig()
	cfg.Obs.LaneWidth = 4
	p := New(cfg, laws.All(laws.DefaultConfig()))

	raw := rawObs(4, 25, // ego in lane 1
		[4]float64{20, 0, -15, 0},
		[4]float64{-5, -4, 14, 0},
	)
	cmd, _ := p.Act(raw)
	if cmd.Intent == action.IntentLeft {
		t.Fatalf("unsafe left intent survived the re-check: %+v", cmd)
	}
}

func TestCooldownHoldsLaneAfterChange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MOBIL.CooldownSteps = 5
	p := New(cfg, nil)

	// Rightmost lane, slow leader, empty left lane: the first step changes
	// left, then the cooldown pins the lane.
	blocked := rawObs(2*4.0, 25, [4]float64{15, 0, -18, 0})
	cmd, _ := p.Act(blocked)
	if cmd.Intent != action.IntentLeft {
		t.Fatalf("expected a left change, got %+v", cmd)
	}
	for i := 0; i < 5; i++ {
		cmd, _ = p.Act(blocked)
		if cmd.Intent != action.IntentNone {
			t.Fatalf("cooldown step %d produced intent %v", i, cmd.Intent)
		}
	}
}

func TestResetClearsLawStateAndCounters(t *testing.T) {
	set, err := laws.Build([]string{"polite_yielding", "phantom_jam_mitigation"}, laws.DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p := New(DefaultConfig(), set)

	// Trigger yielding with a slow alongside vehicle.
	raw := rawObs(0, 25, [4]float64{5, -4, -10, 0})
	_, trace := p.Act(raw)
	if len(trace.ActiveLaws) == 0 {
		t.Fatal("setup failed to activate any law")
	}

	p.Reset()

	// After reset the same clear scene shows no residual activation and the
	// step counter restarts.
	_, trace = p.Act(rawObs(0, 25))
	if len(trace.ActiveLaws) != 0 {
		t.Fatalf("laws still active after reset: %v", trace.ActiveLaws)
	}
	if trace.Step != 0 {
		t.Errorf("step counter = %d after reset, want 0", trace.Step)
	}
}
