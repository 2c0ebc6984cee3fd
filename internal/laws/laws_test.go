package laws

import (
	"errors"
	"strings"
	"testing"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/action"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/obs"
)

func snapshot(t *testing.T, egoSpeed float64, neighbors ...obs.VehicleObservation) *obs.Snapshot {
	t.Helper()
	raw := [][]float64{{1, 0, 0, egoSpeed, 0}}
	for _, n := range neighbors {
		raw = append(raw, []float64{1, n.X, n.Y, n.VX, n.VY})
	}
	cfg := obs.DefaultConfig()
	cfg.MaxVehicles = 32
	snap, err := obs.Normalize(raw, cfg)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return snap
}

func TestCatalogueCoversAllLaws(t *testing.T) {
	names := Names()
	if len(names) != 12 {
		t.Fatalf("catalogue has %d laws, want 12", len(names))
	}
	built := All(DefaultConfig())
	for i, l := range built {
		if l == nil {
			t.Fatalf("law %q did not construct", names[i])
		}
		if l.Name() != names[i] {
			t.Errorf("law %d named %q, want %q", i, l.Name(), names[i])
		}
	}
}

func TestBuildRejectsUnknownLaw(t *testing.T) {
	_, err := Build([]string{"polite_yielding", "tailgating_aggressively"}, DefaultConfig())
	var unknown *UnknownSocialLawError
	if !errors.As(err, &unknown) {
		t.Fatalf("got %v, want UnknownSocialLawError", err)
	}
	// The error must enumerate the valid names.
	for _, name := range Names() {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error message missing catalogue name %q", name)
		}
	}
}

func TestBuildRestoresPriorityOrder(t *testing.T) {
	built, err := Build([]string{"defensive_positioning", "cooperative_merging", "phantom_jam_mitigation"}, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{"cooperative_merging", "phantom_jam_mitigation", "defensive_positioning"}
	for i, l := range built {
		if l.Name() != want[i] {
			t.Fatalf("position %d holds %q, want %q", i, l.Name(), want[i])
		}
	}
}

func TestPhantomJamHysteresis(t *testing.T) {
	law := NewPhantomJamMitigation(DefaultPhantomJamConfig())
	var st State
	ego := Ego{Speed: 15, LaneCount: 1}

	// Nine same-lane neighbors inside the 100m window: 50 veh/km, over the
	// threshold of 40.
	dense := make([]obs.VehicleObservation, 9)
	for i := range dense {
		dense[i] = obs.VehicleObservation{X: float64(10 * (i + 1)), Y: 0, VX: -1}
	}
	if !law.DetectTrigger(snapshot(t, 15, dense...), ego, &st) {
		t.Fatal("dense traffic did not trigger")
	}
	if ov := law.Overrides(&st); ov.THeadway != 2.0 {
		t.Fatalf("active override headway = %v, want 2.0", ov.THeadway)
	}

	// Re-triggering while active does not stack: the override is the same
	// fixed increased value.
	law.DetectTrigger(snapshot(t, 15, dense...), ego, &st)
	if ov := law.Overrides(&st); ov.THeadway != 2.0 {
		t.Fatalf("re-trigger changed override to %v", ov.THeadway)
	}

	// Six neighbors: 35 veh/km, inside the hysteresis band
	// (threshold 40, margin 5): must stay active.
	if !law.DetectTrigger(snapshot(t, 15, dense[:6]...), ego, &st) {
		t.Fatal("law released inside the hysteresis band")
	}

	// Four neighbors: 25 veh/km, below threshold-margin: releases.
	if law.DetectTrigger(snapshot(t, 15, dense[:4]...), ego, &st) {
		t.Fatal("law stayed active below the release density")
	}
	if ov := law.Overrides(&st); ov.THeadway != 0 {
		t.Fatalf("released law still overrides headway: %v", ov.THeadway)
	}
}

func TestPoliteYieldingTimerPersistsAndDecays(t *testing.T) {
	cfg := DefaultPoliteYieldingConfig()
	cfg.GapCreationSteps = 3
	law := NewPoliteYielding(cfg)
	var st State
	ego := Ego{Speed: 25, Lane: 1, LaneCount: 3}

	// A slow vehicle alongside in the left lane signals a cut-in.
	cutIn := snapshot(t, 25, obs.VehicleObservation{X: 5, Y: -4, VX: -10})
	if !law.DetectTrigger(cutIn, ego, &st) {
		t.Fatal("cut-in signal did not trigger")
	}
	if st.Timer != 3 {
		t.Fatalf("timer = %d, want 3", st.Timer)
	}

	// Signal disappears; yielding persists while the timer runs, one
	// decrement per applied step.
	clear := snapshot(t, 25)
	for i := 3; i > 0; i-- {
		if !law.DetectTrigger(clear, ego, &st) {
			t.Fatalf("yield released early with timer at %d", st.Timer)
		}
		out := law.Apply(clear, ego, &st, action.Command{Accel: 1.0})
		if out.Accel >= 0 {
			t.Fatalf("yielding step produced accel %v, want braking", out.Accel)
		}
		if st.Timer != i-1 {
			t.Fatalf("timer = %d after step, want %d", st.Timer, i-1)
		}
	}
	if law.DetectTrigger(clear, ego, &st) {
		t.Fatal("yield persisted past an exhausted timer")
	}
}

func TestCooperativeMergingScenario(t *testing.T) {
	// Ego at 20 m/s with a leader 5m ahead and a merge-lane vehicle inside
	// detection range: the law must activate and force a bounded deceleration.
	law := NewCooperativeMerging(DefaultCooperativeMergingConfig())
	var st State
	ego := Ego{Speed: 20, LaneCount: 2}

	snap := snapshot(t, 20,
		obs.VehicleObservation{X: 5, Y: 0, VX: -2},
		obs.VehicleObservation{X: 15, Y: 4, VX: -3},
	)
	if !law.DetectTrigger(snap, ego, &st) {
		t.Fatal("tight merge did not trigger")
	}
	out := law.Apply(snap, ego, &st, action.Command{Accel: 3.0, Intent: action.IntentLeft})
	if out.Accel >= 0 {
		t.Fatalf("merge assistance kept accel %v, want deceleration", out.Accel)
	}
	wantDecel := -0.8 * 3.0
	if out.Accel != wantDecel {
		t.Errorf("decel = %v, want %v", out.Accel, wantDecel)
	}
	if out.Intent != action.IntentNone {
		t.Errorf("merge assistance kept lane intent %v", out.Intent)
	}
}

func TestCooperativeMergingIgnoresOpenRoad(t *testing.T) {
	law := NewCooperativeMerging(DefaultCooperativeMergingConfig())
	var st State
	// Merge-side vehicle present but no leader: space is trivially enough.
	snap := snapshot(t, 20, obs.VehicleObservation{X: 15, Y: 4, VX: -3})
	if law.DetectTrigger(snap, Ego{Speed: 20}, &st) {
		t.Fatal("open road triggered merge assistance")
	}
}

func TestSafeOvertakingCancelsWeakPass(t *testing.T) {
	law := NewSafeOvertakingProtocol(DefaultOvertakingConfig())
	var st State
	ego := Ego{Speed: 25, Lane: 1, LaneCount: 3}

	// Leader only 3 m/s slower: below the 10 m/s differential.
	snap := snapshot(t, 25, obs.VehicleObservation{X: 30, Y: 0, VX: -3})
	law.DetectTrigger(snap, ego, &st)
	out := law.Apply(snap, ego, &st, action.Command{Intent: action.IntentLeft})
	if out.Intent != action.IntentNone {
		t.Fatalf("weak pass kept intent %v", out.Intent)
	}

	// Fast leader differential but passing lane occupied inside abort range.
	snap = snapshot(t, 25,
		obs.VehicleObservation{X: 30, Y: 0, VX: -15},
		obs.VehicleObservation{X: 10, Y: -4, VX: 0},
	)
	law.DetectTrigger(snap, ego, &st)
	out = law.Apply(snap, ego, &st, action.Command{Accel: 1.0, Intent: action.IntentLeft})
	if out.Intent != action.IntentNone {
		t.Fatal("occupied passing lane did not abort the pass")
	}
	if out.Accel >= 1.0 {
		t.Error("abort did not ease off")
	}
}

func TestDefensivePositioningYieldsToFastApproacher(t *testing.T) {
	law := NewDefensivePositioning(DefaultDefensiveConfig())
	var st State
	ego := Ego{Speed: 25, Lane: 1, LaneCount: 3}

	snap := snapshot(t, 25, obs.VehicleObservation{X: -15, Y: -4, VX: 20})
	if !law.DetectTrigger(snap, ego, &st) {
		t.Fatal("fast approacher did not trigger")
	}
	out := law.Apply(snap, ego, &st, action.Command{Accel: 2.0, Intent: action.IntentLeft})
	if out.Accel != 0 {
		t.Errorf("accel = %v, want held at 0", out.Accel)
	}
	if out.Intent != action.IntentNone {
		t.Errorf("intent = %v, want suppressed", out.Intent)
	}
	// Braking commands pass through untouched.
	out = law.Apply(snap, ego, &st, action.Command{Accel: -2.0})
	if out.Accel != -2.0 {
		t.Errorf("braking command modified to %v", out.Accel)
	}
}

func TestTurnTakingYieldsAfterQuota(t *testing.T) {
	cfg := DefaultTurnTakingConfig()
	cfg.MaxConsecutiveThrough = 2
	cfg.YieldSteps = 4
	law := NewCooperativeTurnTaking(cfg)
	var st State
	ego := Ego{Speed: 10, LaneCount: 2}

	// A near-stationary conflict vehicle alongside.
	waiting := snapshot(t, 10, obs.VehicleObservation{X: 5, Y: 4, VX: -9.5})

	for i := 0; i < 2; i++ {
		if law.DetectTrigger(waiting, ego, &st) {
			t.Fatalf("yielded on through pass %d, quota is 2", i+1)
		}
	}
	if !law.DetectTrigger(waiting, ego, &st) {
		t.Fatal("quota exceeded without a yield")
	}
	out := law.Apply(waiting, ego, &st, action.Command{Accel: 1.0, Intent: action.IntentRight})
	if out.Accel >= 0 || out.Intent != action.IntentNone {
		t.Fatalf("yield produced %+v, want braking with no intent", out)
	}
	if st.Counter != 0 {
		t.Errorf("counter = %d after yield start, want reset to 0", st.Counter)
	}
}

func TestStateResetZeroesEverything(t *testing.T) {
	st := State{Active: true, Timer: 7, Counter: 3}
	st.Reset()
	if st.Active || st.Timer != 0 || st.Counter != 0 {
		t.Fatalf("reset left state %+v", st)
	}
}
