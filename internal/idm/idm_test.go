package idm

import (
	"math"
	"testing"
)

func TestFreeRoadAccelerates(t *testing.T) {
	p := DefaultParams()
	a := Accel(10, nil, p, Overrides{})
	if a <= 0 {
		t.Fatalf("well below desired speed with no leader: accel = %v, want > 0", a)
	}
	if a > p.AMax {
		t.Fatalf("accel %v exceeds AMax %v", a, p.AMax)
	}
}

func TestAtDesiredSpeedHoldsSteady(t *testing.T) {
	p := DefaultParams()
	a := Accel(p.V0, nil, p, Overrides{})
	if math.Abs(a) > 1e-9 {
		t.Fatalf("at desired speed with no leader: accel = %v, want 0", a)
	}
}

func TestAboveDesiredSpeedDecelerates(t *testing.T) {
	p := DefaultParams()
	if a := Accel(p.V0*1.2, nil, p, Overrides{}); a >= 0 {
		t.Fatalf("above desired speed: accel = %v, want < 0", a)
	}
}

func TestCloseLeaderForcesBraking(t *testing.T) {
	p := DefaultParams()
	a := Accel(25, &Leader{Gap: 5, Closing: 5}, p, Overrides{})
	if a >= 0 {
		t.Fatalf("small closing gap: accel = %v, want braking", a)
	}
	if a < -p.BMax {
		t.Fatalf("accel %v exceeds braking limit %v", a, -p.BMax)
	}
}

func TestVanishingGapStaysFinite(t *testing.T) {
	p := DefaultParams()
	for _, gap := range []float64{0, 1e-6, 0.05} {
		a := Accel(20, &Leader{Gap: gap, Closing: 10}, p, Overrides{})
		if math.IsNaN(a) || math.IsInf(a, 0) {
			t.Fatalf("gap %v produced non-finite accel %v", gap, a)
		}
		if a != -p.BMax {
			t.Errorf("gap %v: accel = %v, want clamp at -BMax", gap, a)
		}
	}
}

func TestAccelMonotonicInGap(t *testing.T) {
	p := DefaultParams()
	prev := math.Inf(-1)
	for gap := 3.0; gap <= 120; gap += 3 {
		a := Accel(25, &Leader{Gap: gap, Closing: 0}, p, Overrides{})
		if a < prev {
			t.Fatalf("accel not non-decreasing in gap: %v after %v at gap %v", a, prev, gap)
		}
		prev = a
	}
}

func TestDesiredGapFloorsAtStandstillSpacing(t *testing.T) {
	p := DefaultParams()
	// Strongly opening gap would drive the dynamic term negative.
	if got := DesiredGap(10, -30, p, Overrides{}); got != p.S0 {
		t.Fatalf("desired gap = %v, want floor at S0 %v", got, p.S0)
	}
	want := p.S0 + 20*p.THeadway
	if got := DesiredGap(20, 0, p, Overrides{}); math.Abs(got-want) > 1e-9 {
		t.Fatalf("desired gap = %v, want %v", got, want)
	}
}

func TestOverridesChangeBehavior(t *testing.T) {
	p := DefaultParams()
	leader := &Leader{Gap: 40, Closing: 0}

	base := Accel(25, leader, p, Overrides{})
	wider := Accel(25, leader, p, Overrides{THeadway: 2.0})
	if wider >= base {
		t.Errorf("longer headway should brake harder: base %v, override %v", base, wider)
	}

	slow := Accel(25, nil, p, Overrides{V0: 20})
	if slow >= 0 {
		t.Errorf("lowered desired speed should decelerate: %v", slow)
	}

	// Zero-valued overrides leave the base params untouched.
	same := Accel(25, leader, p, Overrides{THeadway: 0, V0: 0})
	if same != base {
		t.Errorf("zero overrides changed result: %v vs %v", same, base)
	}
}
