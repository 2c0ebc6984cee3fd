package action

import "testing"

func TestDiscreteMapperFullSpace(t *testing.T) {
	dm := NewDiscreteMapper(nil)

	cases := []struct {
		cmd  Command
		want int
	}{
		{Command{Intent: IntentLeft}, 0},
		{Command{}, 1},
		{Command{Intent: IntentRight}, 2},
		{Command{Accel: 1.5}, 3},
		{Command{Accel: -1.5}, 4},
	}
	for _, c := range cases {
		if got := dm.Map(c.cmd); got != c.want {
			t.Errorf("Map(%+v) = %d, want %d", c.cmd, got, c.want)
		}
	}
}

func TestDiscreteMapperDegradedSpace(t *testing.T) {
	// A three-action environment has no FASTER/SLOWER; they degrade to IDLE.
	dm := NewDiscreteMapper([]string{"IDLE", "LANE_LEFT", "LANE_RIGHT"})

	if got := dm.Map(Command{Accel: 2.0}); got != 0 {
		t.Errorf("FASTER in degraded space = %d, want IDLE index 0", got)
	}
	if got := dm.Map(Command{Accel: -2.0}); got != 0 {
		t.Errorf("SLOWER in degraded space = %d, want IDLE index 0", got)
	}
	if got := dm.Map(Command{Intent: IntentLeft}); got != 1 {
		t.Errorf("LANE_LEFT in degraded space = %d, want 1", got)
	}
}

func TestDiscreteMapperDeadband(t *testing.T) {
	dm := NewDiscreteMapper(nil)
	if got := dm.Meta(Command{Accel: 0.1}); got != MetaIdle {
		t.Errorf("small positive accel = %v, want IDLE", got)
	}
	if got := dm.Meta(Command{Accel: -0.1}); got != MetaIdle {
		t.Errorf("small negative accel = %v, want IDLE", got)
	}
}

func TestDiscreteMapperRepeatable(t *testing.T) {
	dm := NewDiscreteMapper(nil)
	cmd := Command{Accel: -3.2, Intent: IntentNone}
	first := dm.Map(cmd)
	for i := 0; i < 100; i++ {
		if got := dm.Map(cmd); got != first {
			t.Fatalf("mapping not repeatable: got %d then %d", first, got)
		}
	}
}

func TestContinuousMapperSemantics(t *testing.T) {
	cm := NewContinuousMapper(-1, 1, -5, 5)

	out := cm.Map(Command{Intent: IntentLeft})
	if out[0] >= 0 {
		t.Errorf("left intent should steer negative, got %v", out[0])
	}
	if out[1] != 0 {
		t.Errorf("lane intent should keep neutral accel, got %v", out[1])
	}

	out = cm.Map(Command{Accel: 3})
	if out[1] != 5*rangeFraction {
		t.Errorf("faster accel = %v, want %v", out[1], 5*rangeFraction)
	}
	if out[0] != 0 {
		t.Errorf("longitudinal command should keep neutral steer, got %v", out[0])
	}
}

func TestContinuousMapperDegenerateBounds(t *testing.T) {
	cm := NewContinuousMapper(0, 0, 0, 0)
	out := cm.Map(Command{Accel: 3})
	if out[1] != 1*rangeFraction {
		t.Errorf("degenerate bounds should fall back to [-1,1], got %v", out[1])
	}
}
