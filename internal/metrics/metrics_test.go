package metrics

import (
	"math"
	"strings"
	"testing"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/action"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/sim"
)

func TestCollectorTracksSpeedAndAccel(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.VehicleCount = 3
	w := sim.New(cfg, 5)
	c := NewCollector(2.0, cfg.Dt)

	for s := 0; s < 20; s++ {
		for i := range w.Vehicles() {
			w.SetCommand(i, action.Command{Accel: 1.0})
		}
		w.Step()
		c.CollectStep(w)
	}
	m := c.Finalize()
	if m.Steps != 20 {
		t.Errorf("steps = %d, want 20", m.Steps)
	}
	if m.AvgSpeed <= 0 {
		t.Errorf("avg speed = %v", m.AvgSpeed)
	}
	// Constant commanded acceleration: the per-step accel samples are all
	// 1.0, so their spread is zero.
	if m.AccelStd > 1e-9 {
		t.Errorf("accel std = %v for constant acceleration", m.AccelStd)
	}
}

func TestCollectorCountsCollisionsOnce(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.VehicleCount = 2
	cfg.LaneCount = 1
	cfg.SpawnSpeed = [2]float64{20, 20}
	w := sim.New(cfg, 1)

	// Drive vehicle 0 hard into vehicle 1.
	c := NewCollector(2.0, cfg.Dt)
	for s := 0; s < 300; s++ {
		w.SetCommand(0, action.Command{Accel: 3})
		w.SetCommand(1, action.Command{Accel: -3})
		w.Step()
		c.CollectStep(w)
	}
	m := c.Finalize()
	if m.TotalCollisions != 2 {
		t.Fatalf("collisions = %d, want both vehicles counted exactly once", m.TotalCollisions)
	}
}

func TestCollectorDetectsNearMisses(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.VehicleCount = 2
	cfg.LaneCount = 1
	w := sim.New(cfg, 1)
	c := NewCollector(2.0, cfg.Dt)

	// 10m gap closing at 10 m/s: TTC = 1s, under the 2s threshold.
	vs := w.Vehicles()
	vs[0].X = 100
	vs[0].Speed = 30
	vs[1].X = 110
	vs[1].Speed = 20
	c.CollectStep(w)

	m := c.Finalize()
	if m.TTCEventCount == 0 {
		t.Fatal("closing pair under threshold produced no TTC event")
	}
	if m.MinTTC >= 2.0 {
		t.Errorf("min TTC = %v, want < 2.0", m.MinTTC)
	}
}

func TestNoTTCEventsReportInfinity(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.VehicleCount = 1
	cfg.LaneCount = 1
	w := sim.New(cfg, 1)
	c := NewCollector(2.0, cfg.Dt)
	c.CollectStep(w)

	m := c.Finalize()
	if !math.IsInf(m.MinTTC, 1) || !math.IsInf(m.AvgTTC, 1) {
		t.Fatalf("empty TTC history: min=%v avg=%v, want +Inf", m.MinTTC, m.AvgTTC)
	}
}

func TestAggregatorGroupsByCell(t *testing.T) {
	a := NewAggregator()
	a.Add(GroupKey{"highway", "selfish"}, RunMetrics{AvgSpeed: 20, TotalCollisions: 2})
	a.Add(GroupKey{"highway", "selfish"}, RunMetrics{AvgSpeed: 24, TotalCollisions: 0})
	a.Add(GroupKey{"highway", "cooperative"}, RunMetrics{AvgSpeed: 22})

	sums := a.Summaries()
	if len(sums) != 2 {
		t.Fatalf("got %d cells, want 2", len(sums))
	}
	// Sorted: cooperative before selfish.
	if sums[0].Key.Composition != "cooperative" || sums[1].Key.Composition != "selfish" {
		t.Fatalf("cell order wrong: %+v", sums)
	}
	selfish := sums[1]
	if selfish.Runs != 2 || selfish.AvgSpeedMean != 22 || selfish.CollisionsMean != 1 {
		t.Errorf("selfish cell summary wrong: %+v", selfish)
	}
	if selfish.AvgSpeedStd == 0 {
		t.Error("two differing runs should have nonzero speed std")
	}
}

func TestWriteCSVShape(t *testing.T) {
	a := NewAggregator()
	a.Add(GroupKey{"merge", "mixed_0.5"}, RunMetrics{AvgSpeed: 21.5, MergeSuccessRate: 0.8})

	var sb strings.Builder
	if err := a.WriteCSV(&sb); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv has %d lines, want header + 1 row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "scenario,composition,runs") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "merge,mixed_0.5,1") {
		t.Errorf("row = %q", lines[1])
	}
}
