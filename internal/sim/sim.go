// Package sim is a kinematic multi-lane traffic world used to exercise the
// decision engine: seeded spawning, per-agent bounded observations, command
// integration, and collision flagging. The road is a ring so density stays
// stable over long runs; the merge scenario adds a finite ramp lane.
package sim

import (
	"math"
	"math/rand"
	"sort"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/action"
)

// #region config

// Scenario selects the road layout.
type Scenario string

const (
	ScenarioHighway Scenario = "highway"
	ScenarioMerge   Scenario = "merge"
)

// Config shapes one world.
type Config struct {
	Scenario     Scenario
	LaneCount    int
	LaneWidth    float64
	RoadLength   float64 // ring circumference, m
	VehicleCount int
	Dt           float64 // step duration, s
	SpawnSpeed   [2]float64
	VehicleLen   float64
	RampStart    float64 // merge only: ramp lane begins here
	RampEnd      float64 // merge only: ramp lane ends here
	RampVehicles int
}

// DefaultConfig returns the standard highway world.
func DefaultConfig() Config {
	return Config{
		Scenario:     ScenarioHighway,
		LaneCount:    3,
		LaneWidth:    4.0,
		RoadLength:   1000.0,
		VehicleCount: 30,
		Dt:           0.1,
		SpawnSpeed:   [2]float64{20, 28},
		VehicleLen:   5.0,
		RampStart:    200.0,
		RampEnd:      400.0,
		RampVehicles: 5,
	}
}

// #endregion config

// #region world

// Vehicle is one simulated vehicle's kinematic state.
type Vehicle struct {
	ID       int
	X        float64 // position along the ring
	Lane     int
	Speed    float64
	Collided bool
	OnRamp   bool
	Merged   bool // ramp vehicle that completed its merge
	Stalled  bool // ramp vehicle that ran out of ramp

	pendingAccel  float64
	pendingIntent action.LaneIntent
	prevSpeed     float64
	prevLane      int
}

// Y returns the vehicle's lateral position. The ramp sits one lane to the
// right of the rightmost main lane.
func (v *Vehicle) Y(laneWidth float64) float64 {
	return float64(v.Lane) * laneWidth
}

// World is one running scenario instance.
type World struct {
	cfg      Config
	vehicles []Vehicle
	step     int
}

// New spawns a world from the seed. Spacing and speeds come from the world's
// own generator, so one seed always produces one spawn layout.
func New(cfg Config, seed int64) *World {
	rng := rand.New(rand.NewSource(seed))
	w := &World{cfg: cfg}

	perLane := cfg.VehicleCount / cfg.LaneCount
	if perLane < 1 {
		perLane = 1
	}
	id := 0
	for lane := 0; lane < cfg.LaneCount && id < cfg.VehicleCount; lane++ {
		spacing := cfg.RoadLength / float64(perLane)
		for k := 0; k < perLane && id < cfg.VehicleCount; k++ {
			jitter := (rng.Float64() - 0.5) * spacing * 0.5
			w.vehicles = append(w.vehicles, Vehicle{
				ID:    id,
				X:     math.Mod(float64(k)*spacing+jitter+cfg.RoadLength, cfg.RoadLength),
				Lane:  lane,
				Speed: cfg.SpawnSpeed[0] + rng.Float64()*(cfg.SpawnSpeed[1]-cfg.SpawnSpeed[0]),
			})
			id++
		}
	}

	if cfg.Scenario == ScenarioMerge {
		rampLane := cfg.LaneCount
		span := cfg.RampEnd - cfg.RampStart
		for k := 0; k < cfg.RampVehicles; k++ {
			w.vehicles = append(w.vehicles, Vehicle{
				ID:     id,
				X:      cfg.RampStart + span*float64(k)/float64(cfg.RampVehicles)*0.5,
				Lane:   rampLane,
				Speed:  cfg.SpawnSpeed[0] * 0.8,
				OnRamp: true,
			})
			id++
		}
	}
	for i := range w.vehicles {
		w.vehicles[i].prevSpeed = w.vehicles[i].Speed
		w.vehicles[i].prevLane = w.vehicles[i].Lane
	}
	return w
}

// Vehicles returns the live vehicle slice for metrics inspection.
func (w *World) Vehicles() []Vehicle {
	return w.vehicles
}

// StepCount returns the number of completed steps.
func (w *World) StepCount() int {
	return w.step
}

// #endregion world

// #region observe

// Observe builds agent i's raw observation: ego row first with absolute
// values, then nearby vehicles ego-relative, nearest first, capped at
// maxRows. Distances fold across the ring seam.
func (w *World) Observe(i int, horizon float64, maxRows int) [][]float64 {
	ego := &w.vehicles[i]
	if ego.Collided {
		// A crashed vehicle no longer produces usable sensor data.
		return nil
	}
	raw := [][]float64{{1, ego.X, ego.Y(w.cfg.LaneWidth), ego.Speed, 0}}

	type rel struct {
		dx, dy, dvx, dvy float64
	}
	var others []rel
	for j := range w.vehicles {
		if j == i {
			continue
		}
		o := &w.vehicles[j]
		dx := w.ringDelta(o.X - ego.X)
		if math.Abs(dx) > horizon {
			continue
		}
		others = append(others, rel{
			dx:  dx,
			dy:  o.Y(w.cfg.LaneWidth) - ego.Y(w.cfg.LaneWidth),
			dvx: o.Speed - ego.Speed,
			dvy: w.lateralRate(o),
		})
	}
	sort.Slice(others, func(a, b int) bool {
		return math.Abs(others[a].dx) < math.Abs(others[b].dx)
	})
	if maxRows > 0 && len(others) > maxRows {
		others = others[:maxRows]
	}
	for _, o := range others {
		raw = append(raw, []float64{1, o.dx, o.dy, o.dvx, o.dvy})
	}
	return raw
}

// lateralRate approximates a vehicle's lateral speed from its last lane move.
func (w *World) lateralRate(v *Vehicle) float64 {
	if v.Lane == v.prevLane {
		return 0
	}
	return float64(v.Lane-v.prevLane) * w.cfg.LaneWidth / w.cfg.Dt
}

// ringDelta folds a longitudinal difference across the ring seam.
func (w *World) ringDelta(d float64) float64 {
	half := w.cfg.RoadLength / 2
	for d > half {
		d -= w.cfg.RoadLength
	}
	for d < -half {
		d += w.cfg.RoadLength
	}
	return d
}

// #endregion observe

// #region step

// SetCommand stages agent i's command for the next Step.
func (w *World) SetCommand(i int, cmd action.Command) {
	w.vehicles[i].pendingAccel = cmd.Accel
	w.vehicles[i].pendingIntent = cmd.Intent
}

// Step integrates one tick: lane moves, speed and position updates, ramp
// bookkeeping, and collision flagging. Crashed vehicles stay in place.
func (w *World) Step() {
	dt := w.cfg.Dt
	for i := range w.vehicles {
		v := &w.vehicles[i]
		v.prevSpeed = v.Speed
		v.prevLane = v.Lane
		if v.Collided || v.Stalled {
			continue
		}

		switch v.pendingIntent {
		case action.IntentLeft:
			if v.Lane > 0 {
				if v.OnRamp && v.Lane == w.cfg.LaneCount {
					v.OnRamp = false
					v.Merged = true
				}
				v.Lane--
			}
		case action.IntentRight:
			if v.Lane < w.cfg.LaneCount-1 {
				v.Lane++
			}
		}
		v.pendingIntent = action.IntentNone

		v.Speed += v.pendingAccel * dt
		if v.Speed < 0 {
			v.Speed = 0
		}
		v.X = math.Mod(v.X+v.Speed*dt, w.cfg.RoadLength)

		// A ramp vehicle that reaches the end of the ramp without merging
		// has to stop and wait.
		if v.OnRamp && v.X >= w.cfg.RampEnd {
			v.X = w.cfg.RampEnd
			v.Speed = 0
			v.Stalled = true
		}
	}
	w.flagCollisions()
	w.step++
}

// flagCollisions marks same-lane pairs closer than one vehicle length.
func (w *World) flagCollisions() {
	for i := range w.vehicles {
		for j := i + 1; j < len(w.vehicles); j++ {
			a, b := &w.vehicles[i], &w.vehicles[j]
			if a.Lane != b.Lane || (a.Collided && b.Collided) {
				continue
			}
			if math.Abs(w.ringDelta(a.X-b.X)) < w.cfg.VehicleLen {
				a.Collided = true
				b.Collided = true
			}
		}
	}
}

// #endregion step
