// Package metrics collects per-step traffic measurements during a run and
// aggregates them across runs: efficiency (speed), safety (collisions, close
// time-to-collision encounters), and flow stability (acceleration spread).
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/sim"
)

// #region collector

// Collector accumulates one run's raw measurements.
type Collector struct {
	ttcThreshold float64
	dt           float64

	speedHistory []float64
	accelHistory []float64
	ttcEvents    []float64

	collided        map[int]bool
	mergeAttempts   int
	mergeSuccesses  int
	mergedSeen      map[int]bool
	stalledSeen     map[int]bool
	prevSpeeds      map[int]float64
	steps           int
}

// NewCollector builds a collector for one run. The TTC threshold is the
// time-to-collision below which an encounter counts as a near miss.
func NewCollector(ttcThreshold, dt float64) *Collector {
	return &Collector{
		ttcThreshold: ttcThreshold,
		dt:           dt,
		collided:     make(map[int]bool),
		mergedSeen:   make(map[int]bool),
		stalledSeen:  make(map[int]bool),
		prevSpeeds:   make(map[int]float64),
	}
}

// CollectStep records one world step.
func (c *Collector) CollectStep(w *sim.World) {
	vehicles := w.Vehicles()
	for i := range vehicles {
		v := &vehicles[i]
		if v.Collided {
			c.collided[v.ID] = true
			continue
		}
		c.speedHistory = append(c.speedHistory, v.Speed)
		if prev, ok := c.prevSpeeds[v.ID]; ok {
			c.accelHistory = append(c.accelHistory, (v.Speed-prev)/c.dt)
		}
		c.prevSpeeds[v.ID] = v.Speed

		if v.Merged && !c.mergedSeen[v.ID] {
			c.mergedSeen[v.ID] = true
			c.mergeAttempts++
			c.mergeSuccesses++
		}
		if v.Stalled && !c.stalledSeen[v.ID] {
			c.stalledSeen[v.ID] = true
			c.mergeAttempts++
		}
	}
	c.collectTTC(vehicles)
	c.steps++
}

// collectTTC records same-lane closing pairs below the threshold.
func (c *Collector) collectTTC(vehicles []sim.Vehicle) {
	for i := range vehicles {
		for j := i + 1; j < len(vehicles); j++ {
			a, b := &vehicles[i], &vehicles[j]
			if a.Lane != b.Lane || a.Collided || b.Collided {
				continue
			}
			gap := a.X - b.X
			closing := b.Speed - a.Speed
			if gap < 0 {
				gap = -gap
				closing = a.Speed - b.Speed
			}
			if closing <= 0 {
				continue
			}
			ttc := gap / closing
			if ttc < c.ttcThreshold {
				c.ttcEvents = append(c.ttcEvents, ttc)
			}
		}
	}
}

// #endregion collector

// #region run-metrics

// RunMetrics is one run's final summary.
type RunMetrics struct {
	AvgSpeed         float64
	SpeedStd         float64
	AccelStd         float64
	TotalCollisions  int
	TTCEventCount    int
	MinTTC           float64
	AvgTTC           float64
	MergeAttempts    int
	MergeSuccessRate float64
	Steps            int
}

// Finalize reduces the collected history to the run summary.
func (c *Collector) Finalize() RunMetrics {
	m := RunMetrics{
		TotalCollisions: len(c.collided),
		TTCEventCount:   len(c.ttcEvents),
		MinTTC:          math.Inf(1),
		AvgTTC:          math.Inf(1),
		MergeAttempts:   c.mergeAttempts,
		Steps:           c.steps,
	}
	if len(c.speedHistory) > 0 {
		m.AvgSpeed = stat.Mean(c.speedHistory, nil)
	}
	if len(c.speedHistory) > 1 {
		m.SpeedStd = stat.StdDev(c.speedHistory, nil)
	}
	if len(c.accelHistory) > 1 {
		m.AccelStd = stat.StdDev(c.accelHistory, nil)
	}
	if len(c.ttcEvents) > 0 {
		m.AvgTTC = stat.Mean(c.ttcEvents, nil)
		m.MinTTC = floats.Min(c.ttcEvents)
	}
	if c.mergeAttempts > 0 {
		m.MergeSuccessRate = float64(c.mergeSuccesses) / float64(c.mergeAttempts)
	}
	return m
}

// #endregion run-metrics
