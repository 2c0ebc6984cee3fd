package obs

import (
	"fmt"
	"math"
)

// #region errors

// EmptyObservationError reports a raw observation that carries no usable ego
// row. Callers treat it as recoverable and fall back to a neutral command.
type EmptyObservationError struct {
	Rows int
}

func (e *EmptyObservationError) Error() string {
	return fmt.Sprintf("observation has no usable ego row (rows=%d)", e.Rows)
}

// #endregion errors

// Raw observation row layout: [presence, x, y, vx, vy].
const (
	fieldPresence = 0
	fieldX        = 1
	fieldY        = 2
	fieldVX       = 3
	fieldVY       = 4
	rowWidth      = 5
)

// #region normalize

// Normalize converts one raw observation matrix into a Snapshot. Row 0 is the
// ego vehicle; the remaining rows are candidate neighbors. Absent rows and
// neighbors beyond the sensor horizon are dropped. Under the absolute
// convention neighbor rows are converted to ego-relative coordinates.
func Normalize(raw [][]float64, cfg Config) (*Snapshot, error) {
	if len(raw) == 0 {
		return nil, &EmptyObservationError{Rows: 0}
	}
	ego := readRow(raw[0])
	if !ego.Present {
		return nil, &EmptyObservationError{Rows: len(raw)}
	}

	snap := &Snapshot{
		Ego:       ego,
		laneWidth: cfg.LaneWidth,
		horizon:   cfg.SensorHorizon,
	}
	if snap.laneWidth <= 0 {
		snap.laneWidth = DefaultConfig().LaneWidth
	}
	if snap.horizon <= 0 {
		snap.horizon = DefaultConfig().SensorHorizon
	}

	max := cfg.MaxVehicles
	if max <= 0 {
		max = len(raw) - 1
	}
	for _, row := range raw[1:] {
		if len(snap.Neighbors) >= max {
			break
		}
		v := readRow(row)
		if !v.Present {
			continue
		}
		if cfg.Convention == ConventionAbsolute {
			v.X -= ego.X
			v.Y -= ego.Y
			v.VX -= ego.VX
			v.VY -= ego.VY
		}
		if math.Abs(v.X) > snap.horizon {
			continue
		}
		snap.Neighbors = append(snap.Neighbors, v)
	}
	return snap, nil
}

// readRow decodes one raw row, tolerating short rows by zero-filling.
func readRow(row []float64) VehicleObservation {
	var buf [rowWidth]float64
	copy(buf[:], row)
	return VehicleObservation{
		Present: buf[fieldPresence] > 0.5,
		X:       buf[fieldX],
		Y:       buf[fieldY],
		VX:      buf[fieldVX],
		VY:      buf[fieldVY],
	}
}

// #endregion normalize
