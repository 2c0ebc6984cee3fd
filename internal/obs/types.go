package obs

// #region convention

// Convention declares the coordinate frame of the raw observation rows.
type Convention string

const (
	// ConventionRelative means neighbor rows are already ego-relative.
	ConventionRelative Convention = "relative"
	// ConventionAbsolute means all rows are in road coordinates and must be
	// converted to ego-relative during normalization.
	ConventionAbsolute Convention = "absolute"
)

// #endregion convention

// #region config

// Config controls how raw observations are normalized.
type Config struct {
	Convention    Convention
	SensorHorizon float64 // longitudinal visibility in meters
	LaneWidth     float64
	MaxVehicles   int // cap on neighbors kept after filtering
}

// DefaultConfig returns the standard sensing parameters.
func DefaultConfig() Config {
	return Config{
		Convention:    ConventionRelative,
		SensorHorizon: 100.0,
		LaneWidth:     4.0,
		MaxVehicles:   14,
	}
}

// #endregion config

// #region vehicle-observation

// VehicleObservation is one normalized per-vehicle record. For neighbors the
// position and velocity are ego-relative; the ego record keeps its absolute
// values so the controller can read its own speed.
type VehicleObservation struct {
	Present bool
	X       float64
	Y       float64
	VX      float64
	VY      float64
}

// #endregion vehicle-observation

// #region snapshot

// Snapshot is the normalized view of one decision step: the ego record plus
// a bounded, presence-filtered neighbor list. It is rebuilt fresh every step
// and owned exclusively by the current decision call.
type Snapshot struct {
	Ego       VehicleObservation
	Neighbors []VehicleObservation

	laneWidth float64
	horizon   float64
}

// EgoSpeed returns the ego's absolute forward speed.
func (s *Snapshot) EgoSpeed() float64 {
	return s.Ego.VX
}

// LaneWidth returns the lane width the snapshot was normalized with.
func (s *Snapshot) LaneWidth() float64 {
	return s.laneWidth
}

// Horizon returns the sensor horizon the snapshot was normalized with.
func (s *Snapshot) Horizon() float64 {
	return s.horizon
}

// #endregion snapshot
