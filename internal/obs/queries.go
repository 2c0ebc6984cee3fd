package obs

import "math"

// #region lane-tests

// sameLaneBand reports whether a neighbor's lateral offset places it in the
// lane `laneOffset` lanes away from the ego (0 = ego's own lane, negative =
// left, positive = right). Lateral Y grows to the right.
func (s *Snapshot) inLane(v VehicleObservation, laneOffset int) bool {
	center := float64(laneOffset) * s.laneWidth
	return math.Abs(v.Y-center) < s.laneWidth/2
}

// #endregion lane-tests

// #region neighbor-queries

// Leader returns the nearest neighbor ahead of the ego in the lane
// `laneOffset` lanes away, and whether one exists.
func (s *Snapshot) Leader(laneOffset int) (VehicleObservation, bool) {
	var best VehicleObservation
	found := false
	for _, v := range s.Neighbors {
		if v.X <= 0 || !s.inLane(v, laneOffset) {
			continue
		}
		if !found || v.X < best.X {
			best, found = v, true
		}
	}
	return best, found
}

// Follower returns the nearest neighbor behind the ego in the lane
// `laneOffset` lanes away, and whether one exists.
func (s *Snapshot) Follower(laneOffset int) (VehicleObservation, bool) {
	var best VehicleObservation
	found := false
	for _, v := range s.Neighbors {
		if v.X >= 0 || !s.inLane(v, laneOffset) {
			continue
		}
		if !found || v.X > best.X {
			best, found = v, true
		}
	}
	return best, found
}

// Adjacent returns every neighbor occupying the lane `laneOffset` lanes away,
// in snapshot order.
func (s *Snapshot) Adjacent(laneOffset int) []VehicleObservation {
	var out []VehicleObservation
	for _, v := range s.Neighbors {
		if s.inLane(v, laneOffset) {
			out = append(out, v)
		}
	}
	return out
}

// #endregion neighbor-queries

// #region density

// LocalDensity estimates traffic density around the ego in vehicles per km
// per lane, counting visible neighbors (plus the ego) within ±window meters
// longitudinally across laneCount lanes. A non-positive window falls back to
// the sensor horizon.
func (s *Snapshot) LocalDensity(window float64, laneCount int) float64 {
	if window <= 0 {
		window = s.horizon
	}
	if laneCount < 1 {
		laneCount = 1
	}
	count := 1 // ego
	for _, v := range s.Neighbors {
		if math.Abs(v.X) <= window {
			count++
		}
	}
	lengthKM := 2 * window / 1000.0
	return float64(count) / lengthKM / float64(laneCount)
}

// #endregion density
