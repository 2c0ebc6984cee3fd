// Package idm implements the Intelligent Driver Model used for longitudinal
// control: a pure closed-form acceleration law over the ego speed and the
// gap to the vehicle ahead.
package idm

import "math"

// #region params

// Params are the IDM tuning constants for one agent.
type Params struct {
	AMax     float64 // maximum acceleration, m/s^2
	BComfort float64 // comfortable deceleration, m/s^2
	BMax     float64 // physical braking limit, m/s^2
	THeadway float64 // desired time headway, s
	S0       float64 // minimum standstill spacing, m
	V0       float64 // desired free-flow speed, m/s
	Delta    float64 // velocity exponent
}

// DefaultParams returns the standard highway tuning.
func DefaultParams() Params {
	return Params{
		AMax:     3.0,
		BComfort: 3.0,
		BMax:     9.0,
		THeadway: 1.5,
		S0:       2.0,
		V0:       30.0,
		Delta:    4.0,
	}
}

// Overrides carries per-step parameter replacements injected by active
// behaviors. A zero field means "keep the base value".
type Overrides struct {
	THeadway float64
	V0       float64
}

// #endregion params

// #region leader

// Leader describes the vehicle ahead as seen from the ego: bumper gap and
// closing speed (positive when the ego is approaching).
type Leader struct {
	Gap     float64
	Closing float64
}

// #endregion leader

// Gap floor preventing the interaction term from dividing by a vanishing
// spacing when vehicles are effectively touching.
const gapEpsilon = 0.1

// #region accel

// Accel computes the IDM acceleration for an ego at speed v with an optional
// leader. The result is clamped to [-BMax, AMax].
func Accel(v float64, leader *Leader, p Params, ov Overrides) float64 {
	headway := p.THeadway
	if ov.THeadway > 0 {
		headway = ov.THeadway
	}
	v0 := p.V0
	if ov.V0 > 0 {
		v0 = ov.V0
	}

	free := 0.0
	if v0 > 0 {
		free = math.Pow(v/v0, p.Delta)
	} else if v > 0 {
		// Desired speed of zero: treat any motion as fully over target.
		free = 1.0
	}

	interaction := 0.0
	if leader != nil {
		gap := leader.Gap
		if gap < gapEpsilon {
			gap = gapEpsilon
		}
		desired := p.S0 + v*headway + v*leader.Closing/(2*math.Sqrt(p.AMax*p.BComfort))
		if desired < p.S0 {
			desired = p.S0
		}
		ratio := desired / gap
		interaction = ratio * ratio
	}

	a := p.AMax * (1 - free - interaction)
	return clamp(a, -p.BMax, p.AMax)
}

// DesiredGap returns the dynamic desired spacing for the given ego speed and
// closing rate, floored at S0.
func DesiredGap(v, closing float64, p Params, ov Overrides) float64 {
	headway := p.THeadway
	if ov.THeadway > 0 {
		headway = ov.THeadway
	}
	desired := p.S0 + v*headway + v*closing/(2*math.Sqrt(p.AMax*p.BComfort))
	if desired < p.S0 {
		desired = p.S0
	}
	return desired
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// #endregion accel
