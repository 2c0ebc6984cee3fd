package action

// #region lane-intent

// LaneIntent is the lateral component of a resolved decision.
type LaneIntent int

const (
	IntentNone LaneIntent = iota
	IntentLeft
	IntentRight
)

// String returns the intent name for logging.
func (li LaneIntent) String() string {
	switch li {
	case IntentLeft:
		return "left"
	case IntentRight:
		return "right"
	default:
		return "none"
	}
}

// #endregion lane-intent

// #region meta-action

// Meta is one of the five discrete meta-actions the engine emits.
// The ordering matches the policy semantics
// [LANE_LEFT, IDLE, LANE_RIGHT, FASTER, SLOWER].
type Meta int

const (
	MetaLaneLeft Meta = iota
	MetaIdle
	MetaLaneRight
	MetaFaster
	MetaSlower
)

// metaNames indexes the canonical action names by Meta value.
var metaNames = [...]string{"LANE_LEFT", "IDLE", "LANE_RIGHT", "FASTER", "SLOWER"}

// String returns the canonical action name.
func (m Meta) String() string {
	if m < 0 || int(m) >= len(metaNames) {
		return "IDLE"
	}
	return metaNames[m]
}

// #endregion meta-action

// #region command

// Command is the resolved per-step decision: a longitudinal acceleration
// and at most one lane-change intent.
type Command struct {
	Accel  float64
	Intent LaneIntent
}

// Maintain returns the neutral "hold current state" command, used when the
// observation cannot be decoded.
func Maintain() Command {
	return Command{Accel: 0, Intent: IntentNone}
}

// #endregion command

// #region discrete-mapper

// Acceleration band outside which a command maps to FASTER/SLOWER rather
// than IDLE. Identical commands always map to identical actions.
const accelDeadband = 0.2

// DiscreteMapper translates commands to an environment's discrete action
// indices. Environments exposing fewer than five actions degrade missing
// actions to IDLE.
type DiscreteMapper struct {
	index    map[string]int
	fallback int
}

// NewDiscreteMapper builds a mapper for the given environment action list.
// An empty list defaults to the full five-action space.
func NewDiscreteMapper(envActions []string) *DiscreteMapper {
	if len(envActions) == 0 {
		envActions = metaNames[:]
	}
	idx := make(map[string]int, len(envActions))
	for i, a := range envActions {
		idx[a] = i
	}
	fallback, ok := idx["IDLE"]
	if !ok {
		fallback = 0
	}
	return &DiscreteMapper{index: idx, fallback: fallback}
}

// Meta reduces a command to its discrete meta-action. Lane intents take
// precedence over the longitudinal band.
func (dm *DiscreteMapper) Meta(cmd Command) Meta {
	switch cmd.Intent {
	case IntentLeft:
		return MetaLaneLeft
	case IntentRight:
		return MetaLaneRight
	}
	if cmd.Accel > accelDeadband {
		return MetaFaster
	}
	if cmd.Accel < -accelDeadband {
		return MetaSlower
	}
	return MetaIdle
}

// Map converts a command to the environment's action index.
func (dm *DiscreteMapper) Map(cmd Command) int {
	if i, ok := dm.index[dm.Meta(cmd).String()]; ok {
		return i
	}
	return dm.fallback
}

// #endregion discrete-mapper

// #region continuous-mapper

// ContinuousMapper translates commands to a continuous
// {steering, acceleration} pair scaled to the environment's bounds.
type ContinuousMapper struct {
	SteerMin, SteerMax float64
	AccMin, AccMax     float64
}

// NewContinuousMapper builds a mapper with the given action bounds.
// Degenerate bounds fall back to [-1, 1].
func NewContinuousMapper(steerMin, steerMax, accMin, accMax float64) *ContinuousMapper {
	if steerMin >= steerMax {
		steerMin, steerMax = -1, 1
	}
	if accMin >= accMax {
		accMin, accMax = -1, 1
	}
	return &ContinuousMapper{SteerMin: steerMin, SteerMax: steerMax, AccMin: accMin, AccMax: accMax}
}

// Commanded magnitudes use 70% of the available range, leaving headroom
// so a mapped action never saturates the actuator bound.
const rangeFraction = 0.7

// Map converts a command to [steering, acceleration].
func (cm *ContinuousMapper) Map(cmd Command) [2]float64 {
	var steer float64
	switch cmd.Intent {
	case IntentLeft:
		steer = cm.SteerMin * rangeFraction
	case IntentRight:
		steer = cm.SteerMax * rangeFraction
	}

	var acc float64
	if cmd.Accel > accelDeadband {
		acc = cm.AccMax * rangeFraction
	} else if cmd.Accel < -accelDeadband {
		acc = cm.AccMin * rangeFraction
	}
	return [2]float64{steer, acc}
}

// #endregion continuous-mapper
