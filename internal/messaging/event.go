// Package messaging defines the events this process exchanges with the rest of
// the system, their wire encoding, and an in-process publish/subscribe hub.
//
// Events are immutable once published: the hub hands the same pointer to every
// subscriber, so a publisher must not touch an event after Publish returns.
package messaging

// Topics.
const (
	NavModelTopic       = "navModel"
	NavInstructionTopic = "navInstruction"
)

// Schema widths of the navModel payload.
const (
	TrajectorySize = 33
	DesireLen      = 32
	FeatureLen     = 256
)

// Event is one message on the bus. Exactly one payload pointer is set.
type Event struct {
	// LogMonoTime is the monotonic publish time in nanoseconds, stamped by the
	// hub when left zero.
	LogMonoTime uint64
	// Valid reports whether the publisher's own inputs were healthy when the
	// event was produced.
	Valid bool

	NavModel       *NavModelData
	NavInstruction *NavInstructionData
}

// Which returns the topic matching the populated payload, or "" when none is.
func (e *Event) Which() string {
	switch {
	case e == nil:
		return ""
	case e.NavModel != nil:
		return NavModelTopic
	case e.NavInstruction != nil:
		return NavInstructionTopic
	default:
		return ""
	}
}

// NavModelData is the per-frame output of the navigation model.
type NavModelData struct {
	FrameID          uint32
	LocationMonoTime uint64
	// Execution times in seconds.
	ModelExecutionTime float64
	DspExecutionTime   float64

	Features         [FeatureLen]float32
	DesirePrediction [DesireLen]float32
	Position         XYTrajectory
}

// XYTrajectory is a predicted path with per-point standard deviations.
type XYTrajectory struct {
	X    [TrajectorySize]float32
	Y    [TrajectorySize]float32
	XStd [TrajectorySize]float32
	YStd [TrajectorySize]float32
}

// NavInstructionData is the turn-by-turn state published by the navigation
// daemon. Only the event's Valid flag is consumed by the model service.
type NavInstructionData struct {
	ManeuverPrimaryText string
	ManeuverType        string
	ManeuverDistance    float32
	DistanceRemaining   float32
	TimeRemaining       float32
	SpeedLimit          float32
}
