package navmodel

import (
	"math"
	"time"

	"github.com/banshee-data/navmodel/internal/messaging"
)

// PacketMeta is the per-frame context for BuildPacket.
type PacketMeta struct {
	Valid              bool
	FrameID            uint32
	LocationMonoTime   uint64
	ModelExecutionTime time.Duration
	DspExecutionTime   time.Duration
}

// Validity combines frame and navInstruction validity into packet validity.
func Validity(frameValid, navValid bool) bool {
	return frameValid && navValid
}

// BuildPacket converts a model result into a navModel event. Standard
// deviations are converted from log scale with the natural exponent.
func BuildPacket(r *Result, meta PacketMeta) *messaging.Event {
	m := &messaging.NavModelData{
		FrameID:            meta.FrameID,
		LocationMonoTime:   meta.LocationMonoTime,
		ModelExecutionTime: meta.ModelExecutionTime.Seconds(),
		DspExecutionTime:   meta.DspExecutionTime.Seconds(),
		Features:           r.Features,
		DesirePrediction:   r.DesirePred,
	}
	pos := &m.Position
	for i := 0; i < TrajectorySize; i++ {
		pos.X[i] = r.Plan.Mean[i].X
		pos.Y[i] = r.Plan.Mean[i].Y
		pos.XStd[i] = float32(math.Exp(float64(r.Plan.Std[i].X)))
		pos.YStd[i] = float32(math.Exp(float64(r.Plan.Std[i].Y)))
	}
	return &messaging.Event{Valid: meta.Valid, NavModel: m}
}
