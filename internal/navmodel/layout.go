package navmodel

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/banshee-data/navmodel/internal/messaging"
)

// Model geometry.
const (
	// TrajectorySize is the number of predicted path points.
	TrajectorySize = 33
	// DesireLen is the number of maneuver intent classes.
	DesireLen = 32
	// FeatureLen is the width of the feature embedding.
	FeatureLen = 256
	// InstructionLen is the width of the instruction encoding in the original
	// model schema. The current model does not consume it.
	InstructionLen = 150

	// OutputSize is the number of float32 values the model writes.
	OutputSize = 2*2*TrajectorySize + DesireLen + FeatureLen
	// NavInputSize is the byte size of one model input: a 256x256 single
	// channel map image.
	NavInputSize = 256 * 256
)

// ErrLayoutMismatch is returned when Result does not cover the model output
// buffer exactly.
var ErrLayoutMismatch = errors.New("result layout does not match model output size")

// XY is one trajectory point.
type XY struct {
	X float32
	Y float32
}

// Plan is the predicted path. Std holds log standard deviations.
type Plan struct {
	Mean [TrajectorySize]XY
	Std  [TrajectorySize]XY
}

// Result is a typed view over the raw model output.
type Result struct {
	Plan       Plan
	DesirePred [DesireLen]float32
	Features   [FeatureLen]float32
}

// Result must be exactly OutputSize float32 words. Either array length goes
// negative and fails to compile if the sizes differ.
var (
	_ [unsafe.Sizeof(Result{}) - OutputSize*4]struct{}
	_ [OutputSize*4 - unsafe.Sizeof(Result{})]struct{}
)

// The bus schema must carry the same array widths.
var (
	_ [TrajectorySize - messaging.TrajectorySize]struct{}
	_ [messaging.TrajectorySize - TrajectorySize]struct{}
	_ [DesireLen - messaging.DesireLen]struct{}
	_ [messaging.DesireLen - DesireLen]struct{}
	_ [FeatureLen - messaging.FeatureLen]struct{}
	_ [messaging.FeatureLen - FeatureLen]struct{}
)

// checkLayout verifies at runtime what the declarations above verify at
// compile time, so a build with a modified Result still fails loudly.
func checkLayout() error {
	got := unsafe.Sizeof(Result{})
	if got != OutputSize*4 {
		return fmt.Errorf("%w: %d bytes, want %d", ErrLayoutMismatch, got, OutputSize*4)
	}
	return nil
}

// words returns the float32 slice aliasing r.
func (r *Result) words() []float32 {
	return unsafe.Slice((*float32)(unsafe.Pointer(r)), OutputSize)
}
