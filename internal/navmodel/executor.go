package navmodel

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/banshee-data/navmodel/internal/timeutil"
)

// InputName is the model input the map frame is bound to.
const InputName = "map"

// ErrInputSize is returned by Execute for a frame that is not NavInputSize
// bytes.
var ErrInputSize = errors.New("frame size does not match model input")

// Executor owns the model runner and both hot path buffers. Execute must not be
// called concurrently.
type Executor struct {
	runner Runner
	clock  timeutil.Clock

	result *Result
	output []float32

	// input carries the raw frame bytes; inputBytes aliases it.
	input      []float32
	inputBytes []byte
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithClock sets the clock used to time Execute.
func WithClock(c timeutil.Clock) ExecutorOption {
	return func(e *Executor) { e.clock = c }
}

// NewExecutor allocates the model buffers and builds a runner for backend.
func NewExecutor(modelPath string, backend Backend, opts RunnerOptions, exOpts ...ExecutorOption) (*Executor, error) {
	if err := checkLayout(); err != nil {
		return nil, err
	}
	factory, err := lookupRunner(backend)
	if err != nil {
		return nil, err
	}

	e := &Executor{
		clock:  timeutil.RealClock{},
		result: new(Result),
		input:  make([]float32, NavInputSize/4),
	}
	for _, opt := range exOpts {
		opt(e)
	}
	e.output = e.result.words()
	e.inputBytes = unsafe.Slice((*byte)(unsafe.Pointer(&e.input[0])), NavInputSize)

	runner, err := factory(modelPath, e.output, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s runner for %s: %w", backend, modelPath, err)
	}
	if err := runner.AddInput(InputName, e.input); err != nil {
		runner.Close()
		return nil, fmt.Errorf("failed to add input %q: %w", InputName, err)
	}
	e.runner = runner
	return e, nil
}

// Execute runs the model on one frame. The returned Result aliases the output
// buffer and is only valid until the next call. The duration covers the runner
// alone.
func (e *Executor) Execute(frame []byte) (*Result, time.Duration, error) {
	if len(frame) != NavInputSize {
		return nil, 0, fmt.Errorf("%w: got %d bytes, want %d", ErrInputSize, len(frame), NavInputSize)
	}
	copy(e.inputBytes, frame)

	start := e.clock.Now()
	if err := e.runner.SetInputBuffer(InputName, e.input); err != nil {
		return nil, 0, fmt.Errorf("failed to set input buffer: %w", err)
	}
	if err := e.runner.Execute(); err != nil {
		return nil, 0, fmt.Errorf("model execution failed: %w", err)
	}
	elapsed := e.clock.Since(start)

	return e.result, elapsed, nil
}

// Close releases the runner.
func (e *Executor) Close() error {
	if e.runner == nil {
		return nil
	}
	err := e.runner.Close()
	e.runner = nil
	return err
}
