// Package fixture provides a model runner that replays recorded outputs. It
// lets the service run end to end on machines without an accelerator.
//
// A recording is a sequence of navmodel.OutputSize little-endian float32
// values per frame. Each Execute copies the next recorded frame into the
// output buffer, wrapping at the end. With no recording every output is zero.
package fixture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"github.com/banshee-data/navmodel/internal/monitoring"
	"github.com/banshee-data/navmodel/internal/navmodel"
)

var logf = monitoring.Prefixed("fixture")

func init() {
	navmodel.RegisterRunner(navmodel.BackendFixture, New)
}

// Runner replays recorded frames.
type Runner struct {
	output []float32
	frames [][]float32
	next   int
	inputs map[string][]float32
}

var _ navmodel.Runner = (*Runner)(nil)

// New loads the recording at path. A missing file yields a runner that writes
// zeros.
func New(path string, output []float32, _ navmodel.RunnerOptions) (navmodel.Runner, error) {
	if len(output) != navmodel.OutputSize {
		return nil, fmt.Errorf("output buffer has %d values, want %d", len(output), navmodel.OutputSize)
	}
	r := &Runner{output: output, inputs: make(map[string][]float32)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		monitoring.Warnf("[fixture] no recording at %s, replaying zeros", path)
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	frames, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.frames = frames
	logf("loaded %d recorded frames from %s", len(frames), path)
	return r, nil
}

// AddInput registers an input. Its contents are ignored.
func (r *Runner) AddInput(name string, buf []float32) error {
	if _, dup := r.inputs[name]; dup {
		return fmt.Errorf("input %q already added", name)
	}
	r.inputs[name] = buf
	return nil
}

// SetInputBuffer rebinds a registered input.
func (r *Runner) SetInputBuffer(name string, buf []float32) error {
	if _, ok := r.inputs[name]; !ok {
		return fmt.Errorf("input %q not added", name)
	}
	r.inputs[name] = buf
	return nil
}

// Execute writes the next recorded frame, or zeros.
func (r *Runner) Execute() error {
	if len(r.frames) == 0 {
		clear(r.output)
		return nil
	}
	copy(r.output, r.frames[r.next])
	r.next = (r.next + 1) % len(r.frames)
	return nil
}

// Close is a no-op.
func (r *Runner) Close() error { return nil }

// Decode splits a recording into frames.
func Decode(data []byte) ([][]float32, error) {
	const frameBytes = navmodel.OutputSize * 4
	if len(data)%frameBytes != 0 {
		return nil, fmt.Errorf("recording is %d bytes, not a multiple of %d", len(data), frameBytes)
	}
	frames := make([][]float32, len(data)/frameBytes)
	for i := range frames {
		f := make([]float32, navmodel.OutputSize)
		chunk := data[i*frameBytes:]
		for j := range f {
			f[j] = math.Float32frombits(binary.LittleEndian.Uint32(chunk[j*4:]))
		}
		frames[i] = f
	}
	return frames, nil
}

// Encode serialises frames into a recording. Every frame must hold
// navmodel.OutputSize values.
func Encode(frames ...[]float32) ([]byte, error) {
	out := make([]byte, 0, len(frames)*navmodel.OutputSize*4)
	for i, f := range frames {
		if len(f) != navmodel.OutputSize {
			return nil, fmt.Errorf("frame %d has %d values, want %d", i, len(f), navmodel.OutputSize)
		}
		for _, v := range f {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
		}
	}
	return out, nil
}
