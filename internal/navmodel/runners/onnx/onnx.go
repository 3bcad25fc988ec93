//go:build onnx

package onnx

import (
	"fmt"
	"sync"
	"unsafe"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/banshee-data/navmodel/internal/monitoring"
	"github.com/banshee-data/navmodel/internal/navmodel"
)

var logf = monitoring.Prefixed("onnx")

func init() {
	navmodel.RegisterRunner(navmodel.BackendONNX, New)
}

var (
	envOnce sync.Once
	envErr  error
)

func initEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		envErr = ort.InitializeEnvironment()
		if envErr == nil {
			logf("onnxruntime initialised")
		}
	})
	return envErr
}

type input struct {
	name string
	buf  []float32
}

// Runner binds the caller's buffers as onnxruntime tensors. The session is
// built on the first Execute and rebuilt when an input buffer moves.
type Runner struct {
	modelPath string
	opts      navmodel.RunnerOptions
	output    []float32

	inputInfo  []ort.InputOutputInfo
	outputName string

	inputs  []input
	session *ort.AdvancedSession
	values  []ort.Value
}

var _ navmodel.Runner = (*Runner)(nil)

// New loads model metadata from modelPath.
func New(modelPath string, output []float32, opts navmodel.RunnerOptions) (navmodel.Runner, error) {
	if err := initEnvironment(opts.LibraryPath); err != nil {
		return nil, fmt.Errorf("failed to initialise onnxruntime: %w", err)
	}
	ins, outs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model info: %w", err)
	}
	if len(outs) != 1 {
		return nil, fmt.Errorf("model has %d outputs, want 1", len(outs))
	}
	if opts.Runtime != navmodel.RuntimeCPU {
		logf("runtime %s not available, using cpu", opts.Runtime)
	}
	return &Runner{
		modelPath:  modelPath,
		opts:       opts,
		output:     output,
		inputInfo:  ins,
		outputName: outs[0].Name,
	}, nil
}

// AddInput registers a named input.
func (r *Runner) AddInput(name string, buf []float32) error {
	for _, in := range r.inputs {
		if in.name == name {
			return fmt.Errorf("input %q already added", name)
		}
	}
	r.inputs = append(r.inputs, input{name: name, buf: buf})
	r.destroySession()
	return nil
}

// SetInputBuffer rebinds a registered input. Rebinding the same slice is free.
func (r *Runner) SetInputBuffer(name string, buf []float32) error {
	for i := range r.inputs {
		if r.inputs[i].name != name {
			continue
		}
		if !sameBuffer(r.inputs[i].buf, buf) {
			r.inputs[i].buf = buf
			r.destroySession()
		}
		return nil
	}
	return fmt.Errorf("input %q not added", name)
}

// Execute runs the session, writing into the output buffer.
func (r *Runner) Execute() error {
	if r.session == nil {
		if err := r.buildSession(); err != nil {
			return err
		}
	}
	return r.session.Run()
}

// Close destroys the session and its tensors.
func (r *Runner) Close() error {
	r.destroySession()
	return nil
}

func (r *Runner) buildSession() error {
	names := make([]string, 0, len(r.inputs))
	values := make([]ort.Value, 0, len(r.inputs)+1)
	for _, in := range r.inputs {
		v, err := r.inputTensor(in)
		if err != nil {
			destroyValues(values)
			return fmt.Errorf("input %q: %w", in.name, err)
		}
		names = append(names, in.name)
		values = append(values, v)
	}

	out, err := ort.NewTensor(ort.NewShape(1, int64(len(r.output))), r.output)
	if err != nil {
		destroyValues(values)
		return fmt.Errorf("failed to bind output: %w", err)
	}

	session, err := ort.NewAdvancedSession(r.modelPath, names, []string{r.outputName},
		values, []ort.Value{out}, nil)
	if err != nil {
		destroyValues(append(values, out))
		return fmt.Errorf("failed to create session: %w", err)
	}
	r.session = session
	r.values = append(values, out)
	return nil
}

// inputTensor views buf as float32 or, for quantised models, as the raw bytes
// it carries.
func (r *Runner) inputTensor(in input) (ort.Value, error) {
	if r.opts.UseTF8 {
		raw := unsafe.Slice((*uint8)(unsafe.Pointer(unsafe.SliceData(in.buf))), len(in.buf)*4)
		t, err := ort.NewTensor(r.shapeFor(in.name, len(raw)), raw)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	t, err := ort.NewTensor(r.shapeFor(in.name, len(in.buf)), in.buf)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// shapeFor uses the model's declared shape when it fits n elements, with
// dynamic dimensions set to 1.
func (r *Runner) shapeFor(name string, n int) ort.Shape {
	for _, info := range r.inputInfo {
		if info.Name != name {
			continue
		}
		dims := make(ort.Shape, len(info.Dimensions))
		for i, d := range info.Dimensions {
			if d < 0 {
				d = 1
			}
			dims[i] = d
		}
		if dims.FlattenedSize() == int64(n) {
			return dims
		}
	}
	return ort.NewShape(1, int64(n))
}

func (r *Runner) destroySession() {
	if r.session != nil {
		r.session.Destroy()
		r.session = nil
	}
	destroyValues(r.values)
	r.values = nil
}

func destroyValues(values []ort.Value) {
	for _, v := range values {
		v.Destroy()
	}
}

func sameBuffer(a, b []float32) bool {
	return len(a) == len(b) && unsafe.SliceData(a) == unsafe.SliceData(b)
}
