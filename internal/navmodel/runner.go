package navmodel

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
)

// ErrUnknownBackend is returned when no runner is registered for a backend.
var ErrUnknownBackend = errors.New("unknown model backend")

// Backend names a model runtime.
type Backend string

const (
	// BackendSNPE offloads to the vendor accelerator runtime.
	BackendSNPE Backend = "snpe"
	// BackendONNX runs the portable model through onnxruntime.
	BackendONNX Backend = "onnx"
	// BackendFixture replays recorded outputs for development.
	BackendFixture Backend = "fixture"
)

// Runtime selects the compute unit for accelerator backends.
type Runtime int

const (
	RuntimeCPU Runtime = iota
	RuntimeGPU
	RuntimeDSP
)

func (r Runtime) String() string {
	switch r {
	case RuntimeCPU:
		return "cpu"
	case RuntimeGPU:
		return "gpu"
	case RuntimeDSP:
		return "dsp"
	}
	return fmt.Sprintf("Runtime(%d)", int(r))
}

// RunnerOptions are passed to runner factories.
type RunnerOptions struct {
	Runtime Runtime
	// UseTF8 requests quantised 8-bit input.
	UseTF8 bool
	// LibraryPath locates a shared runtime library when the backend needs one.
	LibraryPath string
}

// DefaultRunnerOptions requests the DSP runtime with quantised input.
func DefaultRunnerOptions() RunnerOptions {
	return RunnerOptions{Runtime: RuntimeDSP, UseTF8: true}
}

// Runner executes a model whose output is written into the slice given to its
// factory. Implementations need not be safe for concurrent use.
type Runner interface {
	// AddInput registers a named input buffer.
	AddInput(name string, buf []float32) error
	// SetInputBuffer points a registered input at buf for the next Execute.
	SetInputBuffer(name string, buf []float32) error
	// Execute runs the model, filling the output slice.
	Execute() error
	Close() error
}

// RunnerFactory builds a Runner writing into output.
type RunnerFactory func(modelPath string, output []float32, opts RunnerOptions) (Runner, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[Backend]RunnerFactory)
)

// RegisterRunner makes a backend available. It is normally called from an
// init function of a runners package. Registering a backend twice panics.
func RegisterRunner(backend Backend, factory RunnerFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("navmodel: RegisterRunner factory is nil")
	}
	if _, dup := registry[backend]; dup {
		panic("navmodel: RegisterRunner called twice for " + string(backend))
	}
	registry[backend] = factory
}

// Backends lists the registered backends.
func Backends() []Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return keysLocked()
}

func lookupRunner(backend Backend) (RunnerFactory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownBackend, backend, keysLocked())
	}
	return f, nil
}

func keysLocked() []Backend {
	out := make([]Backend, 0, len(registry))
	for b := range registry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ModelPath returns the model artifact for backend under modelsDir.
func ModelPath(modelsDir string, backend Backend) string {
	switch backend {
	case BackendSNPE:
		return filepath.Join(modelsDir, "navmodel_q.dlc")
	case BackendFixture:
		return filepath.Join(modelsDir, "navmodel_fixture.bin")
	}
	return filepath.Join(modelsDir, "navmodel.onnx")
}
