package navmodeld

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/navmodel/internal/config"
	"github.com/banshee-data/navmodel/internal/fsutil"
	"github.com/banshee-data/navmodel/internal/messaging"
	"github.com/banshee-data/navmodel/internal/messaging/bridge"
	"github.com/banshee-data/navmodel/internal/navmodel"
	_ "github.com/banshee-data/navmodel/internal/navmodel/runners/fixture"
	"github.com/banshee-data/navmodel/internal/params"
	"github.com/banshee-data/navmodel/internal/stats"
	"github.com/banshee-data/navmodel/internal/testutil"
	"github.com/banshee-data/navmodel/internal/visionipc"
)

func ptr[T any](v T) *T { return &v }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Backend:   ptr("fixture"),
		ModelsDir: ptr(t.TempDir()),
		ParamsDir: ptr("/params"),
		StatsDB:   ptr(""),
	}
}

func paramsWith(t *testing.T, key string, value *bool) *params.Store {
	t.Helper()
	store := params.New(fsutil.NewMemoryFileSystem(), "/params")
	if value != nil {
		require.NoError(t, store.PutBool(key, *value))
	}
	return store
}

// chanSource connects immediately and delivers frames from a channel.
type chanSource struct {
	frames chan *visionipc.Frame
}

func (c *chanSource) Connect(bool) bool { return true }
func (c *chanSource) IsConnected() bool { return true }
func (c *chanSource) BufferLen() int    { return navmodel.NavInputSize }

func (c *chanSource) Recv() (*visionipc.Frame, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case <-time.After(5 * time.Millisecond):
		return nil, nil
	}
}

type memStore struct {
	mu sync.Mutex
	n  int
}

func (m *memStore) RecordLatencySummary(stats.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return nil
}

func TestMain_GateClosedExitsBeforeLoadingModel(t *testing.T) {
	cfg := testConfig(t)
	called := false

	err := Main(context.Background(), cfg, Deps{
		Params: paramsWith(t, "DmModelInitialized", ptr(false)),
		NewExecutor: func(string, navmodel.Backend, navmodel.RunnerOptions) (Executor, error) {
			called = true
			return nil, errors.New("must not be called")
		},
		DisableBus: true,
	})

	assert.NoError(t, err)
	assert.False(t, called, "executor must not be constructed when the gate is closed")
}

func TestMain_ExecutorFailureIsFatal(t *testing.T) {
	boom := errors.New("runtime missing")
	err := Main(context.Background(), testConfig(t), Deps{
		Params: paramsWith(t, "DmModelInitialized", nil),
		NewExecutor: func(string, navmodel.Backend, navmodel.RunnerOptions) (Executor, error) {
			return nil, boom
		},
		DisableBus: true,
	})
	assert.ErrorIs(t, err, boom)
}

func TestMain_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend = ptr("snpe")

	err := Main(context.Background(), cfg, Deps{
		Params:     paramsWith(t, "DmModelInitialized", ptr(true)),
		DisableBus: true,
	})
	assert.ErrorIs(t, err, navmodel.ErrUnknownBackend)
}

func TestMain_ResolvesModelPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.ModelsDir = ptr("/models")
	cfg.OnnxLibraryPath = ptr("/usr/lib/libonnxruntime.so")
	cfg.Backend = ptr("onnx")

	var gotPath string
	var gotOpts navmodel.RunnerOptions
	err := Main(context.Background(), cfg, Deps{
		Params: paramsWith(t, "DmModelInitialized", nil),
		NewExecutor: func(path string, backend navmodel.Backend, opts navmodel.RunnerOptions) (Executor, error) {
			gotPath, gotOpts = path, opts
			return nil, errors.New("stop here")
		},
		DisableBus: true,
	})
	require.Error(t, err)
	assert.Equal(t, "/models/navmodel.onnx", gotPath)
	assert.Equal(t, navmodel.RuntimeDSP, gotOpts.Runtime)
	assert.True(t, gotOpts.UseTF8)
	assert.Equal(t, "/usr/lib/libonnxruntime.so", gotOpts.LibraryPath)
}

func TestMain_DefaultBackendFromEnv(t *testing.T) {
	tests := []struct {
		env  string
		want navmodel.Backend
		path string
	}{
		{"", navmodel.BackendONNX, "/models/navmodel.onnx"},
		{"0", navmodel.BackendONNX, "/models/navmodel.onnx"},
		{"2", navmodel.BackendSNPE, "/models/navmodel_q.dlc"},
	}
	for _, tt := range tests {
		t.Setenv(config.BackendEnv, tt.env)
		cfg := testConfig(t)
		cfg.Backend = nil
		cfg.ModelsDir = ptr("/models")

		var gotBackend navmodel.Backend
		var gotPath string
		err := Main(context.Background(), cfg, Deps{
			Params: paramsWith(t, "DmModelInitialized", nil),
			NewExecutor: func(path string, backend navmodel.Backend, _ navmodel.RunnerOptions) (Executor, error) {
				gotPath, gotBackend = path, backend
				return nil, errors.New("stop here")
			},
			DisableBus: true,
		})
		require.Error(t, err)
		assert.Equal(t, tt.want, gotBackend, "%s=%q", config.BackendEnv, tt.env)
		assert.Equal(t, tt.path, gotPath, "%s=%q", config.BackendEnv, tt.env)
	}
}

func TestMain_ZeroModelOutput(t *testing.T) {
	hub := messaging.NewHub(nil)
	defer hub.Close()
	_, out := hub.Subscribe(messaging.NavModelTopic, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source := &chanSource{frames: make(chan *visionipc.Frame, 1)}

	done := make(chan error, 1)
	go func() {
		done <- Main(ctx, testConfig(t), Deps{
			Params:     paramsWith(t, "DmModelInitialized", nil),
			Source:     source,
			Hub:        hub,
			Store:      &memStore{},
			DisableBus: true,
		})
	}()

	source.frames <- mapFrame(5, 0, true)
	var ev *messaging.Event
	select {
	case ev = <-out:
	case <-time.After(5 * time.Second):
		t.Fatal("no navModel packet")
	}
	cancel()
	require.NoError(t, <-done)

	assert.True(t, ev.Valid, "navInstruction counts as valid before its first message")
	assert.Equal(t, uint32(5), ev.NavModel.FrameID)
	for i := 0; i < navmodel.TrajectorySize; i++ {
		require.Equal(t, float32(0), ev.NavModel.Position.X[i])
		require.Equal(t, float32(1), ev.NavModel.Position.XStd[i])
		require.Equal(t, float32(1), ev.NavModel.Position.YStd[i])
	}
	assert.Equal(t, [navmodel.FeatureLen]float32{}, ev.NavModel.Features)
}

func TestMain_BusEndToEnd(t *testing.T) {
	busDir := testutil.SocketDir(t, "navbus")

	cfg := testConfig(t)
	cfg.BusDir = ptr(busDir)

	// A remote process publishing navInstruction.
	remote := messaging.NewHub(nil)
	defer remote.Close()
	remoteSrv := bridge.NewServer(remote, bridge.DefaultConfig())
	go remoteSrv.Serve(bridge.SocketPath(busDir, messaging.NavInstructionTopic))
	defer remoteSrv.Stop()

	local := messaging.NewHub(nil)
	defer local.Close()
	_, instructions := local.Subscribe(messaging.NavInstructionTopic, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source := &chanSource{frames: make(chan *visionipc.Frame, 1)}
	done := make(chan error, 1)
	go func() {
		done <- Main(ctx, cfg, Deps{
			Params: paramsWith(t, "DmModelInitialized", ptr(true)),
			Source: source,
			Hub:    local,
			Store:  &memStore{},
		})
	}()

	// A remote consumer of navModel.
	packets := make(chan *messaging.Event, 4)
	go bridge.Watch(ctx, bridge.Target(bridge.SocketPath(busDir, messaging.NavModelTopic)), messaging.NavModelTopic,
		func(ev *messaging.Event) error {
			packets <- ev
			return nil
		}, bridge.WithBackoff(10*time.Millisecond))

	require.Eventually(t, func() bool {
		return remote.Subscribers(messaging.NavInstructionTopic) == 1 &&
			local.Subscribers(messaging.NavModelTopic) >= 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, remote.Publish(messaging.NavInstructionTopic, &messaging.Event{
		Valid:          false,
		NavInstruction: &messaging.NavInstructionData{ManeuverType: "turn"},
	}))
	select {
	case <-instructions:
	case <-time.After(5 * time.Second):
		t.Fatal("navInstruction was not forwarded")
	}

	source.frames <- mapFrame(9, 0, true)
	select {
	case ev := <-packets:
		assert.Equal(t, uint32(9), ev.NavModel.FrameID)
		assert.False(t, ev.Valid, "invalid navInstruction invalidates the packet")
	case <-time.After(5 * time.Second):
		t.Fatal("navModel packet did not reach the remote consumer")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Main did not return after cancel")
	}
}
