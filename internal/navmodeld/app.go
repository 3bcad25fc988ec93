package navmodeld

import (
	"context"
	"fmt"
	"sync"

	"github.com/banshee-data/navmodel/internal/config"
	"github.com/banshee-data/navmodel/internal/db"
	"github.com/banshee-data/navmodel/internal/gate"
	"github.com/banshee-data/navmodel/internal/messaging"
	"github.com/banshee-data/navmodel/internal/messaging/bridge"
	"github.com/banshee-data/navmodel/internal/monitoring"
	"github.com/banshee-data/navmodel/internal/navmodel"
	"github.com/banshee-data/navmodel/internal/params"
	"github.com/banshee-data/navmodel/internal/stats"
	"github.com/banshee-data/navmodel/internal/timeutil"
	"github.com/banshee-data/navmodel/internal/visionipc"
)

// ExecutorFactory builds the model executor.
type ExecutorFactory func(modelPath string, backend navmodel.Backend, opts navmodel.RunnerOptions) (Executor, error)

// Deps overrides the collaborators Main builds from the config. Zero values
// select the real implementations.
type Deps struct {
	Clock       timeutil.Clock
	Params      gate.BoolReader
	Source      visionipc.Source
	Hub         *messaging.Hub
	NewExecutor ExecutorFactory
	Store       stats.Store

	// DisableBus skips the cross-process bus sockets.
	DisableBus bool
}

func defaultExecutorFactory(clock timeutil.Clock) ExecutorFactory {
	return func(modelPath string, backend navmodel.Backend, opts navmodel.RunnerOptions) (Executor, error) {
		return navmodel.NewExecutor(modelPath, backend, opts, navmodel.WithClock(clock))
	}
}

// Main runs navmodeld until ctx is cancelled or a fatal error occurs. It
// returns nil without loading the model when the peer readiness flag is
// false.
func Main(ctx context.Context, cfg *config.Config, deps Deps) error {
	clock := deps.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	reader := deps.Params
	if reader == nil {
		reader = params.New(nil, cfg.GetParamsDir())
	}
	// Two processes creating accelerator runners at once can fail; wait for
	// the peer to have initialised.
	if !gate.New(reader, cfg.GetReadinessKey()).Ready() {
		logf("%s is false, exiting", cfg.GetReadinessKey())
		return nil
	}

	newExecutor := deps.NewExecutor
	if newExecutor == nil {
		newExecutor = defaultExecutorFactory(clock)
	}
	backend := navmodel.Backend(cfg.GetBackend())
	modelPath := navmodel.ModelPath(cfg.GetModelsDir(), backend)
	opts := navmodel.DefaultRunnerOptions()
	opts.LibraryPath = cfg.GetOnnxLibraryPath()

	exec, err := newExecutor(modelPath, backend, opts)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	defer exec.Close()
	monitoring.Warnf("[navmodeld] models loaded (%s, %s), navmodeld starting", backend, modelPath)

	hub := deps.Hub
	if hub == nil {
		hub = messaging.NewHub(clock)
		defer hub.Close()
	}
	subs := messaging.NewSubState(hub, messaging.NavInstructionTopic)
	defer subs.Close()

	store := deps.Store
	if store == nil && cfg.GetStatsDB() != "" {
		sdb, err := db.Open(cfg.GetStatsDB())
		if err != nil {
			monitoring.Warnf("[navmodeld] latency database unavailable, summaries will only be logged: %v", err)
		} else {
			defer sdb.Close()
			store = sdb
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	if !deps.DisableBus {
		srv := bridge.NewServer(hub, bridge.DefaultConfig())
		defer srv.Stop()
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := srv.Serve(bridge.SocketPath(cfg.GetBusDir(), messaging.NavModelTopic)); err != nil {
				monitoring.Warnf("[navmodeld] bus server failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			target := bridge.Target(bridge.SocketPath(cfg.GetBusDir(), messaging.NavInstructionTopic))
			if err := bridge.Forward(ctx, target, messaging.NavInstructionTopic, hub); err != nil {
				monitoring.Warnf("[navmodeld] navInstruction forwarder stopped: %v", err)
			}
		}()
	}

	recorder := stats.NewRecorder(cfg.GetStatsWindow(), clock)
	wg.Add(1)
	go func() {
		defer wg.Done()
		recorder.Run(ctx, store)
	}()

	source := deps.Source
	if source == nil {
		source = visionipc.NewClient(cfg.GetVisionDir(), cfg.GetVisionName(), visionipc.StreamMap)
	}

	svc := NewService(source, exec, subs, hub, Options{
		Clock:          clock,
		ConnectBackoff: cfg.GetConnectBackoff(),
		Observer:       recorder,
	})
	err = svc.Run(ctx)
	logf("frame loop stopped after %d frames", svc.Frames())
	return err
}
