package navmodeld

import (
	"runtime"
	"runtime/debug"

	"github.com/banshee-data/navmodel/internal/config"
	"github.com/banshee-data/navmodel/internal/monitoring"
	"github.com/banshee-data/navmodel/internal/realtime"
)

// SetupProcess prepares the calling goroutine to run the frame loop. It locks
// the goroutine to its OS thread, disables the garbage collector behind a soft
// memory limit and applies real-time scheduling. Failures are logged, since
// development machines usually lack the privileges.
func SetupProcess(cfg *config.Config) {
	runtime.LockOSThread()

	if mb := cfg.GetGCMemoryLimitMB(); mb > 0 {
		debug.SetMemoryLimit(int64(mb) << 20)
		debug.SetGCPercent(-1)
		logf("garbage collector disabled, memory limit %d MB", mb)
	}

	if prio := cfg.GetRealtimePriority(); prio > 0 {
		if err := realtime.SetPriority(prio); err != nil {
			monitoring.Warnf("[navmodeld] failed to set realtime priority %d: %v", prio, err)
		}
	}
	if cores := cfg.GetCPUCores(); len(cores) > 0 {
		if err := realtime.SetAffinity(cores); err != nil {
			monitoring.Warnf("[navmodeld] failed to set cpu affinity %v: %v", cores, err)
		}
	}
}
