// Package realtime raises the scheduling class of the calling thread. Callers
// pin their goroutine with runtime.LockOSThread first so the settings stick to
// the thread that runs the frame loop.
package realtime

import "errors"

// ErrUnsupported is returned on platforms without real-time scheduling.
var ErrUnsupported = errors.New("real-time scheduling not supported on this platform")

// DefaultPriority is the SCHED_FIFO priority of the frame loop.
const DefaultPriority = 53
