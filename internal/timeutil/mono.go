package timeutil

import "time"

var processStart = time.Now()

// fallbackMonoNanos is monotonic but process-relative, so it is only
// comparable within this process.
func fallbackMonoNanos() uint64 {
	return uint64(time.Since(processStart))
}
