//go:build linux || darwin

package timeutil

import "golang.org/x/sys/unix"

func monoNanos() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return fallbackMonoNanos()
	}
	return uint64(ts.Nano())
}
