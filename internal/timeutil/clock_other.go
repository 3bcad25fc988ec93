//go:build !linux && !darwin

package timeutil

func monoNanos() uint64 {
	return fallbackMonoNanos()
}
