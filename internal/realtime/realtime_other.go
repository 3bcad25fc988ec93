//go:build !linux

package realtime

// SetPriority is not supported on this platform.
func SetPriority(priority int) error {
	return ErrUnsupported
}

// SetAffinity is not supported on this platform; pinning nothing succeeds.
func SetAffinity(cores []int) error {
	if len(cores) == 0 {
		return nil
	}
	return ErrUnsupported
}

// Affinity is not supported on this platform.
func Affinity() ([]int, error) {
	return nil, ErrUnsupported
}

// Priority is not supported on this platform.
func Priority() (policy, priority int, err error) {
	return 0, 0, ErrUnsupported
}
