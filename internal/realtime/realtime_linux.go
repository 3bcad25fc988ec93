//go:build linux

package realtime

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SetPriority switches the calling thread to SCHED_FIFO at priority.
func SetPriority(priority int) error {
	if priority < 1 || priority > 99 {
		return fmt.Errorf("priority %d out of range 1-99", priority)
	}
	attr := unix.SchedAttr{Policy: unix.SCHED_FIFO, Priority: uint32(priority)}
	if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
		return fmt.Errorf("sched_setattr: %w", err)
	}
	return nil
}

// Priority returns the scheduling policy and real-time priority of the
// calling thread.
func Priority() (policy, priority int, err error) {
	attr, err := unix.SchedGetAttr(0, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("sched_getattr: %w", err)
	}
	return int(attr.Policy), int(attr.Priority), nil
}

// SetAffinity pins the calling thread to cores.
func SetAffinity(cores []int) error {
	if len(cores) == 0 {
		return nil
	}
	var set unix.CPUSet
	set.Zero()
	for _, c := range cores {
		if c < 0 {
			return fmt.Errorf("invalid core %d", c)
		}
		set.Set(c)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity: %w", err)
	}
	return nil
}

// Affinity returns the cores the calling thread may run on.
func Affinity() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("sched_getaffinity: %w", err)
	}
	var cores []int
	for c := 0; c < len(set)*64 && len(cores) < set.Count(); c++ {
		if set.IsSet(c) {
			cores = append(cores, c)
		}
	}
	return cores, nil
}
