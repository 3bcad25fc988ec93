// Package monitoring holds the process-wide diagnostic loggers.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Warnf logs conditions an operator should see even when the service keeps
// running (startup gating, dropped stats windows, bridge reconnects).
var Warnf func(format string, v ...interface{}) = func(format string, v ...interface{}) {
	log.Printf("WARNING: "+format, v...)
}

// SetLogger replaces both loggers. Passing nil mutes them. Warnings are routed
// through f with the same WARNING prefix the default uses.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		Warnf = func(string, ...interface{}) {}
		return
	}
	Logf = f
	Warnf = func(format string, v ...interface{}) {
		f("WARNING: "+format, v...)
	}
}

// Prefixed returns a logger that tags every line with "[component] ". The
// returned func reads Logf at call time so SetLogger applies to it as well.
func Prefixed(component string) func(format string, v ...interface{}) {
	prefix := "[" + component + "] "
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}
