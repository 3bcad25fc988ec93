// Package gate implements the one-shot startup barrier between inference
// processes that share the same accelerator.
//
// Two processes requesting DSP resources at the same time during model load can
// contend, so this process defers to its peer: it reads the peer's readiness
// flag exactly once and, if the peer has not finished initialising, the caller
// exits cleanly and leaves the restart to the process supervisor.
package gate

import "github.com/banshee-data/navmodel/internal/monitoring"

// DefaultKey is the param the peer driver-monitoring model process sets once
// its runner is up.
const DefaultKey = "DmModelInitialized"

// BoolReader reads a persisted boolean with a default for unset keys.
type BoolReader interface {
	GetBool(key string, def bool) bool
}

// Gate is a single readiness check.
type Gate struct {
	reader BoolReader
	key    string
}

// New returns a Gate reading key from reader. An empty key uses DefaultKey.
func New(reader BoolReader, key string) Gate {
	if key == "" {
		key = DefaultKey
	}
	return Gate{reader: reader, key: key}
}

// Key returns the param the gate reads.
func (g Gate) Key() string { return g.key }

// Ready reads the flag once. An unset flag counts as ready.
func (g Gate) Ready() bool {
	monitoring.Warnf("[gate] waiting for peer model process to initialize (%s)", g.key)
	return g.reader.GetBool(g.key, true)
}
