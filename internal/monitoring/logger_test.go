package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	origLogf, origWarnf := Logf, Warnf
	defer func() { Logf, Warnf = origLogf, origWarnf }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	Logf("frame %d", 7)
	Warnf("peer not ready")

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "frame 7" {
		t.Errorf("Logf line = %q", lines[0])
	}
	if lines[1] != "WARNING: peer not ready" {
		t.Errorf("Warnf line = %q", lines[1])
	}
}

func TestSetLogger_Nil(t *testing.T) {
	origLogf, origWarnf := Logf, Warnf
	defer func() { Logf, Warnf = origLogf, origWarnf }()

	called := false
	SetLogger(func(string, ...interface{}) { called = true })
	SetLogger(nil)

	Logf("muted")
	Warnf("muted")
	if called {
		t.Error("muted logger should not have triggered callback")
	}
}

func TestPrefixed(t *testing.T) {
	origLogf, origWarnf := Logf, Warnf
	defer func() { Logf, Warnf = origLogf, origWarnf }()

	logf := Prefixed("bridge")

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})

	logf("client %s connected", "abc")
	if got != "[bridge] client abc connected" {
		t.Errorf("got %q", got)
	}
}
