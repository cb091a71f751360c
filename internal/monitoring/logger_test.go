package monitoring

import (
	"fmt"
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op logger
	called = false
	SetLogger(nil)
	Logf("test")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}

func TestTimed(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	done := Timed("solve")
	if len(lines) != 0 {
		t.Fatalf("Timed logged before completion: %v", lines)
	}
	done()

	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "solve took") {
		t.Errorf("unexpected log line %q", lines[0])
	}
}
