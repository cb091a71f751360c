package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Timed logs how long a stage took once the returned func runs:
//
//	defer monitoring.Timed("load continuum")()
func Timed(stage string) func() {
	start := time.Now()
	return func() {
		Logf("[timing] %s took %v", stage, time.Since(start).Round(time.Microsecond))
	}
}
