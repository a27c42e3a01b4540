package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger used by the analysis
// packages. It defaults to log.Printf; CLIs keep the default and tests
// usually mute it with SetLogger(nil).
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Timed logs the start of a pipeline stage and returns a func that logs
// its elapsed time. Typical use: defer monitoring.Timed("detect")().
func Timed(stage string) func() {
	start := time.Now()
	Logf("[%s] start", stage)
	return func() {
		Logf("[%s] done in %s", stage, time.Since(start).Round(time.Millisecond))
	}
}
