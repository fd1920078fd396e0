package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger used by every pipeline stage.
// It defaults to log.Printf but may be replaced by SetLogger; tests usually
// mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Stage returns a logger that prefixes every line with "[name] ". The
// returned function resolves Logf on each call so SetLogger still applies.
func Stage(name string) func(format string, v ...interface{}) {
	prefix := "[" + name + "] "
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}

var warnings atomic.Int64

// Warnf logs a non-fatal condition (an empty result, a skipped sub-video)
// and counts it for the end-of-run summary.
func Warnf(format string, v ...interface{}) {
	warnings.Add(1)
	Logf("WARNING: "+format, v...)
}

// WarningCount returns the number of Warnf calls since the last reset.
func WarningCount() int64 { return warnings.Load() }

// ResetWarnings zeroes the warning counter.
func ResetWarnings() { warnings.Store(0) }
