package mot

import "log"

// Logf is the package diagnostic hook. The pure matching functions are
// silent; only Tracker lifecycle events (track creation and deletion)
// go through it. Defaults to log.Printf; replace or mute with
// SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
