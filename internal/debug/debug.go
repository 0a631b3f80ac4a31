// Package debug holds the logger shared by the protocol
// implementation. Setting $WAYLAND_DEBUG to a positive number enables
// protocol tracing, like it does for libwayland.
package debug

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Log is the logger used for everything below the host application.
// Hosts may replace its output, formatter, or level.
var Log = logrus.New()

func init() {
	Log.SetLevel(logrus.WarnLevel)

	debugLevel, err := strconv.ParseInt(os.Getenv("WAYLAND_DEBUG"), 10, 0)
	if err != nil {
		return
	}
	if debugLevel > 0 {
		Log.SetLevel(logrus.TraceLevel)
	}
}

// Tracing reports whether protocol trace lines are being logged.
// Callers check it before formatting anything expensive.
func Tracing() bool {
	return Log.IsLevelEnabled(logrus.TraceLevel)
}

// Printf logs a protocol trace line.
func Printf(str string, args ...any) {
	Log.Tracef(str, args...)
}

// WithFields starts a structured log entry.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}
