package logger

import (
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

const header = `${time_rfc3339} ${level} ${prefix}`

// New returns a logger for prefix writing to stderr at the given level
// (debug|info|warn|error|off). Unknown levels fall back to warn; the second
// result reports whether the level was recognized.
func New(prefix, level string) (*log.Logger, bool) {
	l := log.New(prefix)
	l.SetOutput(os.Stderr)
	l.SetHeader(header)
	lvl, ok := ParseLevel(level)
	l.SetLevel(lvl)
	return l, ok
}

// Null discards everything.
func Null() *log.Logger {
	l := log.New("")
	l.SetOutput(io.Discard)
	l.SetLevel(log.OFF)
	return l
}

func ParseLevel(level string) (log.Lvl, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG, true
	case "info":
		return log.INFO, true
	case "warn", "":
		return log.WARN, true
	case "error":
		return log.ERROR, true
	case "off":
		return log.OFF, true
	}
	return log.WARN, false
}
