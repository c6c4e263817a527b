// Package logging builds the leveled component loggers used across the server.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

const (
	textHeader = "${time_rfc3339} ${level} [${prefix}]"
	jsonHeader = `{"time":"${time_rfc3339}","level":"${level}","component":"${prefix}"}`
)

// Options configures component loggers.
type Options struct {
	Level  string
	Format string // "text" or "json"
	Output io.Writer
}

// ParseLevel maps a level name to a gommon level. Unknown names map to INFO.
func ParseLevel(level string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// New returns a logger for the named component.
func New(component string, opts Options) *log.Logger {
	l := log.New(component)
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	l.SetOutput(out)
	l.SetLevel(ParseLevel(opts.Level))
	if strings.EqualFold(opts.Format, "json") {
		l.SetHeader(jsonHeader)
	} else {
		l.SetHeader(textHeader)
	}
	return l
}

// Discard returns a logger that drops everything. Used by tests and offline commands.
func Discard(component string) *log.Logger {
	return New(component, Options{Level: "off", Output: io.Discard})
}
