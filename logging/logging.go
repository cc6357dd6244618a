// Package logging builds the zerolog logger shared by the engine, the HTTP
// server and the command line.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "NFTSTAGES_LOG_LEVEL"
	EnvLogFormat  = "NFTSTAGES_LOG_FORMAT"
	EnvLogNoColor = "NFTSTAGES_LOG_NOCOLOR"
)

// Options selects level, format and destination. Zero values mean info,
// console and stderr.
type Options struct {
	App     string
	Level   string // debug, info, warn, error, disabled
	Format  string // console or json
	NoColor bool
	Out     io.Writer
}

// FromEnv returns o with NFTSTAGES_LOG_* overrides applied.
func (o Options) FromEnv() Options {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		o.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		o.Format = v
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvLogNoColor))); err == nil {
		o.NoColor = v
	}
	return o
}

// New builds a logger from o.
func New(o Options) zerolog.Logger {
	out := o.Out
	if out == nil {
		out = os.Stderr
	}
	if !strings.EqualFold(o.Format, "json") {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    o.NoColor,
		}
	}
	ctx := zerolog.New(out).Level(ParseLevel(o.Level)).With().Timestamp()
	if o.App != "" {
		ctx = ctx.Str("app", o.App)
	}
	return ctx.Logger()
}

// ParseLevel maps a level name to a zerolog level. Unknown names are info.
func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
