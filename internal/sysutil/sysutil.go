// Package sysutil holds small process-level helpers shared by the server
// entrypoint: log level parsing, logger construction and listen address
// normalization.
package sysutil

import (
	"io"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLogLevel maps a level name to a zerolog level. Unknown or empty
// values resolve to info.
func ParseLogLevel(lvl string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetLogLevel configures the global zerolog level and returns it.
func SetLogLevel(lvl string) zerolog.Level {
	l := ParseLogLevel(lvl)
	zerolog.SetGlobalLevel(l)
	return l
}

// NewLogger builds the process logger. With pretty set, output goes through
// a human-readable console writer; otherwise one JSON object per line.
func NewLogger(w io.Writer, pretty bool, service string) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// ListenAddr turns a PORT value into an address for http.Server. A bare
// port becomes ":<port>"; host:port values pass through unchanged.
func ListenAddr(port string) string {
	p := strings.TrimSpace(port)
	if p == "" {
		return ":3000"
	}
	if _, _, err := net.SplitHostPort(p); err == nil {
		return p
	}
	return ":" + strings.TrimPrefix(p, ":")
}

// FirstNonEmpty returns the first value that is not blank, unmodified.
// If all values are blank, it returns "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
