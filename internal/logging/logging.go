// Package logging builds the structured stderr logger used by wcc.
package logging

import (
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// EnvVar overrides the log level (debug, info, warn, error).
const EnvVar = "WCC_LOG"

// New returns a logger writing to w at info level. verbose selects debug
// level; the WCC_LOG environment variable, when set to a valid level, wins
// over both.
func New(w io.Writer, verbose bool) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: false,
		Prefix:          "wcc",
		Level:           Level(verbose, os.Getenv(EnvVar)),
	})
}

// Level resolves the effective level from the verbose flag and an
// environment value.
func Level(verbose bool, env string) charmlog.Level {
	if env = strings.TrimSpace(env); env != "" {
		if lvl, err := charmlog.ParseLevel(env); err == nil {
			return lvl
		}
	}
	if verbose {
		return charmlog.DebugLevel
	}
	return charmlog.InfoLevel
}

// Discard returns a logger that drops everything.
func Discard() *charmlog.Logger {
	return charmlog.NewWithOptions(io.Discard, charmlog.Options{Level: charmlog.FatalLevel})
}
