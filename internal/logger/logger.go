// Package logger builds the slog logger used by the nsconf command.
//
// Library packages take a *slog.Logger through their options; the command
// creates one here with Initialize and hands it down via Get.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/spf13/viper"
)

// StructuredLogsEnv switches output to JSON when set to a true value.
const StructuredLogsEnv = "NSCONF_STRUCTURED_LOGS"

var singleton atomic.Pointer[slog.Logger]

func init() {
	singleton.Store(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// Get returns the current logger for injection into structs.
func Get() *slog.Logger {
	return singleton.Load()
}

// Set replaces the current logger. Intended for tests capturing output.
func Set(l *slog.Logger) {
	singleton.Store(l)
}

// Initialize configures the logger from the environment and the
// viper-bound "debug" flag, writing to stderr.
func Initialize() {
	singleton.Store(New(os.Stderr, os.Getenv, viper.GetBool("debug")))
}

// New creates a logger writing to w. Output is text unless the
// StructuredLogsEnv variable read through getenv is true.
func New(w io.Writer, getenv func(string) string, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}

	if structuredLogs(getenv) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func structuredLogs(getenv func(string) string) bool {
	v, err := strconv.ParseBool(getenv(StructuredLogsEnv))
	if err != nil {
		// unset or unparsable means text
		return false
	}
	return v
}
