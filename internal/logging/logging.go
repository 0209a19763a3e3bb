// Package logging installs the process-wide structured logger for the
// command-line tool. The library itself never logs; it reports through
// diagnostics on the conversion result.
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Setup replaces the default slog logger with a tinted handler at the
// given level. Output goes to stderr so command results on stdout stay
// machine-readable.
func Setup(level slog.Level) {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		}),
	))
}
