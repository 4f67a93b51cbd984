package cli

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

// NewLogger returns a colored slog logger writing to output. Verbose
// enables step-level debug events; otherwise only warnings and errors show.
func NewLogger(output io.Writer, verbose bool, noColor bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(output, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
	return slog.New(handler)
}
