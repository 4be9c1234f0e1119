package utils

import (
	"io"
	"log/slog"
)

// CloseWithLog closes c and logs a failure instead of returning it.
// Meant for deferred closes of response bodies.
func CloseWithLog(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("failed to close resource", slog.String("error", err.Error()))
	}
}
