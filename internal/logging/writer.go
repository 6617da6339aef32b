package logging

import (
	"context"
	"log/slog"
	"strings"
)

// Writer forwards a child process stream to slog, one record per line.
type Writer struct {
	logger *slog.Logger
	level  slog.Level
	attrs  []any
}

// NewWriter constructs a Writer logging at level with attrs on every record.
func NewWriter(logger *slog.Logger, level Level, attrs ...any) *Writer {
	return &Writer{logger: logger, level: slog.Level(level), attrs: attrs}
}

// Write logs each non-empty line of p.
func (w *Writer) Write(p []byte) (int, error) {
	if w.logger == nil || !w.logger.Enabled(context.Background(), w.level) {
		return len(p), nil
	}
	for _, line := range strings.Split(string(p), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		w.logger.Log(context.Background(), w.level, "tool output", append([]any{"line", line}, w.attrs...)...)
	}
	return len(p), nil
}
