// Package logging builds the slog.Logger used across mcpadre: a stderr
// handler gated by --log-level, fanned out to an always-on JSON file handler
// under the workspace log directory.
//
// Grounded on majorcontext-moat's internal/log package: the same
// multiHandler fan-out over a stderr handler (text or JSON, level-gated) and
// an always-debug JSON file handler. Unlike moat, mcpadre never writes to
// stdout under any handler — stdout carries the JSON-RPC wire during `run`.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// LevelTrace is finer than slog's built-in Debug; it backs --log-level trace
// (spec.md §6) and is the level of the always-on file handler.
const LevelTrace = slog.Level(-8)

// Options configures the logger returned by New.
type Options struct {
	// Level is one of error/warn/info/debug/trace (spec.md §6).
	Level string
	// JSONStderr switches the stderr handler from text to JSON.
	JSONStderr bool
	// LogDir, when non-empty, enables an always-on JSON file handler at
	// LevelTrace (so debug records are included) writing to
	// <LogDir>/mcpadre-<timestamp>.log.
	LogDir string
	// Stderr defaults to os.Stderr; overridable for tests.
	Stderr io.Writer
}

// New builds a fan-out *slog.Logger per Options. The returned close func
// must be called once logging is no longer needed, to flush/close the file
// handle if one was opened.
func New(opts Options) (*slog.Logger, func() error, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	level := parseLevel(opts.Level)

	var handlers []slog.Handler

	stderrOpts := &slog.HandlerOptions{Level: level}
	if opts.JSONStderr {
		handlers = append(handlers, slog.NewJSONHandler(stderr, stderrOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(stderr, stderrOpts))
	}

	closeFn := func() error { return nil }

	if opts.LogDir != "" {
		err := os.MkdirAll(opts.LogDir, 0o755)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: creating log dir %s: %w", opts.LogDir, err)
		}

		path := filepath.Join(opts.LogDir, fmt.Sprintf("mcpadre-%s.log", time.Now().UTC().Format("20060102-150405")))

		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: opening log file %s: %w", path, err)
		}

		fileOpts := &slog.HandlerOptions{Level: LevelTrace}
		handlers = append(handlers, slog.NewJSONHandler(file, fileOpts))
		closeFn = file.Close
	}

	return slog.New(&multiHandler{handlers: handlers}), closeFn, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// multiHandler fans a record out to every constituent handler.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r); err != nil {
				return fmt.Errorf("logging: handler failed: %w", err)
			}
		}
	}

	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}

	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}

	return &multiHandler{handlers: next}
}
