//go:build !linux && !darwin

package sandbox

import (
	"log/slog"

	"github.com/mcpadre/mcpadre/internal/sandbox/passthrough"
)

// New returns the platform Implementation for cfg per spec.md §4.5.4: every
// non-Linux, non-Darwin target falls back to Passthrough regardless of
// cfg.Enabled, since no sandbox mechanism is wired for it here.
func New(cfg FinalizedConfig, logger *slog.Logger) Implementation {
	return passthrough.New(cfg.Enabled, cfg.StrictUnsupportedPlatform, logger)
}
