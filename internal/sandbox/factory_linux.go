//go:build linux

package sandbox

import (
	"log/slog"

	"github.com/mcpadre/mcpadre/internal/sandbox/bwrap"
	"github.com/mcpadre/mcpadre/internal/sandbox/passthrough"
)

// New returns the platform Implementation for cfg per spec.md §4.5.4:
// enabled ? (Linux -> Bwrap | Darwin -> MacOS | else -> Passthrough) : Passthrough.
func New(cfg FinalizedConfig, logger *slog.Logger) Implementation {
	if !cfg.Enabled {
		return passthrough.New(false, false, logger)
	}

	return bwrap.New(cfg)
}
