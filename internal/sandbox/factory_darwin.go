//go:build darwin

package sandbox

import (
	"log/slog"

	"github.com/mcpadre/mcpadre/internal/sandbox/macsandbox"
	"github.com/mcpadre/mcpadre/internal/sandbox/passthrough"
)

// New returns the platform Implementation for cfg per spec.md §4.5.4.
func New(cfg FinalizedConfig, logger *slog.Logger) Implementation {
	if !cfg.Enabled {
		return passthrough.New(false, false, logger)
	}

	return macsandbox.New(cfg)
}
