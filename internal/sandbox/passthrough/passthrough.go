// Package passthrough implements sandbox.Implementation as a no-op, used on
// platforms with no supported sandbox mechanism or when sandboxing is
// disabled. Grounded on the teacher's "unsupported platform" fallback branch
// in the standalone aplane-algo plugin sandbox builder (other_examples),
// generalized from a hard error into a logged, non-fatal no-op per
// spec.md §4.5.3.
package passthrough

import (
	"log/slog"
	"runtime"

	"github.com/mcpadre/mcpadre/internal/sandbox"
)

// Sandbox never wraps the command; BuildArgs always returns ok=false.
type Sandbox struct {
	requested bool
	strict    bool
	logger    *slog.Logger
}

// New returns a passthrough Implementation. requested indicates the user's
// raw config asked for a sandbox even though none is available here; strict
// turns that combination into a Validate failure instead of a logged
// passthrough (spec.md §9's configurable strict mode).
func New(requested bool, strict bool, logger *slog.Logger) *Sandbox {
	return &Sandbox{requested: requested, strict: strict, logger: logger}
}

var _ sandbox.Implementation = (*Sandbox)(nil)

// BuildArgs always reports ok=false: the Command Builder runs the command
// directly, unwrapped.
func (s *Sandbox) BuildArgs(_ string, _ []string) (string, []string, bool) {
	return "", nil, false
}

// Validate succeeds unless a sandbox was requested on an unsupported
// platform and strict mode is on, in which case it fails so the caller
// surfaces SandboxUnavailable. Otherwise it logs once and falls through to
// an unsandboxed run.
func (s *Sandbox) Validate() bool {
	unsupported := runtime.GOOS != "linux" && runtime.GOOS != "darwin"

	if s.requested && unsupported {
		if s.strict {
			return false
		}

		if s.logger != nil {
			s.logger.Warn("sandbox requested but unsupported on this platform; running unsandboxed",
				slog.String("goos", runtime.GOOS))
		}
	}

	return true
}
