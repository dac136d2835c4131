// Package sandbox resolves a raw SandboxConfig into a finalized, platform-
// independent policy, grounded on the teacher's planner/implementation split
// in sandbox/bwrap.go (the Sandbox type and its plan/build separation).
package sandbox

// FinalizedConfig is the resolved sandbox policy handed to a platform
// implementation's BuildArgs. Every path has been template-resolved,
// canonicalized, deduped, and filtered to entries that exist on disk.
type FinalizedConfig struct {
	Enabled                   bool
	Networking                bool
	AllowRead                 []string
	AllowReadWrite            []string
	StrictUnsupportedPlatform bool
}

// Options bundles the inputs the Resolver cannot derive from the raw config
// alone (spec.md §4.4): workspace-wide overrides and the parent environment
// needed to resolve {{parentEnv.*}} temp-dir probing.
type Options struct {
	DisableAllSandboxes       bool
	ExtraAllowRead            []string
	ExtraAllowWrite           []string
	StrictUnsupportedPlatform bool
}

// Implementation is the common interface every platform sandbox exposes
// (spec.md §4.5): buildSandboxArgs / validate, generalized from the
// teacher's Sandbox.Command + a validation probe.
type Implementation interface {
	// BuildArgs wraps an unwrapped command+args in sandbox invocation
	// arguments. ok is false when the sandbox is disabled: the Command
	// Builder then bypasses the wrapper and runs the command directly.
	BuildArgs(command string, args []string) (executable string, wrappedArgs []string, ok bool)

	// Validate probes whether the sandbox mechanism actually works on this
	// host (e.g. bwrap's --unshare-net /bin/true smoke test). It never
	// mutates the FinalizedConfig; the caller records "unavailable".
	Validate() bool
}
