// Package envmanager defines the common environment-manager contract
// (spec.md §4.3) shared by the Node, Python, Container, and Shell/HTTP
// variants, plus the shared DriftAction/Launch types they all return.
//
// Grounded on the teacher's per-concern split (sandbox/ handles isolation,
// cmd/agent-sandbox/config.go handles config loading): here each variant
// owns its own on-disk data format and drift comparison, behind one
// interface the runner/installer drive uniformly.
package envmanager

import (
	"context"

	"github.com/mcpadre/mcpadre/internal/mcpadreerr"
)

// Drift reports what install/upgrade must do to reconcile spec with the
// on-disk server directory.
type Drift struct {
	Action  mcpadreerr.DriftAction
	Changes []string
}

// MaterializeOptions carries the per-invocation policy for how an allowed
// UPGRADE is decided (spec.md §4.3.5's upgrade decision table).
type MaterializeOptions struct {
	// AllowImplicitUpgrade is the resolved
	// (per-server override > global installImplicitlyUpgradesChangedPackages)
	// policy bit.
	AllowImplicitUpgrade bool
	// Force makes materialize UPGRADE even when AllowImplicitUpgrade is false.
	Force bool
}

// Launch describes how `run` should exec the server once materialized.
type Launch struct {
	Program string
	Args    []string
	Cwd     string
	Env     map[string]string
}

// Manager is the common contract every environment-manager variant
// implements (spec.md §4.3's "Common contract per variant").
type Manager interface {
	// EnsurePrerequisites verifies the base runtime is present and installs
	// any missing helper tool (pnpm/uv) in place, reshimming on success.
	EnsurePrerequisites(ctx context.Context) error

	// DetectDrift compares the spec against the on-disk server directory and
	// applies the upgrade decision table (spec.md §4.3.5) using opts, so the
	// returned Drift.Action is already the final action to Materialize.
	DetectDrift(ctx context.Context, opts MaterializeOptions) (Drift, error)

	// Materialize executes the action DetectDrift already decided.
	Materialize(ctx context.Context, drift Drift) error

	// BuildLaunch describes the exec invocation for an already-materialized
	// server directory.
	BuildLaunch(ctx context.Context) (Launch, error)
}

// DecideAction implements the upgrade decision table in spec.md §4.3.5: a
// detected change yields SYNC when there is none, UPGRADE when allowed or
// forced, else SKIP; CREATE is decided by the caller (DetectDrift) before
// this table ever applies.
func DecideAction(changed bool, allowImplicitUpgrade, force bool) mcpadreerr.DriftAction {
	if !changed {
		return mcpadreerr.ActionSync
	}

	if allowImplicitUpgrade || force {
		return mcpadreerr.ActionUpgrade
	}

	return mcpadreerr.ActionSkip
}
