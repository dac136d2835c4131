//go:build darwin

// Package macsandbox implements sandbox.Implementation via sandbox-exec
// Seatbelt profiles, grounded on the standalone aplane-algo plugin sandbox
// builder's generateSeatbeltProfile (other_examples), adapted to mcpadre's
// flat allowRead/allowReadWrite lists instead of a single plugin directory.
package macsandbox

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mcpadre/mcpadre/internal/sandbox"
)

const binary = "sandbox-exec"

// Sandbox wraps commands with a generated Seatbelt profile per spec.md §4.5.2.
type Sandbox struct {
	cfg sandbox.FinalizedConfig
}

// New returns a sandbox-exec-backed Implementation for cfg.
func New(cfg sandbox.FinalizedConfig) *Sandbox {
	return &Sandbox{cfg: cfg}
}

var _ sandbox.Implementation = (*Sandbox)(nil)

// BuildArgs composes `sandbox-exec -p <policy> <command> <args...>`.
func (s *Sandbox) BuildArgs(command string, args []string) (string, []string, bool) {
	if !s.cfg.Enabled {
		return "", nil, false
	}

	profile := generateProfile(s.cfg)

	wrapped := append([]string{"-p", profile, command}, args...)

	return binary, wrapped, true
}

// Validate runs a permissive profile against /usr/bin/true.
func (s *Sandbox) Validate() bool {
	path, err := exec.LookPath(binary)
	if err != nil {
		return false
	}

	cmd := exec.CommandContext(context.Background(), path, "-p", "(version 1)(allow default)", "/usr/bin/true")

	return cmd.Run() == nil
}

// generateProfile builds the S-expression policy string described in
// spec.md §4.5.2: always-present mach/ipc allowances and an unconditional
// (system-network), then a subpath clause per allowRead entry, then
// read+write+exec clauses per allowReadWrite entry, then (allow network*)
// when networking is enabled.
func generateProfile(cfg sandbox.FinalizedConfig) string {
	var b strings.Builder

	b.WriteString("(version 1)\n")
	b.WriteString("(import \"system.sb\")\n")
	b.WriteString("(deny default)\n")
	b.WriteString("(allow mach*) (allow ipc*)\n")
	b.WriteString("(allow signal (target others))\n")
	b.WriteString("(allow process-fork) (allow sysctl*) (allow system*)\n")
	b.WriteString("(allow file-read-metadata)\n")
	b.WriteString("(system-network)\n")

	for _, p := range cfg.AllowRead {
		fmt.Fprintf(&b, "(allow file-read* (subpath %s))\n", quotePath(p))
	}

	for _, p := range cfg.AllowReadWrite {
		q := quotePath(p)
		fmt.Fprintf(&b, "(allow file-read* (subpath %s))\n", q)
		fmt.Fprintf(&b, "(allow file-write* (subpath %s))\n", q)
		fmt.Fprintf(&b, "(allow process-exec (subpath %s))\n", q)
	}

	if cfg.Networking {
		b.WriteString("(allow network*)\n")
	}

	return b.String()
}

// quotePath realpath-resolves p (so /tmp -> /private/tmp on macOS) and
// double-quote-escapes it for embedding in the S-expression.
func quotePath(p string) string {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		resolved = p
	}

	escaped := strings.ReplaceAll(resolved, `"`, `\"`)

	return `"` + escaped + `"`
}
