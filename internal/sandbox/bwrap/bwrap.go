//go:build linux

// Package bwrap implements sandbox.Implementation via bubblewrap.
//
// Its argv assembly sequence is grounded on the teacher's planner.build
// (sandbox/bwrap.go): the security-flag preamble, /proc+/dev+tmpfs mounts,
// then per-path --ro-bind/--bind mounts, then the "--" command separator.
// mcpadre's FinalizedConfig is already a flat allow-list (no presets, no
// command wrappers, no docker-socket plumbing), so the mount loop here is
// far smaller than the teacher's preset/wrapper/docker pipeline.
package bwrap

import (
	"context"
	"os/exec"
	"strings"

	"github.com/mcpadre/mcpadre/internal/sandbox"
)

const binary = "bwrap"

// Sandbox wraps commands with bubblewrap per spec.md §4.5.1.
type Sandbox struct {
	cfg sandbox.FinalizedConfig
}

// New returns a bwrap-backed Implementation for cfg.
func New(cfg sandbox.FinalizedConfig) *Sandbox {
	return &Sandbox{cfg: cfg}
}

var _ sandbox.Implementation = (*Sandbox)(nil)

// BuildArgs composes a full bwrap invocation wrapping command+args.
func (s *Sandbox) BuildArgs(command string, args []string) (string, []string, bool) {
	if !s.cfg.Enabled {
		return "", nil, false
	}

	bwrapArgs := []string{
		"--die-with-parent",
		"--new-session",
		"--unshare-user",
		"--unshare-pid",
		"--unshare-ipc",
		"--unshare-uts",
		"--unshare-cgroup",
		"--cap-drop", "ALL",
		"--hostname", "sandbox",
	}

	if !s.cfg.Networking {
		bwrapArgs = append(bwrapArgs, "--unshare-net")
	}

	bwrapArgs = append(bwrapArgs,
		"--proc", "/proc",
		"--dev", "/dev",
		"--tmpfs", "/tmp",
	)

	for _, p := range s.cfg.AllowRead {
		bwrapArgs = append(bwrapArgs, "--ro-bind", p, p)
	}

	for _, p := range s.cfg.AllowReadWrite {
		bwrapArgs = append(bwrapArgs, "--bind", p, p)
	}

	bwrapArgs = append(bwrapArgs, "--")
	bwrapArgs = append(bwrapArgs, command)
	bwrapArgs = append(bwrapArgs, args...)

	return binary, bwrapArgs, true
}

// appArmorUserNSSymptoms are stderr substrings that indicate a kernel/LSM
// policy (commonly AppArmor on Ubuntu) is blocking unprivileged user
// namespaces, grounded on the teacher's validation diagnostics.
var appArmorUserNSSymptoms = []string{
	"Operation not permitted",
	"setting up uid map: Permission denied",
	"No permissions to create new namespace",
	"loopback: Failed RTM_NEWADDR",
}

// Validate runs a minimal bwrap invocation to smoke-test that unprivileged
// user namespaces actually work on this host.
func (s *Sandbox) Validate() bool {
	path, err := exec.LookPath(binary)
	if err != nil {
		return false
	}

	cmd := exec.CommandContext(context.Background(), path,
		"--ro-bind", "/", "/",
		"--unshare-net",
		"--unshare-user",
		"--unshare-pid",
		"--die-with-parent",
		"/bin/true",
	)

	out, err := cmd.CombinedOutput()
	if err == nil {
		return true
	}

	stderr := string(out)
	for _, symptom := range appArmorUserNSSymptoms {
		if strings.Contains(stderr, symptom) {
			return false
		}
	}

	return false
}
