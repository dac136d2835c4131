// Package versionmanager decides whether a post-install helper tool (pnpm,
// uv) needs reshimming under asdf or mise, and performs that reshim.
//
// The decision function is pure, grounded on the teacher's classification
// idiom in sandbox/wrappers.go (parsePathDirs / findCommandTargets), which
// inspects a resolved PATH entry to classify its origin; here the same
// substring classification decides asdf vs. mise instead of wrapper vs. real
// binary.
package versionmanager

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mcpadre/mcpadre/internal/mcpadreerr"
	"github.com/mcpadre/mcpadre/internal/settings"
)

// Action is the decided reshim action.
type Action string

const (
	ActionAsdf Action = "asdf"
	ActionMise Action = "mise"
	ActionNone Action = "none"
)

// DetermineReshimAction maps (configured manager, which-resolved binary path)
// to a reshim Action.
//
//   - none  -> none
//   - asdf  -> asdf
//   - mise  -> mise
//   - auto  -> requires whichPath non-nil, else VersionManagerAmbiguous.
//     Classifies by substring "asdf"/"mise" in the path. Both present or
//     neither resolvable the normal way: both -> VersionManagerAmbiguous,
//     neither -> none.
func DetermineReshimAction(mode settings.VersionManagerMode, whichPath *string) (Action, error) {
	switch mode {
	case settings.VMNone, "":
		return ActionNone, nil
	case settings.VMAsdf:
		return ActionAsdf, nil
	case settings.VMMise:
		return ActionMise, nil
	case settings.VMAuto:
		return classifyAuto(whichPath)
	default:
		return "", fmt.Errorf("versionmanager: unknown mode %q", mode)
	}
}

func classifyAuto(whichPath *string) (Action, error) {
	if whichPath == nil {
		return "", &mcpadreerr.VersionManagerAmbiguous{WhichPath: "<unresolved>"}
	}

	path := *whichPath
	hasAsdf := strings.Contains(path, "asdf")
	hasMise := strings.Contains(path, "mise")

	switch {
	case hasAsdf && hasMise:
		return "", &mcpadreerr.VersionManagerAmbiguous{WhichPath: path}
	case hasAsdf:
		return ActionAsdf, nil
	case hasMise:
		return ActionMise, nil
	default:
		return ActionNone, nil
	}
}

// Reshim invokes "<mgr> reshim <runtime>" for a non-none action. It is
// purely sequential with no retries, matching the orchestration step that
// follows a helper-tool install.
func Reshim(ctx context.Context, action Action, runtime string) error {
	if action == ActionNone {
		return nil
	}

	cmd := exec.CommandContext(ctx, string(action), "reshim", runtime)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("versionmanager: %s reshim %s failed: %w: %s", action, runtime, err, strings.TrimSpace(string(out)))
	}

	return nil
}
