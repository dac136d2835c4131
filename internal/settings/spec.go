// Package settings implements the mcpadre data model (spec.md §3): merged
// Settings, the ServerSpec tagged variant, and the WorkspaceContext that
// anchors a single command invocation.
package settings

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/mcpadre/mcpadre/internal/template"
)

// ServerNamePattern is the invariant from spec.md §3: names matching
// ^[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9]$ (including single-char names).
var ServerNamePattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// ValidServerName reports whether name satisfies the naming invariant.
func ValidServerName(name string) bool {
	return name != "" && ServerNamePattern.MatchString(name)
}

// VariantKind discriminates the ServerSpec tagged union.
type VariantKind int

const (
	// VariantNode is an npm/pnpm package pinned to an exact version.
	VariantNode VariantKind = iota + 1
	// VariantPython is a PyPI package pinned to an exact version under uv.
	VariantPython
	// VariantContainer is a digest-pinned OCI image.
	VariantContainer
	// VariantShell execs a raw shell command.
	VariantShell
	// VariantHTTP describes a URL-only server; `run` does not start the
	// pipeline for it, since no stdio<->HTTP bridge is wired in the core.
	VariantHTTP
)

// NodeSpec configures the Node environment manager (spec.md §4.3.1).
type NodeSpec struct {
	Package string `json:"package"`
	Version string `json:"version"`
}

// PythonSpec configures the Python environment manager (spec.md §4.3.2).
type PythonSpec struct {
	Package       string `json:"package"`
	Version       string `json:"version"`
	PythonVersion string `json:"pythonVersion,omitempty"`
}

// ContainerSpec configures the Container environment manager (spec.md §4.3.3).
type ContainerSpec struct {
	Image string `json:"image"`
	Tag   string `json:"tag"`
}

// ShellSpec configures a raw shell command (spec.md §4.3.4).
type ShellSpec struct {
	Command template.CommandTemplate `json:"command"`
}

// HTTPSpec describes a URL-only descriptor bridged by a thin stdio<->HTTP
// shim out of core scope (spec.md §4.3.4).
type HTTPSpec struct {
	URL     string                       `json:"url"`
	Headers map[string]template.EnvTemplate `json:"headers,omitempty"`
}

// ServerSpec is the tagged variant described in spec.md §3: exactly one of
// Node/Python/Container/Shell/HTTP is set, plus the per-server overrides every
// variant may carry.
type ServerSpec struct {
	Kind      VariantKind
	Node      *NodeSpec
	Python    *PythonSpec
	Container *ContainerSpec
	Shell     *ShellSpec
	HTTP      *HTTPSpec

	// Env is resolved via {{dirs.*}}/{{parentEnv.*}} templates before launch.
	Env map[string]template.EnvTemplate `json:"env,omitempty"`

	// Sandbox is a per-server override of the raw SandboxConfig.
	Sandbox *SandboxConfig `json:"sandbox,omitempty"`

	// InstallImplicitlyUpgradesChangedPackages overrides the global option for
	// this server only, when non-nil.
	InstallImplicitlyUpgradesChangedPackages *bool `json:"installImplicitlyUpgradesChangedPackages,omitempty"`
}

// jsonServerSpec mirrors ServerSpec for marshaling: exactly one of the
// variant fields must be present.
type jsonServerSpec struct {
	Node      *NodeSpec                        `json:"node,omitempty"`
	Python    *PythonSpec                       `json:"python,omitempty"`
	Container *ContainerSpec                    `json:"container,omitempty"`
	Shell     *ShellSpec                        `json:"shell,omitempty"`
	HTTP      *HTTPSpec                         `json:"http,omitempty"`
	Env       map[string]template.EnvTemplate   `json:"env,omitempty"`
	Sandbox   *SandboxConfig                    `json:"sandbox,omitempty"`
	InstallImplicitlyUpgradesChangedPackages *bool `json:"installImplicitlyUpgradesChangedPackages,omitempty"`
}

// UnmarshalJSON decodes a server entry and validates that exactly one variant
// key is present.
func (s *ServerSpec) UnmarshalJSON(data []byte) error {
	var raw jsonServerSpec

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("decoding server spec: %w", err)
	}

	count := 0

	if raw.Node != nil {
		count++

		s.Kind = VariantNode
		s.Node = raw.Node
	}

	if raw.Python != nil {
		count++

		s.Kind = VariantPython
		s.Python = raw.Python
	}

	if raw.Container != nil {
		count++

		s.Kind = VariantContainer
		s.Container = raw.Container
	}

	if raw.Shell != nil {
		count++

		s.Kind = VariantShell
		s.Shell = raw.Shell
	}

	if raw.HTTP != nil {
		count++

		s.Kind = VariantHTTP
		s.HTTP = raw.HTTP
	}

	if count != 1 {
		return fmt.Errorf("server spec must set exactly one of node/python/container/shell/http, got %d", count)
	}

	s.Env = raw.Env
	s.Sandbox = raw.Sandbox
	s.InstallImplicitlyUpgradesChangedPackages = raw.InstallImplicitlyUpgradesChangedPackages

	return nil
}

// MarshalJSON encodes the ServerSpec back to its tagged-union JSON form.
func (s ServerSpec) MarshalJSON() ([]byte, error) {
	raw := jsonServerSpec{
		Env:       s.Env,
		Sandbox:   s.Sandbox,
		InstallImplicitlyUpgradesChangedPackages: s.InstallImplicitlyUpgradesChangedPackages,
	}

	switch s.Kind {
	case VariantNode:
		raw.Node = s.Node
	case VariantPython:
		raw.Python = s.Python
	case VariantContainer:
		raw.Container = s.Container
	case VariantShell:
		raw.Shell = s.Shell
	case VariantHTTP:
		raw.HTTP = s.HTTP
	default:
		return nil, fmt.Errorf("server spec has unknown kind %d", s.Kind)
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding server spec: %w", err)
	}

	return data, nil
}

// VersionManagerMode selects how Node/Python version-manager reshimming is
// decided (spec.md §4.2).
type VersionManagerMode string

const (
	// VMAuto classifies by inspecting the resolved binary's PATH.
	VMAuto VersionManagerMode = "auto"
	// VMAsdf forces asdf reshimming.
	VMAsdf VersionManagerMode = "asdf"
	// VMMise forces mise reshimming.
	VMMise VersionManagerMode = "mise"
	// VMNone disables reshimming.
	VMNone VersionManagerMode = "none"
)

// GlobalOptions is the merged options record (spec.md §3).
type GlobalOptions struct {
	NodeVersionManager                       VersionManagerMode      `json:"nodeVersionManager,omitempty"`
	PythonVersionManager                     VersionManagerMode      `json:"pythonVersionManager,omitempty"`
	InstallImplicitlyUpgradesChangedPackages bool                    `json:"installImplicitlyUpgradesChangedPackages,omitempty"`
	DisableAllSandboxes                      bool                    `json:"disableAllSandboxes,omitempty"`
	ExtraAllowRead                           []template.PathTemplate `json:"extraAllowRead,omitempty"`
	ExtraAllowWrite                          []template.PathTemplate `json:"extraAllowWrite,omitempty"`
	LogMcpTraffic                            bool                    `json:"logMcpTraffic,omitempty"`

	// LogLevel and TrafficLogDir are ambient CLI/logging knobs (SPEC_FULL.md
	// §3 expansion); they are not part of the sandbox/materialization
	// decision tables.
	LogLevel      string `json:"logLevel,omitempty"`
	TrafficLogDir string `json:"trafficLogDir,omitempty"`

	// StrictUnsupportedPlatform, when true, turns a requested-but-unavailable
	// sandbox on a platform with no sandbox backend into a hard
	// SandboxUnavailable failure instead of a logged passthrough (spec.md §9's
	// recommended configurable strict mode).
	StrictUnsupportedPlatform bool `json:"strictUnsupportedPlatform,omitempty"`
}

// SandboxConfig is the raw per-server/global sandbox declaration (spec.md §3).
type SandboxConfig struct {
	Enabled            *bool                   `json:"enabled,omitempty"`
	Networking         bool                    `json:"networking,omitempty"`
	OmitWorkspacePath  bool                    `json:"omitWorkspacePath,omitempty"`
	AllowRead          []template.PathTemplate `json:"allowRead,omitempty"`
	AllowReadWrite     []template.PathTemplate `json:"allowReadWrite,omitempty"`
}
