// Package dirs computes the canonical directory layout for a workspace.
//
// It is the Workspace / Directory Resolver component (spec.md §2 item 2):
// a pure function of a workspace root, a home directory, and an XDG-style
// base-dir snapshot, generalized from the teacher's [Environment] in
// sandbox/environment.go (which only tracked HomeDir/WorkDir/HostEnv).
package dirs

import (
	"fmt"
	"os"
	"path/filepath"
)

// Kind discriminates a workspace between project and user scope.
type Kind string

const (
	// KindProject roots the workspace at the project directory.
	KindProject Kind = "project"
	// KindUser roots the workspace at the user scope ($MCPADRE_USER_DIR or
	// $HOME/.mcpadre).
	KindUser Kind = "user"
)

// Resolver computes the canonical paths named in spec.md §1: workspace, home,
// data, cache, log, config, temp, user, and the per-server directory.
type Resolver struct {
	Kind      Kind
	Workspace string
	Home      string
	Data      string
	Cache     string
	Log       string
	Config    string
	Temp      string
	User      string
}

// New builds a Resolver of the given kind for a workspace rooted at
// workspaceDir.
func New(kind Kind, workspaceDir string, env map[string]string) (*Resolver, error) {
	if workspaceDir == "" {
		return nil, fmt.Errorf("dirs: workspace directory is empty")
	}

	abs, err := filepath.Abs(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("dirs: resolving workspace %q: %w", workspaceDir, err)
	}

	home := env["HOME"]
	if home == "" {
		home, err = os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("dirs: resolving home directory: %w", err)
		}
	}

	userDir := env["MCPADRE_USER_DIR"]
	if userDir == "" {
		userDir = filepath.Join(home, ".mcpadre")
	}

	mcpadreDir := filepath.Join(abs, ".mcpadre")

	return &Resolver{
		Kind:      kind,
		Workspace: abs,
		Home:      home,
		Data:      filepath.Join(mcpadreDir, "data"),
		Cache:     filepath.Join(mcpadreDir, "cache"),
		Log:       filepath.Join(mcpadreDir, "logs"),
		Config:    mcpadreDir,
		Temp:      tempDir(env),
		User:      userDir,
	}, nil
}

// NewUser builds a Resolver rooted at the user scope directory.
func NewUser(env map[string]string) (*Resolver, error) {
	home := env["HOME"]
	var err error

	if home == "" {
		home, err = os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("dirs: resolving home directory: %w", err)
		}
	}

	userDir := env["MCPADRE_USER_DIR"]
	if userDir == "" {
		userDir = filepath.Join(home, ".mcpadre")
	}

	return New(KindUser, userDir, env)
}

func tempDir(env map[string]string) string {
	for _, key := range []string{"TMPDIR", "TEMP", "TMP"} {
		if v := env[key]; v != "" {
			return v
		}
	}

	return os.TempDir()
}

// ServerDir returns the per-server directory <workspace>/.mcpadre/servers/<name>.
func (r *Resolver) ServerDir(name string) string {
	return filepath.Join(r.Workspace, ".mcpadre", "servers", name)
}

// Lookup resolves a {{dirs.x}} token name to its path. ok is false for unknown
// token names.
func (r *Resolver) Lookup(name string) (string, bool) {
	switch name {
	case "workspace":
		return r.Workspace, true
	case "home":
		return r.Home, true
	case "data":
		return r.Data, true
	case "cache":
		return r.Cache, true
	case "log":
		return r.Log, true
	case "config":
		return r.Config, true
	case "temp":
		return r.Temp, true
	case "user":
		return r.User, true
	default:
		return "", false
	}
}
