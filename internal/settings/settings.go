package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/mcpadre/mcpadre/internal/dirs"
	"github.com/mcpadre/mcpadre/internal/template"
)

// Settings is the merged configuration record for a single workspace: project
// settings layered over user settings, later wins. Grounded on the teacher's
// Config/mergeConfigs (cmd/agent-sandbox/config.go), generalized from a
// single-file sandbox policy into mcpadre's server map + options record.
type Settings struct {
	Servers map[string]ServerSpec `json:"mcpServers,omitempty"`
	Options GlobalOptions          `json:"options,omitempty"`

	// loadedFrom is not populated by merge; the layer-name-to-file map
	// ("user", "project") is carried by WorkspaceContext.LoadedFrom.
	loadedFrom map[string]string
}

// file is the on-disk shape of a mcpadre.json(c) file.
type file struct {
	Servers map[string]ServerSpec `json:"mcpServers,omitempty"`
	Options GlobalOptions          `json:"options,omitempty"`
}

const (
	userConfigBaseName    = "mcpadre"
	projectConfigBaseName = "mcpadre"
)

// parseConfigFile reads and decodes a single JSON/JSONC settings file,
// standardizing comments/trailing-commas via hujson the way the teacher does
// for its own config files.
func parseConfigFile(path string) (file, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return file{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return file{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	var f file

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	err = dec.Decode(&f)
	if err != nil {
		return file{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	for name := range f.Servers {
		if !ValidServerName(name) {
			return file{}, fmt.Errorf("parsing config %s: invalid server name %q", path, name)
		}
	}

	return f, nil
}

// findConfigFile looks for basePath.json then basePath.jsonc, erroring if both
// exist (ambiguous) and returning os.ErrNotExist if neither does.
func findConfigFile(basePath string) (string, error) {
	jsonPath := basePath + ".json"
	jsoncPath := basePath + ".jsonc"

	jsonExists, err := fileExists(jsonPath)
	if err != nil {
		return "", err
	}

	jsoncExists, err := fileExists(jsoncPath)
	if err != nil {
		return "", err
	}

	switch {
	case jsonExists && jsoncExists:
		return "", fmt.Errorf("duplicate config files found: both %s and %s exist; remove one", jsonPath, jsoncPath)
	case jsonExists:
		return jsonPath, nil
	case jsoncExists:
		return jsoncPath, nil
	default:
		return "", os.ErrNotExist
	}
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("checking file %s: %w", path, err)
	}

	return !info.IsDir(), nil
}

// mergeOptions merges override into base field-wise. The boolean flags
// (installImplicitlyUpgradesChangedPackages, disableAllSandboxes,
// logMcpTraffic) are "sticky once enabled": they are ORed, so an override
// cannot turn off a flag the base set. String fields (version-manager modes,
// log level, traffic log dir) take the override only when it is non-empty.
// The extra allow-path lists are concatenated, base first.
func mergeOptions(base, override GlobalOptions) GlobalOptions {
	result := base

	if override.NodeVersionManager != "" {
		result.NodeVersionManager = override.NodeVersionManager
	}

	if override.PythonVersionManager != "" {
		result.PythonVersionManager = override.PythonVersionManager
	}

	result.InstallImplicitlyUpgradesChangedPackages = base.InstallImplicitlyUpgradesChangedPackages || override.InstallImplicitlyUpgradesChangedPackages
	result.DisableAllSandboxes = base.DisableAllSandboxes || override.DisableAllSandboxes
	result.LogMcpTraffic = base.LogMcpTraffic || override.LogMcpTraffic

	result.ExtraAllowRead = append(append([]template.PathTemplate{}, base.ExtraAllowRead...), override.ExtraAllowRead...)
	result.ExtraAllowWrite = append(append([]template.PathTemplate{}, base.ExtraAllowWrite...), override.ExtraAllowWrite...)

	if override.LogLevel != "" {
		result.LogLevel = override.LogLevel
	}

	if override.TrafficLogDir != "" {
		result.TrafficLogDir = override.TrafficLogDir
	}

	return result
}

// merge combines project over user: servers are unioned with project winning
// name collisions, options merge field-wise with project taking precedence.
func merge(userSettings, projectSettings file) Settings {
	servers := make(map[string]ServerSpec, len(userSettings.Servers)+len(projectSettings.Servers))

	maps.Copy(servers, userSettings.Servers)
	maps.Copy(servers, projectSettings.Servers)

	return Settings{
		Servers: servers,
		Options: mergeOptions(userSettings.Options, projectSettings.Options),
	}
}

// WorkspaceContext anchors a single command invocation: the resolved
// directory layout, the merged Settings, and the path that `install` should
// write drift-resolved servers back to.
type WorkspaceContext struct {
	Dirs             *dirs.Resolver
	Settings         Settings
	WritableConfigPath string
	LoadedFrom       map[string]string
}

// LoadWorkspaceContext loads and merges user + project settings for the
// workspace rooted at workspaceDir, following the teacher's LoadConfig
// precedence (defaults implicit in zero values -> user/global -> project,
// later wins) generalized to mcpadre's server map.
func LoadWorkspaceContext(workspaceDir string, env map[string]string) (*WorkspaceContext, error) {
	projectDirs, err := dirs.New(dirs.KindProject, workspaceDir, env)
	if err != nil {
		return nil, err
	}

	loadedFrom := make(map[string]string)

	var userFile file

	userBasePath := filepath.Join(projectDirs.User, userConfigBaseName)

	userPath, err := findConfigFile(userBasePath)

	switch {
	case err == nil:
		userFile, err = parseConfigFile(userPath)
		if err != nil {
			return nil, err
		}

		loadedFrom["user"] = userPath
	case errors.Is(err, os.ErrNotExist):
		// No user-scope config is not an error; project config may stand alone.
	default:
		return nil, err
	}

	var projectFile file

	projectBasePath := filepath.Join(projectDirs.Workspace, projectConfigBaseName)

	projectPath, err := findConfigFile(projectBasePath)

	switch {
	case err == nil:
		projectFile, err = parseConfigFile(projectPath)
		if err != nil {
			return nil, err
		}

		loadedFrom["project"] = projectPath
	case errors.Is(err, os.ErrNotExist):
		// No project config: the workspace only carries user-scope servers.
	default:
		return nil, err
	}

	writable := projectBasePath + ".json"
	if projectPath != "" {
		writable = projectPath
	}

	return &WorkspaceContext{
		Dirs:               projectDirs,
		Settings:           merge(userFile, projectFile),
		WritableConfigPath: writable,
		LoadedFrom:         loadedFrom,
	}, nil
}

// Save writes the project-scope Settings back to WritableConfigPath as
// indented JSON. It never touches the user-scope file: `install` only ever
// mutates project configuration.
func (wc *WorkspaceContext) Save(projectOnly Settings) error {
	f := file{Servers: projectOnly.Servers, Options: projectOnly.Options}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	data = append(data, '\n')

	err = os.WriteFile(wc.WritableConfigPath, data, 0o644)
	if err != nil {
		return fmt.Errorf("writing settings to %s: %w", wc.WritableConfigPath, err)
	}

	return nil
}
