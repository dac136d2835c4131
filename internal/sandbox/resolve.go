package sandbox

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/mcpadre/mcpadre/internal/dirs"
	"github.com/mcpadre/mcpadre/internal/settings"
	"github.com/mcpadre/mcpadre/internal/template"
)

// defaultSystemReadPaths mirrors the teacher's @base preset system paths
// (sandbox/presets.go), filtered here to the exact list spec.md §4.4 step 4
// names instead of the teacher's broader preset catalog.
var defaultSystemReadPaths = []string{
	"/bin",
	"/usr/bin",
	"/lib",
	"/lib64",
	"/usr/lib",
	"/usr/lib64",
	"/usr/share",
	"/System/Library",
}

var dnsPaths = []string{
	"/etc/resolv.conf",
	"/etc/hosts",
	"/etc/nsswitch.conf",
}

// exists is swapped in tests; defaults to a real stat call, matching the
// teacher's filterExisting helper in sandbox/presets.go.
var exists = func(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// shellBinary returns the user's shell binary if resolvable, mirroring the
// teacher's dnsResolverArgs-adjacent "probe an env var, fall back" idiom.
func shellBinary(env map[string]string) string {
	if runtime.GOOS == "windows" {
		if comspec := env["COMSPEC"]; comspec != "" {
			return comspec
		}

		return ""
	}

	if shell := env["SHELL"]; shell != "" {
		return shell
	}

	return "/bin/sh"
}

// Resolve implements the eight-step procedure from spec.md §4.4: merge
// workspace overrides, append default system/shell/temp/DNS paths, resolve
// {{...}} templates, drop missing paths, canonicalize, and dedupe.
func Resolve(raw *settings.SandboxConfig, dirResolver *dirs.Resolver, parentEnv map[string]string, opts Options) (FinalizedConfig, error) {
	enabled := false
	if raw != nil && raw.Enabled != nil {
		enabled = *raw.Enabled
	}

	if opts.DisableAllSandboxes {
		enabled = false
	}

	networking := raw != nil && raw.Networking

	ctx := template.Context{Dirs: dirResolver, ParentEnv: parentEnv}

	var allowReadTemplates, allowReadWriteTemplates []template.PathTemplate

	if raw != nil {
		allowReadTemplates = append(allowReadTemplates, raw.AllowRead...)
		allowReadWriteTemplates = append(allowReadWriteTemplates, raw.AllowReadWrite...)
	}

	for _, p := range opts.ExtraAllowRead {
		allowReadTemplates = append(allowReadTemplates, template.PathTemplate(p))
	}

	for _, p := range opts.ExtraAllowWrite {
		allowReadWriteTemplates = append(allowReadWriteTemplates, template.PathTemplate(p))
	}

	omitWorkspacePath := raw != nil && raw.OmitWorkspacePath
	if !omitWorkspacePath {
		allowReadTemplates = append(allowReadTemplates, "{{dirs.workspace}}")
	}

	for _, p := range defaultSystemReadPaths {
		allowReadTemplates = append(allowReadTemplates, template.PathTemplate(p))
	}

	if shell := shellBinary(parentEnv); shell != "" {
		allowReadTemplates = append(allowReadTemplates, template.PathTemplate(shell))
	}

	allowReadWriteTemplates = append(allowReadWriteTemplates,
		"{{parentEnv.TMPDIR}}", "{{parentEnv.TEMP}}", "{{parentEnv.TMP}}", "/tmp")

	if networking {
		for _, p := range dnsPaths {
			allowReadTemplates = append(allowReadTemplates, template.PathTemplate(p))
		}
	}

	allowRead, err := template.ResolvePathTemplates(allowReadTemplates, ctx)
	if err != nil {
		return FinalizedConfig{}, err
	}

	allowReadWrite, err := template.ResolvePathTemplates(allowReadWriteTemplates, ctx)
	if err != nil {
		return FinalizedConfig{}, err
	}

	return FinalizedConfig{
		Enabled:                   enabled,
		Networking:                networking,
		AllowRead:                 canonicalizeExistingDeduped(allowRead),
		AllowReadWrite:            canonicalizeExistingDeduped(allowReadWrite),
		StrictUnsupportedPlatform: opts.StrictUnsupportedPlatform,
	}, nil
}

// canonicalizeExistingDeduped drops paths absent at resolve time (an
// invariant: the sandbox never references a nonexistent mount point),
// canonicalizes the survivors, and dedupes while preserving first-seen
// order, matching the teacher's resolveAndDedupRules ordering discipline.
func canonicalizeExistingDeduped(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))

	for _, p := range paths {
		if !exists(p) {
			continue
		}

		canon, err := filepath.EvalSymlinks(p)
		if err != nil {
			canon = p
		}

		if seen[canon] {
			continue
		}

		seen[canon] = true
		out = append(out, canon)
	}

	return out
}
