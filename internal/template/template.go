// Package template resolves {{dirs.*}} and {{parentEnv.*}} substitution
// points in path, env, and command strings.
//
// It generalizes the teacher's pathResolver (sandbox/bwrap.go), which only
// expanded "~" and relative paths against a fixed HomeDir/WorkDir pair, into a
// token-based substitution engine over an arbitrary [dirs.Resolver] and a
// parent-environment snapshot.
package template

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mcpadre/mcpadre/internal/dirs"
	"github.com/mcpadre/mcpadre/internal/mcpadreerr"
)

// PathTemplate is a literal string carrying {{dirs.x}}/{{parentEnv.NAME}}
// substitution points, destined to become an absolute filesystem path.
type PathTemplate string

// EnvTemplate is a literal string carrying substitution points, destined to
// become an environment variable value.
type EnvTemplate string

// CommandTemplate is a literal string carrying substitution points, destined
// to become a shell command string.
type CommandTemplate string

// Context bundles the inputs needed to resolve any template.
type Context struct {
	Dirs      *dirs.Resolver
	ParentEnv map[string]string
}

var tokenPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// ResolveString substitutes every {{...}} token in s. A missing
// "parentEnv.NAME" binding resolves to the empty string (callers must
// post-filter per spec.md §4.1); a missing "dirs.x" binding is a hard
// [mcpadreerr.TemplateUnresolved] error, since every dirs.* name is always
// defined by [dirs.Resolver].
func ResolveString(s string, ctx Context) (string, error) {
	var firstErr error

	out := tokenPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := tokenPattern.FindStringSubmatch(match)
		token := sub[1]

		switch {
		case token == "parentEnv" || strings.HasPrefix(token, "parentEnv."):
			name := strings.TrimPrefix(token, "parentEnv.")
			if name == "" || name == "parentEnv" {
				return ""
			}

			return ctx.ParentEnv[name]

		case token == "dirs" || strings.HasPrefix(token, "dirs."):
			name := strings.TrimPrefix(token, "dirs.")

			if ctx.Dirs == nil {
				if firstErr == nil {
					firstErr = &mcpadreerr.TemplateUnresolved{Template: s, Token: token}
				}

				return ""
			}

			resolved, ok := ctx.Dirs.Lookup(name)
			if !ok {
				if firstErr == nil {
					firstErr = &mcpadreerr.TemplateUnresolved{Template: s, Token: token}
				}

				return ""
			}

			return resolved

		default:
			if firstErr == nil {
				firstErr = &mcpadreerr.TemplateUnresolved{Template: s, Token: token}
			}

			return ""
		}
	})

	if firstErr != nil {
		return "", firstErr
	}

	return out, nil
}

// ResolvePathTemplates resolves a list of PathTemplate values to absolute,
// canonicalized paths. Empty results (from an unset optional parentEnv
// reference) are dropped, per spec.md §4.1; callers that need strict
// resolution should check len(out) against len(templates) themselves.
func ResolvePathTemplates(templates []PathTemplate, ctx Context) ([]string, error) {
	out := make([]string, 0, len(templates))

	for _, t := range templates {
		resolved, err := ResolveString(string(t), ctx)
		if err != nil {
			return nil, err
		}

		if resolved == "" {
			continue
		}

		if abs, absErr := filepath.Abs(resolved); absErr == nil {
			resolved = abs
		}

		if canon, canonErr := filepath.EvalSymlinks(resolved); canonErr == nil {
			resolved = canon
		}

		out = append(out, resolved)
	}

	return out, nil
}

// ResolveEnv resolves a single EnvTemplate.
func ResolveEnv(t EnvTemplate, ctx Context) (string, error) {
	return ResolveString(string(t), ctx)
}

// ResolveEnvMap resolves every value in a map of EnvTemplates, keeping keys.
func ResolveEnvMap(m map[string]EnvTemplate, ctx Context) (map[string]string, error) {
	out := make(map[string]string, len(m))

	for k, v := range m {
		resolved, err := ResolveString(string(v), ctx)
		if err != nil {
			return nil, err
		}

		out[k] = resolved
	}

	return out, nil
}

// ResolveCommand resolves a single CommandTemplate.
func ResolveCommand(t CommandTemplate, ctx Context) (string, error) {
	return ResolveString(string(t), ctx)
}
