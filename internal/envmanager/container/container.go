// Package container implements the Container environment manager
// (spec.md §4.3.3): a container.lock.json pinning an image to a resolved
// manifest digest, verified against a Docker Registry v2 manifest endpoint.
//
// github.com/opencontainers/go-digest and
// github.com/opencontainers/image-spec are promoted here from
// majorcontext-moat's indirect buildkit-adjacent stack into direct
// dependencies, since mcpadre verifies and records a real digest rather than
// just passing image references through. No registry client library exists
// anywhere in the retrieved pack, so the manifest HEAD/GET itself is done
// directly over net/http — documented as a stdlib exception in the
// project's grounding ledger.
package container

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/mcpadre/mcpadre/internal/envmanager"
	"github.com/mcpadre/mcpadre/internal/mcpadreerr"
	"github.com/mcpadre/mcpadre/internal/settings"
	"github.com/mcpadre/mcpadre/internal/template"
)

const lockFileName = "container.lock.json"

// lockFile is the on-disk record of the last digest this server was pinned to.
type lockFile struct {
	Image  string `json:"image"`
	Tag    string `json:"tag"`
	Digest string `json:"digest"`
}

// Manager implements envmanager.Manager for a digest-pinned OCI image.
type Manager struct {
	ServerName  string
	Spec        *settings.ContainerSpec
	Dir         string
	Env         map[string]template.EnvTemplate
	TemplateCtx template.Context
	Engine      string // "docker" or "podman"; defaults to "docker"

	// RegistryBaseURL is overridable in tests; defaults to the Docker Hub v2
	// registry. Image references with a different registry host are honored
	// verbatim (see resolveRegistry).
	RegistryBaseURL string
	HTTPClient      *http.Client
}

var _ envmanager.Manager = (*Manager)(nil)

func (m *Manager) engine() string {
	if m.Engine != "" {
		return m.Engine
	}

	return "docker"
}

func (m *Manager) httpClient() *http.Client {
	if m.HTTPClient != nil {
		return m.HTTPClient
	}

	return &http.Client{Timeout: 15 * time.Second}
}

// EnsurePrerequisites verifies the container engine is reachable.
func (m *Manager) EnsurePrerequisites(ctx context.Context) error {
	_, err := exec.LookPath(m.engine())
	if err != nil {
		return &mcpadreerr.PrereqMissing{Runtime: m.engine(), Detail: err.Error()}
	}

	cmd := exec.CommandContext(ctx, m.engine(), "info")

	out, err := cmd.CombinedOutput()
	if err != nil {
		return &mcpadreerr.PrereqMissing{Runtime: m.engine(), Detail: strings.TrimSpace(string(out))}
	}

	return nil
}

// resolveRegistryBase picks the v2 API base URL for the configured image.
// Images with an explicit registry host ("ghcr.io/...") use that host;
// unqualified images ("org/name") resolve to Docker Hub.
func (m *Manager) resolveRegistryBase() string {
	if m.RegistryBaseURL != "" {
		return m.RegistryBaseURL
	}

	parts := strings.SplitN(m.Spec.Image, "/", 2)
	if len(parts) == 2 && strings.ContainsAny(parts[0], ".:") {
		return "https://" + parts[0]
	}

	return "https://registry-1.docker.io"
}

// remoteDigest resolves the manifest digest for image:tag against the v2
// registry manifest endpoint.
func (m *Manager) remoteDigest(ctx context.Context) (digest.Digest, error) {
	repo := m.Spec.Image
	if idx := strings.Index(repo, "/"); idx >= 0 && strings.ContainsAny(repo[:idx], ".:") {
		repo = repo[idx+1:]
	}

	url := fmt.Sprintf("%s/v2/%s/manifests/%s", m.resolveRegistryBase(), repo, m.Spec.Tag)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("container: building manifest request: %w", err)
	}

	req.Header.Set("Accept", strings.Join([]string{
		ocispec.MediaTypeImageManifest,
		ocispec.MediaTypeImageIndex,
		"application/vnd.docker.distribution.manifest.v2+json",
	}, ","))

	resp, err := m.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("container: fetching manifest: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("container: manifest request for %s:%s returned %d", m.Spec.Image, m.Spec.Tag, resp.StatusCode)
	}

	if headerDigest := resp.Header.Get("Docker-Content-Digest"); headerDigest != "" {
		return digest.Parse(headerDigest)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("container: reading manifest body: %w", err)
	}

	return digest.FromBytes(body), nil
}

// DetectDrift fetches the current remote digest and compares it to the lock.
func (m *Manager) DetectDrift(ctx context.Context, opts envmanager.MaterializeOptions) (envmanager.Drift, error) {
	path := filepath.Join(m.Dir, lockFileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return envmanager.Drift{Action: mcpadreerr.ActionCreate}, nil
	}

	if err != nil {
		return envmanager.Drift{}, fmt.Errorf("container: reading %s: %w", path, err)
	}

	var existing lockFile

	err = json.Unmarshal(data, &existing)
	if err != nil {
		return envmanager.Drift{}, fmt.Errorf("container: parsing %s: %w", path, err)
	}

	remote, err := m.remoteDigest(ctx)
	if err != nil {
		return envmanager.Drift{}, err
	}

	changed := existing.Digest != remote.String()

	var changes []string
	if changed {
		changes = append(changes, fmt.Sprintf("Image digest: %s → %s", existing.Digest, remote.String()))
	}

	return envmanager.Drift{
		Action:  envmanager.DecideAction(changed, opts.AllowImplicitUpgrade, opts.Force),
		Changes: changes,
	}, nil
}

// Materialize pulls the image pinned to its resolved digest and writes the lock.
func (m *Manager) Materialize(ctx context.Context, drift envmanager.Drift) error {
	if drift.Action == mcpadreerr.ActionSkip {
		return nil
	}

	err := os.MkdirAll(m.Dir, 0o755)
	if err != nil {
		return fmt.Errorf("container: creating %s: %w", m.Dir, err)
	}

	remote, err := m.remoteDigest(ctx)
	if err != nil {
		return err
	}

	ref := fmt.Sprintf("%s@%s", m.Spec.Image, remote.String())

	cmd := exec.CommandContext(ctx, m.engine(), "pull", ref)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return &mcpadreerr.InstallFailed{Step: m.engine() + " pull", Detail: strings.TrimSpace(string(out))}
	}

	lock := lockFile{Image: m.Spec.Image, Tag: m.Spec.Tag, Digest: remote.String()}

	lockData, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return fmt.Errorf("container: encoding lock: %w", err)
	}

	err = os.WriteFile(filepath.Join(m.Dir, lockFileName), append(lockData, '\n'), 0o644)
	if err != nil {
		return fmt.Errorf("container: writing lock: %w", err)
	}

	return nil
}

// BuildLaunch runs the engine with `--rm -i`, attaching stdio, per
// spec.md §4.3.3.
func (m *Manager) BuildLaunch(_ context.Context) (envmanager.Launch, error) {
	env, err := template.ResolveEnvMap(m.Env, m.TemplateCtx)
	if err != nil {
		return envmanager.Launch{}, err
	}

	path := filepath.Join(m.Dir, lockFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		return envmanager.Launch{}, fmt.Errorf("container: reading %s: %w", path, err)
	}

	var lock lockFile

	err = json.Unmarshal(data, &lock)
	if err != nil {
		return envmanager.Launch{}, fmt.Errorf("container: parsing %s: %w", path, err)
	}

	args := []string{"run", "--rm", "-i"}
	for k, v := range env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}

	args = append(args, fmt.Sprintf("%s@%s", lock.Image, lock.Digest))

	return envmanager.Launch{
		Program: m.engine(),
		Args:    args,
		Cwd:     m.Dir,
		Env:     env,
	}, nil
}
