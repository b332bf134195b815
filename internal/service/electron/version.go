package electron

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	goversion "github.com/hashicorp/go-version"

	"github.com/oshokin/electron-stager/internal/config"
	"github.com/oshokin/electron-stager/internal/domain/stage"
	"github.com/oshokin/electron-stager/internal/logger"
	"github.com/oshokin/electron-stager/internal/repository/npm"
)

// Metadata reads runtime version sources from a project.
type Metadata interface {
	// InstalledVersion returns npm.ErrNotFound when no runtime package is installed.
	InstalledVersion(ctx context.Context, projectDir string) (string, error)
	ReadManifest(ctx context.Context, projectDir string) (*npm.Manifest, error)
}

// npmMetadata reads package.json files from disk.
type npmMetadata struct{}

func (npmMetadata) InstalledVersion(ctx context.Context, projectDir string) (string, error) {
	return npm.InstalledVersion(projectDir, func(pkg string, err error) {
		logger.WarnKV(ctx, "Cannot read electron package metadata", "package", pkg, "error", err)
	})
}

func (npmMetadata) ReadManifest(_ context.Context, projectDir string) (*npm.Manifest, error) {
	return npm.ReadManifest(projectDir)
}

// Resolver determines the runtime version at most once per project, even
// when several targets of one build resolve concurrently.
type Resolver struct {
	metadata Metadata

	mu      sync.Mutex
	entries map[string]*resolution
}

// resolution is the memoized result for one project.
type resolution struct {
	once    sync.Once
	version string
	err     error
}

// NewResolver creates a resolver. A nil metadata reads package.json files from disk.
func NewResolver(metadata Metadata) *Resolver {
	if metadata == nil {
		metadata = npmMetadata{}
	}

	return &Resolver{
		metadata: metadata,
		entries:  make(map[string]*resolution),
	}
}

// Resolve returns the configured version unchanged when set. Otherwise it
// inspects installed metadata (prepacked apps) or the project manifest.
// The configuration is never modified.
func (r *Resolver) Resolve(ctx context.Context, cfg *config.Config, app stage.App) (string, error) {
	if cfg == nil {
		return "", errConfigIsNotSet
	}

	if cfg.ElectronVersion != "" {
		return cfg.ElectronVersion, nil
	}

	key := filepath.Clean(app.ProjectDir) + "|" + strconv.FormatBool(app.IsPrepackedAppAsar)

	r.mu.Lock()

	entry, ok := r.entries[key]
	if !ok {
		entry = new(resolution)
		r.entries[key] = entry
	}

	r.mu.Unlock()

	entry.once.Do(func() {
		entry.version, entry.err = r.resolve(ctx, app)
		if entry.err == nil {
			logger.InfoKV(ctx, "Resolved electron version", "version", entry.version, "project_dir", app.ProjectDir)
		}
	})

	return entry.version, entry.err
}

func (r *Resolver) resolve(ctx context.Context, app stage.App) (string, error) {
	if app.IsPrepackedAppAsar {
		version, err := r.metadata.InstalledVersion(ctx, app.ProjectDir)
		if errors.Is(err, npm.ErrNotFound) {
			return "", fmt.Errorf("%w: prepacked app asar and no electron package installed in %s",
				ErrVersionUnresolvable, filepath.Join(app.ProjectDir, "node_modules"))
		}

		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrVersionUnresolvable, err)
		}

		return version, nil
	}

	manifest := sync.OnceValues(func() (*npm.Manifest, error) {
		return r.metadata.ReadManifest(ctx, app.ProjectDir)
	})

	return ComputeElectronVersion(ctx, r.metadata, app.ProjectDir, manifest)
}

// ComputeElectronVersion prefers the installed runtime and falls back to the
// dependency declared in the manifest. The manifest func is called only when needed.
func ComputeElectronVersion(
	ctx context.Context,
	metadata Metadata,
	projectDir string,
	manifest func() (*npm.Manifest, error),
) (string, error) {
	version, err := metadata.InstalledVersion(ctx, projectDir)
	if err == nil {
		return version, nil
	}

	if !errors.Is(err, npm.ErrNotFound) {
		return "", fmt.Errorf("%w: %w", ErrVersionUnresolvable, err)
	}

	manifestPath := npm.ManifestPath(projectDir)

	m, err := manifest()
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", ErrVersionUnresolvable, manifestPath, err)
	}

	dep, ok := m.FindElectronDependency()
	if !ok {
		return "", fmt.Errorf("%w: no electron dependency in %s", ErrVersionUnresolvable, manifestPath)
	}

	if dep.Version == "latest" || dep.Name == "electron-nightly" {
		return "", fmt.Errorf("%w: %s@%s in %s needs a release lookup, set electron_version explicitly",
			ErrVersionUnresolvable, dep.Name, dep.Version, manifestPath)
	}

	coerced, ok := coerceVersion(dep.Version)
	if !ok {
		return "", fmt.Errorf("%w: none of the electron packages is installed and version %q is not fixed in %s",
			ErrVersionUnresolvable, dep.Version, manifestPath)
	}

	return coerced, nil
}

// leadingVersion is the numeric MAJOR[.MINOR[.PATCH]] prefix of a declared version.
//
//nolint:gochecknoglobals // Compiled once.
var leadingVersion = regexp.MustCompile(`^\d+(\.\d+){0,2}`)

// coerceVersion turns a version starting with a digit into MAJOR.MINOR.PATCH
// from its leading numeric part ("30.1" -> "30.1.0", "30.x" -> "30.0.0").
// Ranges and tags are not fixed versions.
func coerceVersion(v string) (string, bool) {
	prefix := leadingVersion.FindString(v)
	if prefix == "" {
		return "", false
	}

	parsed, err := goversion.NewVersion(prefix)
	if err != nil {
		return "", false
	}

	segments := parsed.Segments()
	for len(segments) < 3 {
		segments = append(segments, 0)
	}

	return fmt.Sprintf("%d.%d.%d", segments[0], segments[1], segments[2]), true
}
