package electron

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/oshokin/electron-stager/internal/config"
	"github.com/oshokin/electron-stager/internal/domain/stage"
	"github.com/oshokin/electron-stager/internal/logger"
)

// remoteBuildEnv forces remote build deferral on non-Windows hosts.
const remoteBuildEnv = "_REMOTE_BUILD"

// Environment describes the host the pipeline runs on.
type Environment struct {
	// HostOS is a GOOS value.
	HostOS string
	// LookupEnv reads an environment variable.
	LookupEnv func(key string) (string, bool)
}

// HostEnvironment returns the environment of the current process.
func HostEnvironment() Environment {
	return Environment{
		HostOS:    runtime.GOOS,
		LookupEnv: os.LookupEnv,
	}
}

// remoteBuildForced reports whether _REMOTE_BUILD is set to a truthy value.
func (e Environment) remoteBuildForced() bool {
	if e.LookupEnv == nil {
		return false
	}

	value, ok := e.LookupEnv(remoteBuildEnv)
	if !ok {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "1", "true":
		return true
	default:
		return false
	}
}

// DistResolver computes the electron_dist override for one target.
type DistResolver func(pc *stage.PrepareContext) (string, error)

// Acquirer populates a stage directory with the runtime.
type Acquirer struct {
	cfg          *config.Config
	unpacker     Unpacker
	distResolver DistResolver
	env          Environment
}

// NewAcquirer creates an acquirer. distResolver takes precedence over cfg.ElectronDist.
func NewAcquirer(cfg *config.Config, unpacker Unpacker, distResolver DistResolver, env Environment) *Acquirer {
	return &Acquirer{
		cfg:          cfg,
		unpacker:     unpacker,
		distResolver: distResolver,
		env:          env,
	}
}

// Acquire decides between deferral, delegated unpack and local copy.
// opts may be updated: a dist directory holding the release zip becomes opts.Cache.
func (a *Acquirer) Acquire(
	ctx context.Context,
	pc *stage.PrepareContext,
	opts *stage.DownloadOptions,
	distMacOsAppName string,
) (stage.AcquisitionOutcome, error) {
	if err := opts.Validate(); err != nil {
		return stage.OutcomeDeferred, fmt.Errorf("invalid download options: %w", err)
	}

	dist, err := a.dist(pc)
	if err != nil {
		return stage.OutcomeDeferred, err
	}

	if dist != "" {
		// The release name is fixed here: a custom filename only applies to downloads.
		cache := SrcDir(pc.App.ProjectDir, dist)
		archive := stage.ArchiveName(opts.Version, opts.Platform, opts.Arch)

		if _, statErr := os.Stat(filepath.Join(cache, archive)); statErr == nil {
			logger.InfoKV(ctx, "Using electron dist as download cache", "cache", cache, "archive", archive)

			opts.Cache = cache
			dist = ""
		}
	}

	if dist == "" {
		return a.delegate(ctx, pc, opts, distMacOsAppName)
	}

	src := SrcDir(pc.App.ProjectDir, dist)
	dst := DestinationDir(pc.AppOutDir)

	logger.InfoKV(ctx, "Copying electron dist", "source", src, "destination", dst)

	if err = emptyDir(dst); err != nil {
		return stage.OutcomeCopied, fmt.Errorf("prepare %s: %w", dst, err)
	}

	if err = copyDir(ctx, src, dst); err != nil {
		return stage.OutcomeCopied, fmt.Errorf("copy electron dist %s to %s: %w", src, dst, err)
	}

	return stage.OutcomeCopied, nil
}

func (a *Acquirer) delegate(
	ctx context.Context,
	pc *stage.PrepareContext,
	opts *stage.DownloadOptions,
	distMacOsAppName string,
) (stage.AcquisitionOutcome, error) {
	if a.IsRemoteBuildDeferred(pc.Platform) {
		logger.InfoKV(ctx, "Electron unpack deferred to remote build server", "platform", pc.Platform, "arch", pc.Arch)
		return stage.OutcomeDeferred, nil
	}

	if a.unpacker == nil {
		return stage.OutcomeDelegated, errNoUnpacker
	}

	req := &stage.UnpackRequest{
		Action:           stage.ActionUnpackElectron,
		Configuration:    []stage.DownloadOptions{*opts},
		Output:           pc.AppOutDir,
		DistMacOsAppName: distMacOsAppName,
	}

	if err := a.unpacker.Unpack(ctx, req); err != nil {
		return stage.OutcomeDelegated, fmt.Errorf("unpack electron into %s: %w", pc.AppOutDir, err)
	}

	return stage.OutcomeDelegated, nil
}

func (a *Acquirer) dist(pc *stage.PrepareContext) (string, error) {
	if a.distResolver != nil {
		dist, err := a.distResolver(pc)
		if err != nil {
			return "", fmt.Errorf("resolve electron dist: %w", err)
		}

		return dist, nil
	}

	if a.cfg == nil {
		return "", nil
	}

	return a.cfg.ElectronDist, nil
}

// IsRemoteBuildDeferred reports whether a Linux stage is left for a remote
// build server: remote_build is not false, the host is Windows or
// _REMOTE_BUILD is set, and no electron_dist or electron_download is configured.
func (a *Acquirer) IsRemoteBuildDeferred(platform stage.Platform) bool {
	if platform != stage.PlatformLinux {
		return false
	}

	if a.cfg != nil {
		if a.cfg.RemoteBuild != nil && !*a.cfg.RemoteBuild {
			return false
		}

		if a.cfg.ElectronDist != "" || a.cfg.ElectronDownload != nil {
			return false
		}
	}

	if a.distResolver != nil {
		return false
	}

	return a.env.HostOS == "windows" || a.env.remoteBuildForced()
}

// exists reports whether path exists; errors other than absence are returned.
func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, err
}
