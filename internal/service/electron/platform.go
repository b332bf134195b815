package electron

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/oshokin/electron-stager/internal/domain/stage"
	"github.com/oshokin/electron-stager/internal/logger"
)

// StageFinalizer holds everything that differs per target platform: the
// cleanup a local copy needs and the pre-extra-files hook.
// Implementations live in this package only.
type StageFinalizer interface {
	// Platform returns the platform handled.
	Platform() stage.Platform

	cleanupActions(pc *stage.PrepareContext, distMacOsAppName string) []cleanupAction
	beforeCopyExtraFiles(ctx context.Context, pc *stage.PrepareContext) (*HookReport, error)
}

// HookReport describes what the pre-extra-files hook did.
type HookReport struct {
	// Rename is set on Windows and Linux.
	Rename *stage.CleanupResult
	// Deferred is set when a remote build server owns the Linux stage.
	Deferred bool
	// Locales is set on macOS.
	Locales *LocaleReport
}

// NewStageFinalizer returns the handler for platform.
// remoteDeferred only matters for Linux; bundler is required for macOS.
func NewStageFinalizer(platform stage.Platform, build *Build, bundler MacBundler, remoteDeferred bool) (StageFinalizer, error) {
	switch platform {
	case stage.PlatformLinux:
		return &linuxFinalizer{projectName: build.Branding.ProjectName, deferred: remoteDeferred}, nil
	case stage.PlatformWindows:
		return &windowsFinalizer{projectName: build.Branding.ProjectName}, nil
	case stage.PlatformDarwin, stage.PlatformMAS:
		if bundler == nil {
			return nil, ErrNoMacBundler
		}

		return &macFinalizer{
			bundler:  bundler,
			distName: build.DistMacOsAppName,
			isMas:    platform == stage.PlatformMAS,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", stage.ErrUnsupportedPlatform, platform)
	}
}

type linuxFinalizer struct {
	projectName string
	deferred    bool
}

func (*linuxFinalizer) Platform() stage.Platform { return stage.PlatformLinux }

func (*linuxFinalizer) cleanupActions(pc *stage.PrepareContext, _ string) []cleanupAction {
	return append(markerCleanup(filepath.Join(pc.AppOutDir, "resources"), pc.AppOutDir), licenseCleanup(pc.AppOutDir))
}

func (f *linuxFinalizer) beforeCopyExtraFiles(ctx context.Context, pc *stage.PrepareContext) (*HookReport, error) {
	if f.deferred {
		logger.DebugKV(ctx, "Executable rename left to remote build server", "out", pc.AppOutDir)
		return &HookReport{Deferred: true}, nil
	}

	return renameExecutable(ctx,
		filepath.Join(pc.AppOutDir, f.projectName),
		filepath.Join(pc.AppOutDir, pc.App.ExecutableName))
}

type windowsFinalizer struct {
	projectName string
}

func (*windowsFinalizer) Platform() stage.Platform { return stage.PlatformWindows }

func (*windowsFinalizer) cleanupActions(pc *stage.PrepareContext, _ string) []cleanupAction {
	return append(markerCleanup(filepath.Join(pc.AppOutDir, "resources"), pc.AppOutDir), licenseCleanup(pc.AppOutDir))
}

func (f *windowsFinalizer) beforeCopyExtraFiles(ctx context.Context, pc *stage.PrepareContext) (*HookReport, error) {
	return renameExecutable(ctx,
		filepath.Join(pc.AppOutDir, f.projectName+".exe"),
		filepath.Join(pc.AppOutDir, pc.App.ProductFilename+".exe"))
}

type macFinalizer struct {
	bundler  MacBundler
	distName string
	isMas    bool
}

func (f *macFinalizer) Platform() stage.Platform {
	if f.isMas {
		return stage.PlatformMAS
	}

	return stage.PlatformDarwin
}

func (*macFinalizer) cleanupActions(pc *stage.PrepareContext, distMacOsAppName string) []cleanupAction {
	return markerCleanup(filepath.Join(pc.AppOutDir, distMacOsAppName, "Contents", "Resources"), pc.AppOutDir)
}

func (f *macFinalizer) beforeCopyExtraFiles(ctx context.Context, pc *stage.PrepareContext) (*HookReport, error) {
	if err := f.bundler.Construct(ctx, pc, f.distName, pc.AsarIntegrity, f.isMas); err != nil {
		return nil, fmt.Errorf("construct mac bundle: %w", err)
	}

	locales, err := PruneLocales(ctx, pc.ResourcesDir(), pc.ElectronLanguages)
	if err != nil {
		return nil, err
	}

	return &HookReport{Locales: locales}, nil
}

// renameExecutable renames from to to. A missing source is not an error so a
// second run of the hook passes; any other failure is.
func renameExecutable(ctx context.Context, from, to string) (*HookReport, error) {
	if from == to {
		result := stage.CleanupResult{Action: ActionRenameExecutable, Path: from, Status: stage.CleanupNotApplicable}
		return &HookReport{Rename: &result}, nil
	}

	result := renameIfExists(ActionRenameExecutable, from, to)
	logCleanup(ctx, result)

	if result.Status == stage.CleanupFailed {
		return nil, fmt.Errorf("rename executable %s: %w", from, result.Err)
	}

	return &HookReport{Rename: &result}, nil
}
