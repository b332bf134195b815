package electron

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/electron-stager/internal/domain/stage"
)

// TestWindowsRenameTwice renames once and tolerates the second run.
func TestWindowsRenameTwice(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	pc := prepareContext(t, cfg, stage.PlatformWindows)
	writeFile(t, filepath.Join(pc.AppOutDir, "electron.exe"), "exe")

	finalizer, err := NewStageFinalizer(stage.PlatformWindows, &Build{Branding: ResolveBranding(nil)}, nil, false)
	require.NoError(t, err)
	require.Equal(t, stage.PlatformWindows, finalizer.Platform())

	report, err := finalizer.beforeCopyExtraFiles(context.Background(), pc)
	require.NoError(t, err)
	require.Equal(t, stage.CleanupSucceeded, report.Rename.Status)
	requireExists(t, filepath.Join(pc.AppOutDir, "Stage App.exe"))
	requireMissing(t, filepath.Join(pc.AppOutDir, "electron.exe"))

	report, err = finalizer.beforeCopyExtraFiles(context.Background(), pc)
	require.NoError(t, err)
	require.Equal(t, stage.CleanupNotApplicable, report.Rename.Status)
	requireExists(t, filepath.Join(pc.AppOutDir, "Stage App.exe"))
}

// TestLinuxRename uses the branded project name and skips deferred stages.
func TestLinuxRename(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	pc := prepareContext(t, cfg, stage.PlatformLinux)
	writeFile(t, filepath.Join(pc.AppOutDir, "brand"), "elf")

	build := &Build{Branding: stage.Branding{ProjectName: "brand", ProductName: "Brand"}}

	deferred, err := NewStageFinalizer(stage.PlatformLinux, build, nil, true)
	require.NoError(t, err)

	report, err := deferred.beforeCopyExtraFiles(context.Background(), pc)
	require.NoError(t, err)
	require.True(t, report.Deferred)
	requireExists(t, filepath.Join(pc.AppOutDir, "brand"))

	local, err := NewStageFinalizer(stage.PlatformLinux, build, nil, false)
	require.NoError(t, err)

	report, err = local.beforeCopyExtraFiles(context.Background(), pc)
	require.NoError(t, err)
	require.Equal(t, stage.CleanupSucceeded, report.Rename.Status)
	requireExists(t, filepath.Join(pc.AppOutDir, "stage-app"))
}

// TestMacHook constructs the bundle and prunes its locales.
func TestMacHook(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	pc := prepareContext(t, cfg, stage.PlatformMAS)
	pc.ElectronLanguages = []string{"en"}
	seedLocales(t, filepath.Join(pc.AppOutDir, "Electron.app", "Contents", "Resources"))

	build := &Build{DistMacOsAppName: "Electron.app"}

	finalizer, err := NewStageFinalizer(stage.PlatformMAS, build, RenameBundler{}, false)
	require.NoError(t, err)
	require.Equal(t, stage.PlatformMAS, finalizer.Platform())

	report, err := finalizer.beforeCopyExtraFiles(context.Background(), pc)
	require.NoError(t, err)
	require.Equal(t, []string{"de", "fr"}, report.Locales.Removed)

	resources := filepath.Join(pc.AppOutDir, "Stage App.app", "Contents", "Resources")
	requireExists(t, filepath.Join(resources, "en.lproj"))
	requireMissing(t, filepath.Join(resources, "fr.lproj"))

	bundler := &fakeBundler{err: errors.New("plist")}

	finalizer, err = NewStageFinalizer(stage.PlatformMAS, build, bundler, false)
	require.NoError(t, err)

	_, err = finalizer.beforeCopyExtraFiles(context.Background(), pc)
	require.Error(t, err)
	require.Equal(t, 1, bundler.calls)
	require.True(t, bundler.isMas)
	require.Equal(t, "Electron.app", bundler.distName)
}

// TestNewStageFinalizerErrors rejects unknown platforms and macOS without a bundler.
func TestNewStageFinalizerErrors(t *testing.T) {
	t.Parallel()

	_, err := NewStageFinalizer("beos", new(Build), nil, false)
	require.ErrorIs(t, err, stage.ErrUnsupportedPlatform)

	_, err = NewStageFinalizer(stage.PlatformDarwin, new(Build), nil, false)
	require.ErrorIs(t, err, ErrNoMacBundler)
}
