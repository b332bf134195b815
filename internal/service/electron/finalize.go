package electron

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/electron-stager/internal/domain/stage"
	"github.com/oshokin/electron-stager/internal/logger"
)

// Cleanup action names reported in stage.CleanupResult.
const (
	ActionRemoveDefaultApp = "remove-default-app"
	ActionRemoveVersion    = "remove-version"
	ActionRenameLicense    = "rename-license"
	ActionRenameExecutable = "rename-executable"
	ActionRemoveLocale     = "remove-locale"
)

// cleanupAction is one best-effort filesystem action.
type cleanupAction func() stage.CleanupResult

// Finalize removes the runtime leftovers a local copy brings along. It does
// nothing unless outcome is stage.OutcomeCopied: workers produce a minimal stage.
// The actions run concurrently, their failures are classified in the returned
// results and never abort the build.
func Finalize(
	ctx context.Context,
	finalizer StageFinalizer,
	pc *stage.PrepareContext,
	distMacOsAppName string,
	outcome stage.AcquisitionOutcome,
) []stage.CleanupResult {
	if !outcome.NeedsFullCleanup() {
		return nil
	}

	actions := finalizer.cleanupActions(pc, distMacOsAppName)
	results := make([]stage.CleanupResult, len(actions))

	// Plain group: one failing action must not cancel its siblings.
	var group errgroup.Group

	for i, action := range actions {
		group.Go(func() error {
			results[i] = action()
			return nil
		})
	}

	_ = group.Wait()

	for _, result := range results {
		logCleanup(ctx, result)
	}

	return results
}

// markerCleanup removes the default app and the version marker.
func markerCleanup(resourcesDir, appOutDir string) []cleanupAction {
	return []cleanupAction{
		func() stage.CleanupResult {
			return removeIfExists(ActionRemoveDefaultApp, filepath.Join(resourcesDir, defaultAppArchive))
		},
		func() stage.CleanupResult {
			return removeIfExists(ActionRemoveVersion, filepath.Join(appOutDir, versionMarker))
		},
	}
}

// licenseCleanup brands the runtime license.
func licenseCleanup(appOutDir string) cleanupAction {
	return func() stage.CleanupResult {
		return renameIfExists(ActionRenameLicense,
			filepath.Join(appOutDir, licenseFile), filepath.Join(appOutDir, licenseTarget))
	}
}

func removeIfExists(action, path string) stage.CleanupResult {
	ok, err := exists(path)
	if err != nil {
		return stage.CleanupResult{Action: action, Path: path, Status: stage.CleanupFailed, Err: err}
	}

	if !ok {
		return stage.CleanupResult{Action: action, Path: path, Status: stage.CleanupNotApplicable}
	}

	if err = os.Remove(path); err != nil {
		return stage.CleanupResult{Action: action, Path: path, Status: stage.CleanupFailed, Err: err}
	}

	return stage.CleanupResult{Action: action, Path: path, Status: stage.CleanupSucceeded}
}

func renameIfExists(action, from, to string) stage.CleanupResult {
	ok, err := exists(from)
	if err != nil {
		return stage.CleanupResult{Action: action, Path: from, Status: stage.CleanupFailed, Err: err}
	}

	if !ok {
		return stage.CleanupResult{Action: action, Path: from, Status: stage.CleanupNotApplicable}
	}

	if err = os.Rename(from, to); err != nil {
		return stage.CleanupResult{Action: action, Path: from, Status: stage.CleanupFailed, Err: err}
	}

	return stage.CleanupResult{Action: action, Path: from, Status: stage.CleanupSucceeded}
}

// logCleanup reports only anomalies above debug.
func logCleanup(ctx context.Context, result stage.CleanupResult) {
	if result.Status == stage.CleanupFailed {
		logger.WarnKV(ctx, "Cleanup action failed", "action", result.Action, "path", result.Path, "error", result.Err)
		return
	}

	logger.DebugKV(ctx, "Cleanup action", "action", result.Action, "path", result.Path, "status", result.Status.String())
}
