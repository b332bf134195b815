package electron

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/electron-stager/internal/domain/stage"
	"github.com/oshokin/electron-stager/internal/logger"
)

const (
	// localeSuffix marks a macOS locale resource directory.
	localeSuffix = ".lproj"
	// maxConcurrentRemovals bounds open descriptors on large resource trees.
	maxConcurrentRemovals = 8
)

// LocaleReport lists what a locale prune did. Removed and Kept are sorted.
type LocaleReport struct {
	Removed []string
	Kept    []string
	Failed  []stage.CleanupResult
}

// PruneLocales removes every <locale>.lproj entry of resourcesDir whose
// locale is not in wanted. An empty wanted list keeps everything.
// A failed removal is reported without stopping the others; an unreadable
// resourcesDir is an error.
func PruneLocales(ctx context.Context, resourcesDir string, wanted []string) (*LocaleReport, error) {
	report := new(LocaleReport)
	if len(wanted) == 0 {
		return report, nil
	}

	entries, err := os.ReadDir(resourcesDir)
	if err != nil {
		return nil, fmt.Errorf("read resources %s: %w", resourcesDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	report = pruneEntries(resourcesDir, names, sliceToSet(wanted))

	for _, failed := range report.Failed {
		logCleanup(ctx, failed)
	}

	logger.DebugKV(ctx, "Pruned locales", "dir", resourcesDir, "removed", report.Removed, "kept", report.Kept)

	return report, nil
}

// pruneEntries decides and removes locale entries of resourcesDir given by name.
// The report does not depend on the order of names or on removal timing.
func pruneEntries(resourcesDir string, names []string, keep map[string]struct{}) *LocaleReport {
	report := new(LocaleReport)

	var (
		mu    sync.Mutex
		group errgroup.Group
	)

	group.SetLimit(maxConcurrentRemovals)

	for _, name := range names {
		locale, ok := strings.CutSuffix(name, localeSuffix)
		if !ok {
			continue
		}

		if _, ok = keep[locale]; ok {
			report.Kept = append(report.Kept, locale)
			continue
		}

		path := filepath.Join(resourcesDir, name)

		group.Go(func() error {
			removeErr := os.RemoveAll(path)

			mu.Lock()
			defer mu.Unlock()

			if removeErr != nil {
				report.Failed = append(report.Failed, stage.CleanupResult{
					Action: ActionRemoveLocale,
					Path:   path,
					Status: stage.CleanupFailed,
					Err:    removeErr,
				})

				return nil
			}

			report.Removed = append(report.Removed, locale)

			return nil
		})
	}

	_ = group.Wait()

	slices.Sort(report.Removed)
	slices.Sort(report.Kept)
	slices.SortFunc(report.Failed, func(a, b stage.CleanupResult) int {
		return strings.Compare(a.Path, b.Path)
	})

	return report
}

// sliceToSet converts a slice to a set for quick lookups.
func sliceToSet[T comparable](elements []T) map[T]struct{} {
	result := make(map[T]struct{}, len(elements))

	for _, v := range elements {
		result[v] = struct{}{}
	}

	return result
}
