package electron

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/electron-stager/internal/domain/stage"
	"github.com/oshokin/electron-stager/internal/logger"
)

// MacBundler turns the unpacked runtime bundle into the application bundle.
type MacBundler interface {
	Construct(
		ctx context.Context,
		pc *stage.PrepareContext,
		distMacOsAppName string,
		integrity stage.AsarIntegrity,
		isMas bool,
	) error
}

// CodecInjector replaces the bundled ffmpeg library of a stage.
type CodecInjector interface {
	Inject(ctx context.Context, pc *stage.PrepareContext, version string) error
}

// RenameBundler is the minimal MacBundler: it only moves <distMacOsAppName>
// to <ProductFilename>.app. Plist rewriting and helper renames are left to a
// full bundler.
type RenameBundler struct{}

// Construct renames the bundle; an already renamed bundle is left alone.
func (RenameBundler) Construct(
	ctx context.Context,
	pc *stage.PrepareContext,
	distMacOsAppName string,
	_ stage.AsarIntegrity,
	_ bool,
) error {
	from := filepath.Join(pc.AppOutDir, distMacOsAppName)
	to := filepath.Join(pc.AppOutDir, pc.App.ProductFilename+".app")

	if from == to {
		return nil
	}

	ok, err := exists(from)
	if err != nil {
		return fmt.Errorf("stat %s: %w", from, err)
	}

	if !ok {
		if done, _ := exists(to); done {
			return nil
		}

		return fmt.Errorf("bundle %s: %w", from, os.ErrNotExist)
	}

	logger.DebugKV(ctx, "Renaming app bundle", "from", from, "to", to)

	if err = os.Rename(from, to); err != nil {
		return fmt.Errorf("rename bundle: %w", err)
	}

	return nil
}
