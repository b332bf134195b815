package electron

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// defaultDirMode is used for directories created inside a stage.
const defaultDirMode os.FileMode = 0o755

// SrcDir resolves a distribution path against the project directory.
func SrcDir(projectDir, dist string) string {
	if filepath.IsAbs(dist) {
		return filepath.Clean(dist)
	}

	return filepath.Join(projectDir, dist)
}

// DestinationDir returns where a copied distribution lands inside appOutDir.
func DestinationDir(appOutDir string) string {
	return appOutDir
}

// emptyDir makes dir an existing, empty directory.
func emptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return os.MkdirAll(dir, defaultDirMode)
	}

	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if err = os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("empty %s: %w", dir, err)
		}
	}

	return nil
}

// copyDir copies src into dst with independent file copies: regular files
// are rewritten byte by byte (never hard-linked), symlinks stay symlinks and
// permission bits are preserved.
func copyDir(ctx context.Context, src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s: %w", src, errNotADirectory)
	}

	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)

		switch {
		case entry.IsDir():
			mode := defaultDirMode
			if info, infoErr := entry.Info(); infoErr == nil {
				mode = info.Mode().Perm() | 0o700
			}

			return os.MkdirAll(target, mode)
		case entry.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("read link %s: %w", path, err)
			}

			return os.Symlink(link, target)
		case entry.Type().IsRegular():
			return copyFile(path, target)
		default:
			// Devices, sockets and pipes have no place in a runtime distribution.
			return nil
		}
	})
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}

	defer func() {
		_ = in.Close()
	}()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", dst, closeErr)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}

	return nil
}
