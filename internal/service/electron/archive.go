package electron

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/oshokin/electron-stager/internal/domain/stage"
	"github.com/oshokin/electron-stager/internal/logger"
)

const (
	// ChecksumsFilename is the checksum list published next to every release archive.
	ChecksumsFilename = "SHASUMS256.txt"

	// unbrandedAppName is the bundle name inside macOS release archives.
	unbrandedAppName = "Electron.app"
	// defaultAppArchive is the placeholder app shipped with the runtime.
	defaultAppArchive = "default_app.asar"
	// versionMarker is the top-level file holding the runtime version.
	versionMarker = "version"
	// licenseFile and licenseTarget name the runtime license before and after branding.
	licenseFile   = "LICENSE"
	licenseTarget = "LICENSE.electron.txt"
)

// ArchiveUnpacker is an in-process worker that extracts a release zip already
// present in the download cache. It never downloads.
//
// Like the external worker it produces a minimal stage: the default app and
// the version marker are not extracted, and on Windows and Linux the license
// lands directly as LICENSE.electron.txt.
type ArchiveUnpacker struct {
	// cacheDir is used when the download options carry no cache.
	cacheDir string
}

// NewArchiveUnpacker creates an unpacker reading archives from cacheDir,
// or from DefaultCacheDir when cacheDir is empty.
func NewArchiveUnpacker(cacheDir string) *ArchiveUnpacker {
	if cacheDir == "" {
		cacheDir = DefaultCacheDir()
	}

	return &ArchiveUnpacker{cacheDir: cacheDir}
}

// DefaultCacheDir returns <user cache dir>/electron.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "electron")
	}

	return filepath.Join(dir, "electron")
}

// Unpack extracts every configured archive into req.Output.
func (u *ArchiveUnpacker) Unpack(ctx context.Context, req *stage.UnpackRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid unpack request: %w", err)
	}

	for i := range req.Configuration {
		if err := u.unpackOne(ctx, &req.Configuration[i], req.Output, req.DistMacOsAppName); err != nil {
			return err
		}
	}

	return nil
}

func (u *ArchiveUnpacker) unpackOne(ctx context.Context, opts *stage.DownloadOptions, output, distMacOsAppName string) error {
	cacheDir := opts.Cache
	if cacheDir == "" {
		cacheDir = u.cacheDir
	}

	archivePath := filepath.Join(cacheDir, opts.ArchiveName())
	if _, err := os.Stat(archivePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrArchiveNotCached, archivePath)
		}

		return fmt.Errorf("stat %s: %w", archivePath, err)
	}

	if opts.VerifyChecksum() {
		if err := verifyArchive(ctx, cacheDir, archivePath); err != nil {
			return err
		}
	}

	logger.InfoKV(ctx, "Extracting electron archive", "archive", archivePath, "output", output)

	if err := extractZip(ctx, archivePath, output, opts.Platform); err != nil {
		return fmt.Errorf("extract %s: %w", archivePath, err)
	}

	if opts.Platform.IsMac() && distMacOsAppName != "" && distMacOsAppName != unbrandedAppName {
		from := filepath.Join(output, unbrandedAppName)
		if _, err := os.Stat(from); err == nil {
			if err = os.Rename(from, filepath.Join(output, distMacOsAppName)); err != nil {
				return fmt.Errorf("rename %s: %w", from, err)
			}
		}
	}

	return nil
}

// verifyArchive checks archivePath against SHASUMS256.txt in cacheDir.
// A missing list or a missing entry is logged and tolerated.
func verifyArchive(ctx context.Context, cacheDir, archivePath string) error {
	sums, err := readChecksums(filepath.Join(cacheDir, ChecksumsFilename))
	if errors.Is(err, fs.ErrNotExist) {
		logger.DebugKV(ctx, "No checksum list next to archive, skipping verification", "archive", archivePath)
		return nil
	}

	if err != nil {
		return err
	}

	name := filepath.Base(archivePath)

	want, ok := sums[name]
	if !ok {
		logger.WarnKV(ctx, "Archive is not listed in checksum file", "archive", name, "error", errNoChecksumEntry)
		return nil
	}

	got, err := fileSHA256(archivePath)
	if err != nil {
		return err
	}

	if !strings.EqualFold(got, want) {
		return fmt.Errorf("%w: %s: expected %s, got %s", ErrChecksumMismatch, name, want, got)
	}

	return nil
}

// readChecksums parses "<hex> *<name>" and "<hex>  <name>" lines.
func readChecksums(path string) (map[string]string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = file.Close()
	}()

	sums := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}

		sums[strings.TrimPrefix(fields[1], "*")] = fields[0]
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return sums, nil
}

func fileSHA256(path string) (string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := sha256.New()
	if _, err = io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func extractZip(ctx context.Context, archivePath, output string, platform stage.Platform) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}

	defer func() {
		_ = reader.Close()
	}()

	if err = os.MkdirAll(output, defaultDirMode); err != nil {
		return err
	}

	// Every write goes through root, so neither entries nor links can leave output.
	root, err := os.OpenRoot(output)
	if err != nil {
		return err
	}

	defer func() {
		_ = root.Close()
	}()

	for _, file := range reader.File {
		if err = ctx.Err(); err != nil {
			return err
		}

		name, err := normalizeEntryName(file.Name)
		if err != nil {
			return err
		}

		name = minimalStageName(name, platform)
		if name == "" {
			continue
		}

		target := filepath.FromSlash(name)
		mode := file.Mode()

		switch {
		case mode.IsDir():
			err = root.MkdirAll(target, mode.Perm()|0o700)
		case mode&os.ModeSymlink != 0:
			err = extractSymlink(root, file, name)
		default:
			err = extractFile(root, file, target, mode.Perm())
		}

		if err != nil {
			return fmt.Errorf("%s: %w", file.Name, err)
		}
	}

	return nil
}

// minimalStageName maps an archive entry onto its stage path; "" drops the entry.
func minimalStageName(name string, platform stage.Platform) string {
	switch {
	case name == versionMarker:
		return ""
	case path.Base(name) == defaultAppArchive && path.Base(path.Dir(name)) == "resources",
		path.Base(name) == defaultAppArchive && strings.HasSuffix(path.Dir(name), "Contents/Resources"):
		return ""
	case name == licenseFile && !platform.IsMac():
		return licenseTarget
	default:
		return name
	}
}

// normalizeEntryName rejects absolute paths and entries escaping the output root.
func normalizeEntryName(value string) (string, error) {
	cleaned := path.Clean(strings.ReplaceAll(value, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "./")

	if cleaned == "." || cleaned == "" || path.IsAbs(cleaned) ||
		cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", errIllegalEntry, value)
	}

	return cleaned, nil
}

// extractSymlink creates name inside root. Absolute targets and targets
// resolving outside root are rejected.
func extractSymlink(root *os.Root, file *zip.File, name string) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}

	defer func() {
		_ = rc.Close()
	}()

	contents, err := io.ReadAll(rc)
	if err != nil {
		return err
	}

	link := strings.ReplaceAll(string(contents), "\\", "/")
	if link == "" || path.IsAbs(link) || filepath.IsAbs(link) || filepath.VolumeName(link) != "" {
		return fmt.Errorf("%w: link %q", errIllegalEntry, link)
	}

	if _, err = normalizeEntryName(path.Join(path.Dir(name), link)); err != nil {
		return fmt.Errorf("%w: link %q escapes output", errIllegalEntry, link)
	}

	target := filepath.FromSlash(name)
	if err = mkdirParent(root, target); err != nil {
		return err
	}

	return root.Symlink(filepath.FromSlash(link), target)
}

func extractFile(root *os.Root, file *zip.File, target string, perm os.FileMode) (err error) {
	if err = mkdirParent(root, target); err != nil {
		return err
	}

	rc, err := file.Open()
	if err != nil {
		return err
	}

	defer func() {
		_ = rc.Close()
	}()

	if perm == 0 {
		perm = 0o644
	}

	out, err := root.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, rc)

	return err
}

func mkdirParent(root *os.Root, target string) error {
	dir := filepath.Dir(target)
	if dir == "." {
		return nil
	}

	return root.MkdirAll(dir, defaultDirMode)
}
