package electron

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/electron-stager/internal/config"
	"github.com/oshokin/electron-stager/internal/domain/stage"
	"github.com/oshokin/electron-stager/internal/repository/npm"
)

// fakeUnpacker records requests and optionally writes a minimal stage.
type fakeUnpacker struct {
	mu       sync.Mutex
	requests []*stage.UnpackRequest
	err      error
	files    []string
}

func (f *fakeUnpacker) Unpack(_ context.Context, req *stage.UnpackRequest) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	for _, name := range f.files {
		path := filepath.Join(req.Output, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}

		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			return err
		}
	}

	return nil
}

func (f *fakeUnpacker) calls() []*stage.UnpackRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*stage.UnpackRequest(nil), f.requests...)
}

// fakeMetadata serves canned versions and counts every lookup.
type fakeMetadata struct {
	installed     string
	manifest      *npm.Manifest
	installedHits atomic.Int32
	manifestHits  atomic.Int32
}

func (f *fakeMetadata) InstalledVersion(context.Context, string) (string, error) {
	f.installedHits.Add(1)

	if f.installed == "" {
		return "", npm.ErrNotFound
	}

	return f.installed, nil
}

func (f *fakeMetadata) ReadManifest(context.Context, string) (*npm.Manifest, error) {
	f.manifestHits.Add(1)

	if f.manifest == nil {
		return nil, os.ErrNotExist
	}

	return f.manifest, nil
}

// fakeBundler records Construct calls.
type fakeBundler struct {
	calls    int
	distName string
	isMas    bool
	err      error
}

func (f *fakeBundler) Construct(
	_ context.Context,
	_ *stage.PrepareContext,
	distMacOsAppName string,
	_ stage.AsarIntegrity,
	isMas bool,
) error {
	f.calls++
	f.distName = distMacOsAppName
	f.isMas = isMas

	return f.err
}

// fakeInjector records the version it was asked to inject.
type fakeInjector struct {
	version string
}

func (f *fakeInjector) Inject(_ context.Context, _ *stage.PrepareContext, version string) error {
	f.version = version
	return nil
}

// noEnv is a host without remote build hints.
func noEnv() Environment {
	return Environment{
		HostOS:    "linux",
		LookupEnv: func(string) (string, bool) { return "", false },
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		ProjectDir:      t.TempDir(),
		ProductName:     "Stage App",
		ElectronVersion: "30.1.2",
	}
	require.NoError(t, config.Validate(cfg))

	return cfg
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func requireExists(t *testing.T, path string) {
	t.Helper()

	_, err := os.Lstat(path)
	require.NoError(t, err, path)
}

func requireMissing(t *testing.T, path string) {
	t.Helper()

	_, err := os.Lstat(path)
	require.ErrorIs(t, err, os.ErrNotExist, path)
}
