package npm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}

// TestInstalledVersion_NotFound verifies an empty project reports ErrNotFound.
func TestInstalledVersion_NotFound(t *testing.T) {
	t.Parallel()

	_, err := InstalledVersion(t.TempDir(), nil)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestInstalledVersion_Order verifies package lookup order and warnings for broken metadata.
func TestInstalledVersion_Order(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "node_modules", "electron", ManifestFilename), "{broken")
	writeFile(t, filepath.Join(dir, "node_modules", "electron-prebuilt-compile", ManifestFilename), `{"version":"1.8.2"}`)
	writeFile(t, filepath.Join(dir, "node_modules", "electron-nightly", ManifestFilename), `{"version":"32.0.0-nightly"}`)

	var warned []string

	version, err := InstalledVersion(dir, func(pkg string, _ error) { warned = append(warned, pkg) })
	require.NoError(t, err)
	require.Equal(t, "1.8.2", version)
	require.Equal(t, []string{"electron"}, warned)
}

// TestFindElectronDependency prefers devDependencies and keeps package order.
func TestFindElectronDependency(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, ManifestPath(dir), `{
		"name": "app",
		"dependencies": {"electron": "^29.0.0"},
		"devDependencies": {"electron": "~30.1.0", "electron-nightly": "latest"}
	}`)

	manifest, err := ReadManifest(dir)
	require.NoError(t, err)

	dep, ok := manifest.FindElectronDependency()
	require.True(t, ok)
	require.Equal(t, Dependency{Name: "electron", Version: "~30.1.0"}, dep)

	_, ok = (&Manifest{}).FindElectronDependency()
	require.False(t, ok)
}
