package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/electron-stager/internal/domain/stage"
)

// TestValidate checks required fields, derived defaults and worker validation.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))
	require.Error(t, Validate(new(Config)))

	cfg := &Config{ProductName: "My: App"}
	require.NoError(t, Validate(cfg))
	require.Equal(t, "My App", cfg.ProductFilename)
	require.Equal(t, "my-app", cfg.ExecutableName)
	require.Equal(t, WorkerCommand, cfg.Worker.Kind)
	require.Equal(t, DefaultWorkerExecutable, cfg.Worker.Executable)
	require.Equal(t, DefaultWorkerTimeout, cfg.Worker.Timeout)

	cfg = &Config{ProductName: "App", Worker: Worker{Kind: WorkerGRPC}}
	require.Error(t, Validate(cfg))

	cfg = &Config{ProductName: "App", Worker: Worker{Kind: "ftp"}}
	require.Error(t, Validate(cfg))
}

// TestLoad reads a YAML file and resolves the project dir against it.
func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFilename)
	contents := `
project_dir: app
product_name: Stage Test
electron_version: 30.0.1
electron_branding:
  project_name: brand
electron_download:
  mirror: https://mirror.local/
  is_verify_checksum: false
mac:
  electron_languages: [en, fr]
worker:
  kind: archive
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "app"), cfg.ProjectDir)
	require.Equal(t, "30.0.1", cfg.ElectronVersion)
	require.Equal(t, "brand", cfg.ElectronBranding.ProjectName)
	require.Equal(t, "https://mirror.local/", cfg.ElectronDownload.Mirror)
	require.False(t, *cfg.ElectronDownload.IsVerifyChecksum)
	require.Equal(t, WorkerArchive, cfg.Worker.Kind)
	require.Equal(t, []string{"en", "fr"}, cfg.Languages(stage.PlatformMAS))
	require.Empty(t, cfg.Languages(stage.PlatformLinux))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

// TestApp maps configuration onto the packager facts.
func TestApp(t *testing.T) {
	t.Parallel()

	cfg := &Config{ProductName: "App", PrepackedAppAsar: "dist/app.asar"}
	require.NoError(t, Validate(cfg))

	app := cfg.App()
	require.True(t, app.IsPrepackedAppAsar)
	require.Equal(t, "App", app.ProductFilename)
	require.Equal(t, "app", app.ExecutableName)
}
