package npm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ElectronPackages lists the packages that may provide the runtime, in lookup order.
//
//nolint:gochecknoglobals // Read-only lookup order.
var ElectronPackages = []string{"electron", "electron-prebuilt", "electron-prebuilt-compile", "electron-nightly"}

// ManifestFilename is the project manifest name.
const ManifestFilename = "package.json"

// ErrNotFound is returned when none of ElectronPackages is installed.
var ErrNotFound = errors.New("no electron package installed")

// Manifest is the subset of package.json the stager reads.
type Manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Dependency is a declared dependency on one of ElectronPackages.
type Dependency struct {
	Name    string
	Version string
}

// Warner receives non-fatal read problems.
type Warner func(pkg string, err error)

// InstalledVersion returns the version of the first installed package from
// ElectronPackages under projectDir/node_modules. Missing packages are skipped
// silently, unreadable ones are reported to warn and skipped.
func InstalledVersion(projectDir string, warn Warner) (string, error) {
	for _, name := range ElectronPackages {
		path := filepath.Join(projectDir, "node_modules", name, ManifestFilename)

		manifest, err := readManifest(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) && warn != nil {
				warn(name, err)
			}

			continue
		}

		if manifest.Version != "" {
			return manifest.Version, nil
		}
	}

	return "", ErrNotFound
}

// ReadManifest reads projectDir/package.json.
func ReadManifest(projectDir string) (*Manifest, error) {
	return readManifest(filepath.Join(projectDir, ManifestFilename))
}

// ManifestPath returns the path ReadManifest reads.
func ManifestPath(projectDir string) string {
	return filepath.Join(projectDir, ManifestFilename)
}

// FindElectronDependency returns the first declared Electron dependency,
// preferring devDependencies over dependencies for every package name.
func (m *Manifest) FindElectronDependency() (Dependency, bool) {
	for _, name := range ElectronPackages {
		if version, ok := m.DevDependencies[name]; ok {
			return Dependency{Name: name, Version: version}, true
		}

		if version, ok := m.Dependencies[name]; ok {
			return Dependency{Name: name, Version: version}, true
		}
	}

	return Dependency{}, false
}

func readManifest(path string) (*Manifest, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err = json.Unmarshal(contents, &manifest); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &manifest, nil
}
