package stage

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ActionUnpackElectron is the worker action that populates a stage directory.
const ActionUnpackElectron = "unpack-electron"

var (
	errVersionRequired  = errors.New("electron version is required")
	errArchRequired     = errors.New("arch is required")
	errOutputRequired   = errors.New("output directory is required")
	errUnknownAction    = errors.New("unknown worker action")
	errNoConfigurations = errors.New("at least one download configuration is required")
)

// Branding is the project/product name pair of the runtime skeleton.
type Branding struct {
	// ProjectName names the runtime executable ("electron").
	ProjectName string `json:"projectName"`
	// ProductName names the macOS bundle ("Electron" -> "Electron.app").
	ProductName string `json:"productName"`
}

// DownloadOptions describes which runtime archive a worker must unpack.
// JSON keys follow the unpack worker protocol.
type DownloadOptions struct {
	Platform         Platform `json:"platform"`
	Arch             string   `json:"arch"`
	Version          string   `json:"version"`
	Cache            string   `json:"cache,omitempty"`
	Mirror           string   `json:"mirror,omitempty"`
	CustomDir        string   `json:"customDir,omitempty"`
	CustomFilename   string   `json:"customFilename,omitempty"`
	StrictSSL        *bool    `json:"strictSSL,omitempty"`
	IsVerifyChecksum *bool    `json:"isVerifyChecksum,omitempty"`
}

// Validate checks the fields every worker depends on.
func (o *DownloadOptions) Validate() error {
	if o.Version == "" {
		return errVersionRequired
	}

	if !o.Platform.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedPlatform, o.Platform)
	}

	if o.Arch == "" {
		return errArchRequired
	}

	return nil
}

// ArchiveName returns the release archive name for these options,
// honoring CustomFilename when set.
func (o *DownloadOptions) ArchiveName() string {
	if o.CustomFilename != "" {
		return o.CustomFilename
	}

	return ArchiveName(o.Version, o.Platform, o.Arch)
}

// VerifyChecksum reports whether checksum verification is requested (default true).
func (o *DownloadOptions) VerifyChecksum() bool {
	return o.IsVerifyChecksum == nil || *o.IsVerifyChecksum
}

// ArchiveName returns electron-v<version>-<platform>-<arch>.zip.
func ArchiveName(version string, platform Platform, arch string) string {
	return fmt.Sprintf("electron-v%s-%s-%s.zip", version, platform, arch)
}

// HeaderHash is the integrity of one asar archive header.
type HeaderHash struct {
	Algorithm string `json:"algorithm"`
	Hash      string `json:"hash"`
}

// AsarIntegrity maps asar paths relative to the resources dir to their header hashes.
type AsarIntegrity map[string]HeaderHash

// App carries the per-application facts the pipeline needs from the packager.
type App struct {
	// ProjectDir is the directory holding package.json and node_modules.
	ProjectDir string
	// ProductName is the display name of the application.
	ProductName string
	// ProductFilename is ProductName made safe for file names.
	ProductFilename string
	// ExecutableName is the Linux executable name.
	ExecutableName string
	// IsPrepackedAppAsar is set when the app comes as a prebuilt asar (no dev dependencies).
	IsPrepackedAppAsar bool
}

// PrepareContext is what a packager passes for one target build.
// AppOutDir is owned by a single preparation at a time.
type PrepareContext struct {
	App               App
	AppOutDir         string
	Platform          Platform
	Arch              string
	AsarIntegrity     AsarIntegrity
	Version           string
	ElectronLanguages []string
}

// ResourcesDir returns the resources directory of the finished stage:
// <out>/<ProductFilename>.app/Contents/Resources on macOS, <out>/resources elsewhere.
func (pc *PrepareContext) ResourcesDir() string {
	if pc.Platform.IsMac() {
		return filepath.Join(pc.AppOutDir, pc.App.ProductFilename+".app", "Contents", "Resources")
	}

	return filepath.Join(pc.AppOutDir, "resources")
}

// UnpackRequest is the message sent to an unpack worker.
type UnpackRequest struct {
	Action           string            `json:"action"`
	Configuration    []DownloadOptions `json:"configuration"`
	Output           string            `json:"output"`
	DistMacOsAppName string            `json:"distMacOsAppName"`
}

// Validate checks the request before it leaves the process or after it arrives.
func (r *UnpackRequest) Validate() error {
	if r.Action != ActionUnpackElectron {
		return fmt.Errorf("%w: %q", errUnknownAction, r.Action)
	}

	if r.Output == "" {
		return errOutputRequired
	}

	if len(r.Configuration) == 0 {
		return errNoConfigurations
	}

	for i := range r.Configuration {
		if err := r.Configuration[i].Validate(); err != nil {
			return fmt.Errorf("configuration[%d]: %w", i, err)
		}
	}

	return nil
}
