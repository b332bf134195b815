package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/electron-stager/internal/domain/stage"
)

// Config holds the resolved build configuration consumed by the staging pipeline.
type Config struct {
	// ProjectDir is the directory holding package.json and node_modules.
	ProjectDir string `yaml:"project_dir"`
	// ProductName is the display name of the application.
	ProductName string `yaml:"product_name"`
	// ProductFilename defaults to ProductName with unsafe characters removed.
	ProductFilename string `yaml:"product_filename"`
	// ExecutableName is the Linux executable name, defaults to a lowercased ProductFilename.
	ExecutableName string `yaml:"executable_name"`
	// PrepackedAppAsar points at a prebuilt app.asar; when set no dev dependencies are available.
	PrepackedAppAsar string `yaml:"prepacked_app_asar"`
	// TemplatesDir holds bundled templates such as default icons.
	TemplatesDir string `yaml:"templates_dir"`

	// ElectronVersion short-circuits version resolution when set.
	ElectronVersion string `yaml:"electron_version"`
	// ElectronBranding overrides the runtime project/product names.
	ElectronBranding *Branding `yaml:"electron_branding"`
	// ElectronDist is a local distribution directory or a cache holding the release zip.
	ElectronDist string `yaml:"electron_dist"`
	// ElectronDownload is merged into the worker download options.
	ElectronDownload *Download `yaml:"electron_download"`
	// DownloadAlternateFFmpeg replaces the bundled ffmpeg with the proprietary-codec-free build.
	DownloadAlternateFFmpeg bool `yaml:"download_alternate_ffmpeg"`
	// RemoteBuild set to false forbids deferring acquisition to a remote build server.
	RemoteBuild *bool `yaml:"remote_build"`

	// Mac, Mas, Linux and Win hold platform specific options.
	Mac   PlatformOptions `yaml:"mac"`
	Mas   PlatformOptions `yaml:"mas"`
	Linux PlatformOptions `yaml:"linux"`
	Win   PlatformOptions `yaml:"win"`

	// Worker configures how the runtime is unpacked.
	Worker Worker `yaml:"worker"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Branding mirrors stage.Branding with optional fields.
type Branding struct {
	ProjectName string `yaml:"project_name"`
	ProductName string `yaml:"product_name"`
}

// Download holds user overrides for the worker download options.
type Download struct {
	Cache            string `yaml:"cache"`
	Mirror           string `yaml:"mirror"`
	CustomDir        string `yaml:"custom_dir"`
	CustomFilename   string `yaml:"custom_filename"`
	StrictSSL        *bool  `yaml:"strict_ssl"`
	IsVerifyChecksum *bool  `yaml:"is_verify_checksum"`
}

// PlatformOptions are options that differ per target platform.
type PlatformOptions struct {
	// ElectronLanguages is the locale allow-list; empty keeps every locale.
	ElectronLanguages []string `yaml:"electron_languages"`
}

// Worker selects the unpack worker.
type Worker struct {
	// Kind is "command", "archive" or "grpc".
	Kind string `yaml:"kind"`
	// Executable is the worker binary for the command kind.
	Executable string `yaml:"executable"`
	// Address is the gRPC address for the grpc kind.
	Address string `yaml:"address"`
	// Timeout bounds a single unpack call.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default configuration file name.
	DefaultConfigFilename = "electron-stager.yaml"

	// WorkerCommand runs an external unpack worker binary.
	WorkerCommand = "command"
	// WorkerArchive extracts a cached release zip in-process.
	WorkerArchive = "archive"
	// WorkerGRPC calls a remote unpack service.
	WorkerGRPC = "grpc"

	// DefaultWorkerExecutable is the unpack worker binary looked up in PATH.
	DefaultWorkerExecutable = "app-builder"
	// DefaultWorkerTimeout bounds a single unpack call.
	DefaultWorkerTimeout = 10 * time.Minute
)

var (
	errConfigIsNotSet      = errors.New("configuration is not set")
	errProductNameRequired = errors.New("product name must be provided")
	errUnknownWorker       = errors.New("unknown worker kind")
	errWorkerAddress       = errors.New("grpc worker requires an address")

	// unsafeFilenameChars matches characters not allowed in file names on any target platform.
	unsafeFilenameChars = regexp.MustCompile(`[/\\?%*:|"<>]`)
)

// Load reads and validates the configuration at path.
// A relative ProjectDir is resolved against the configuration file's directory.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if !filepath.IsAbs(cfg.ProjectDir) {
		cfg.ProjectDir = filepath.Join(filepath.Dir(path), cfg.ProjectDir)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required fields and fills defaults in place.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if strings.TrimSpace(cfg.ProductName) == "" {
		return errProductNameRequired
	}

	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}

	if cfg.ProductFilename == "" {
		cfg.ProductFilename = SanitizeFilename(cfg.ProductName)
	}

	if cfg.ExecutableName == "" {
		cfg.ExecutableName = strings.ToLower(strings.ReplaceAll(cfg.ProductFilename, " ", "-"))
	}

	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = filepath.Join(cfg.ProjectDir, "templates")
	}

	return validateWorker(&cfg.Worker)
}

func validateWorker(w *Worker) error {
	if w.Kind == "" {
		w.Kind = WorkerCommand
	}

	if w.Timeout <= 0 {
		w.Timeout = DefaultWorkerTimeout
	}

	switch w.Kind {
	case WorkerCommand:
		if w.Executable == "" {
			w.Executable = DefaultWorkerExecutable
		}
	case WorkerArchive:
	case WorkerGRPC:
		if w.Address == "" {
			return errWorkerAddress
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownWorker, w.Kind)
	}

	return nil
}

// SanitizeFilename drops characters that are invalid in file names.
func SanitizeFilename(name string) string {
	return strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(name, ""))
}

// Languages returns the locale allow-list for a platform.
// The Mac App Store target falls back to the mac list when its own is empty.
func (c *Config) Languages(p stage.Platform) []string {
	switch p {
	case stage.PlatformDarwin:
		return c.Mac.ElectronLanguages
	case stage.PlatformMAS:
		if len(c.Mas.ElectronLanguages) > 0 {
			return c.Mas.ElectronLanguages
		}

		return c.Mac.ElectronLanguages
	case stage.PlatformLinux:
		return c.Linux.ElectronLanguages
	case stage.PlatformWindows:
		return c.Win.ElectronLanguages
	default:
		return nil
	}
}

// App builds the packager facts the pipeline consumes.
func (c *Config) App() stage.App {
	return stage.App{
		ProjectDir:         c.ProjectDir,
		ProductName:        c.ProductName,
		ProductFilename:    c.ProductFilename,
		ExecutableName:     c.ExecutableName,
		IsPrepackedAppAsar: c.PrepackedAppAsar != "",
	}
}
