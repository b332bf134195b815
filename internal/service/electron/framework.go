package electron

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/oshokin/electron-stager/internal/config"
	"github.com/oshokin/electron-stager/internal/domain/stage"
	"github.com/oshokin/electron-stager/internal/logger"
)

// FrameworkName is the name packagers select this framework by.
const FrameworkName = "electron"

// Build is the build context resolved once per project and passed down the pipeline.
type Build struct {
	Version          string
	Branding         stage.Branding
	DistMacOsAppName string
}

// Options wires the external collaborators of a Framework.
type Options struct {
	// Unpacker populates stages when no local dist is used.
	Unpacker Unpacker
	// Resolver is shared between frameworks of one build; nil creates a private one.
	Resolver *Resolver
	// MacBundler defaults to RenameBundler.
	MacBundler MacBundler
	// CodecInjector is required when download_alternate_ffmpeg is set.
	CodecInjector CodecInjector
	// DistResolver overrides cfg.ElectronDist per target.
	DistResolver DistResolver
	// Environment defaults to HostEnvironment.
	Environment *Environment
	// ProcessAlive checks stage lock owners; nil uses the process table.
	ProcessAlive ProcessAlive
}

// Framework prepares Electron stage directories for a packager.
type Framework struct {
	cfg      *config.Config
	build    Build
	acquirer *Acquirer
	bundler  MacBundler
	injector CodecInjector
	alive    ProcessAlive
}

// StageReport describes one PrepareStage run.
type StageReport struct {
	Outcome       stage.AcquisitionOutcome
	Cleanup       []stage.CleanupResult
	CodecInjected bool
}

// New resolves the build context and wires the pipeline.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Framework, error) {
	if cfg == nil {
		return nil, errConfigIsNotSet
	}

	if cfg.DownloadAlternateFFmpeg && opts.CodecInjector == nil {
		return nil, ErrNoCodecInjector
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = NewResolver(nil)
	}

	version, err := resolver.Resolve(ctx, cfg, cfg.App())
	if err != nil {
		return nil, err
	}

	branding := ResolveBranding(cfg.ElectronBranding)

	env := HostEnvironment()
	if opts.Environment != nil {
		env = *opts.Environment
	}

	bundler := opts.MacBundler
	if bundler == nil {
		bundler = RenameBundler{}
	}

	return &Framework{
		cfg: cfg,
		build: Build{
			Version:          version,
			Branding:         branding,
			DistMacOsAppName: branding.ProductName + ".app",
		},
		acquirer: NewAcquirer(cfg, opts.Unpacker, opts.DistResolver, env),
		bundler:  bundler,
		injector: opts.CodecInjector,
		alive:    opts.ProcessAlive,
	}, nil
}

// Name returns FrameworkName.
func (f *Framework) Name() string { return FrameworkName }

// Version returns the resolved runtime version.
func (f *Framework) Version() string { return f.build.Version }

// Branding returns the resolved runtime branding.
func (f *Framework) Branding() stage.Branding { return f.build.Branding }

// DistMacOsAppName returns the bundle name of the unpacked runtime.
func (f *Framework) DistMacOsAppName() string { return f.build.DistMacOsAppName }

// Build returns the resolved build context.
func (f *Framework) Build() Build { return f.build }

// MacOsDefaultTargets lists the default macOS installer targets.
func (f *Framework) MacOsDefaultTargets() []string { return []string{"zip", "dmg"} }

// DefaultAppIDPrefix prefixes generated application ids.
func (f *Framework) DefaultAppIDPrefix() string { return "com.electron." }

// IsCopyElevateHelper reports whether the Windows elevate helper ships with the app.
func (f *Framework) IsCopyElevateHelper() bool { return true }

// IsNpmRebuildRequired reports whether native modules need a rebuild against the runtime.
func (f *Framework) IsNpmRebuildRequired() bool { return true }

// DefaultIcon returns the bundled Linux icon set. Other platforms take the
// icon from the runtime skeleton and get "".
func (f *Framework) DefaultIcon(platform stage.Platform) string {
	if platform != stage.PlatformLinux {
		return ""
	}

	return filepath.Join(f.cfg.TemplatesDir, "icons", "electron-linux")
}

// NewPrepareContext builds the context of one target from the configuration.
func (f *Framework) NewPrepareContext(
	appOutDir string,
	platform stage.Platform,
	arch string,
	integrity stage.AsarIntegrity,
) *stage.PrepareContext {
	return &stage.PrepareContext{
		App:               f.cfg.App(),
		AppOutDir:         appOutDir,
		Platform:          platform,
		Arch:              arch,
		AsarIntegrity:     integrity,
		Version:           f.build.Version,
		ElectronLanguages: f.cfg.Languages(platform),
	}
}

// PrepareStage locks pc.AppOutDir, acquires the runtime, finalizes the stage
// and injects the alternate ffmpeg when configured.
func (f *Framework) PrepareStage(ctx context.Context, pc *stage.PrepareContext) (*StageReport, error) {
	ctx = logger.WithKV(ctx, "platform", pc.Platform.String(), "arch", pc.Arch)

	finalizer, err := f.finalizer(pc.Platform)
	if err != nil {
		return nil, err
	}

	lock, err := AcquireStageLock(ctx, pc.AppOutDir, f.alive)
	if err != nil {
		return nil, err
	}

	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			logger.WarnKV(ctx, "Cannot release stage lock", "error", releaseErr)
		}
	}()

	opts := f.downloadOptions(pc)

	outcome, err := f.acquirer.Acquire(ctx, pc, &opts, f.build.DistMacOsAppName)
	if err != nil {
		return nil, err
	}

	report := &StageReport{
		Outcome: outcome,
		Cleanup: Finalize(ctx, finalizer, pc, f.build.DistMacOsAppName, outcome),
	}

	if f.cfg.DownloadAlternateFFmpeg && outcome != stage.OutcomeDeferred {
		if f.injector == nil {
			return report, ErrNoCodecInjector
		}

		if err = f.injector.Inject(ctx, pc, opts.Version); err != nil {
			return report, fmt.Errorf("inject alternate ffmpeg: %w", err)
		}

		report.CodecInjected = true
	}

	logger.InfoKV(ctx, "Stage prepared", "out", pc.AppOutDir, "outcome", outcome.String())

	return report, nil
}

// BeforeCopyExtraFiles runs the platform hook: executable rename on Windows
// and Linux, bundle construction and locale pruning on macOS.
func (f *Framework) BeforeCopyExtraFiles(ctx context.Context, pc *stage.PrepareContext) (*HookReport, error) {
	finalizer, err := f.finalizer(pc.Platform)
	if err != nil {
		return nil, err
	}

	return finalizer.beforeCopyExtraFiles(logger.WithKV(ctx, "platform", pc.Platform.String()), pc)
}

func (f *Framework) finalizer(platform stage.Platform) (StageFinalizer, error) {
	return NewStageFinalizer(platform, &f.build, f.bundler, f.acquirer.IsRemoteBuildDeferred(platform))
}

// downloadOptions merges electron_download under the target's platform, arch and version.
func (f *Framework) downloadOptions(pc *stage.PrepareContext) stage.DownloadOptions {
	version := pc.Version
	if version == "" {
		version = f.build.Version
	}

	opts := stage.DownloadOptions{
		Platform: pc.Platform,
		Arch:     pc.Arch,
		Version:  version,
	}

	if d := f.cfg.ElectronDownload; d != nil {
		opts.Cache = d.Cache
		opts.Mirror = d.Mirror
		opts.CustomDir = d.CustomDir
		opts.CustomFilename = d.CustomFilename
		opts.StrictSSL = d.StrictSSL
		opts.IsVerifyChecksum = d.IsVerifyChecksum
	}

	return opts
}
