package stager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/electron-stager/internal/config"
	"github.com/oshokin/electron-stager/internal/domain/stage"
	"github.com/oshokin/electron-stager/internal/logger"
	"github.com/oshokin/electron-stager/internal/service/electron"
)

// DefaultOutDir is where stage directories are created unless overridden.
const DefaultOutDir = "dist"

// Options selects the targets of a Prepare or Hook run.
type Options struct {
	// ConfigPath is the path to the YAML configuration.
	ConfigPath string
	// OutDir holds one <platform>-<arch>-unpacked directory per target.
	OutDir string
	// Platforms lists the targets; empty means the host platform.
	Platforms []stage.Platform
	// Arch is an Electron arch name; empty means the host arch.
	Arch string
	// RunHook runs the pre-extra-files hook right after preparation.
	RunHook bool
	// LogLevel overrides the configured log level when set.
	LogLevel string
}

// TargetResult is what happened to one target.
type TargetResult struct {
	Platform  stage.Platform
	Arch      string
	AppOutDir string
	Stage     *electron.StageReport
	Hook      *electron.HookReport
	Err       error
}

var errUnsupportedHost = errors.New("host platform is not a build target")

// Prepare prepares a stage directory per target. Targets run in parallel and
// one failing target does not stop the others; their errors are joined.
func Prepare(ctx context.Context, opts *Options) ([]TargetResult, error) {
	ctx = logger.WithName(ctx, "prepare")

	return run(ctx, opts, func(ctx context.Context, f *electron.Framework, result *TargetResult) error {
		pc := f.NewPrepareContext(result.AppOutDir, result.Platform, result.Arch, nil)

		report, err := f.PrepareStage(ctx, pc)
		result.Stage = report

		if err != nil || !opts.RunHook {
			return err
		}

		result.Hook, err = f.BeforeCopyExtraFiles(ctx, pc)

		return err
	})
}

// Hook runs the pre-extra-files hook on stage directories prepared earlier.
func Hook(ctx context.Context, opts *Options) ([]TargetResult, error) {
	ctx = logger.WithName(ctx, "hook")

	return run(ctx, opts, func(ctx context.Context, f *electron.Framework, result *TargetResult) error {
		pc := f.NewPrepareContext(result.AppOutDir, result.Platform, result.Arch, nil)

		var err error

		result.Hook, err = f.BeforeCopyExtraFiles(ctx, pc)

		return err
	})
}

type targetFunc func(ctx context.Context, f *electron.Framework, result *TargetResult) error

func run(ctx context.Context, opts *Options, fn targetFunc) ([]TargetResult, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	applyLogLevel(ctx, opts.LogLevel, cfg.LogLevel)

	targets, err := resolveTargets(opts)
	if err != nil {
		return nil, err
	}

	unpacker, closeUnpacker, err := NewUnpacker(ctx, cfg.Worker)
	if err != nil {
		return nil, fmt.Errorf("create %s worker: %w", cfg.Worker.Kind, err)
	}

	defer func() {
		if closeErr := closeUnpacker(); closeErr != nil {
			logger.WarnKV(ctx, "Cannot close unpack worker", "error", closeErr)
		}
	}()

	framework, err := electron.New(ctx, cfg, electron.Options{Unpacker: unpacker})
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Electron build resolved",
		"version", framework.Version(), "project", framework.Branding().ProjectName, "targets", len(targets))

	var (
		group errgroup.Group
		mu    sync.Mutex
		errs  []error
	)

	for i := range targets {
		result := &targets[i]

		group.Go(func() error {
			targetCtx := logger.WithKV(ctx, "out", result.AppOutDir)

			if result.Err = fn(targetCtx, framework, result); result.Err != nil {
				logger.ErrorKV(targetCtx, "Target failed", "platform", result.Platform.String(), "error", result.Err)

				mu.Lock()
				errs = append(errs, fmt.Errorf("%s-%s: %w", result.Platform, result.Arch, result.Err))
				mu.Unlock()
			}

			return nil
		})
	}

	_ = group.Wait()

	return targets, errors.Join(errs...)
}

// resolveTargets fills platform and arch defaults and the stage directories.
func resolveTargets(opts *Options) ([]TargetResult, error) {
	platforms := opts.Platforms
	if len(platforms) == 0 {
		host, err := stage.ParsePlatform(runtime.GOOS)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errUnsupportedHost, err)
		}

		platforms = []stage.Platform{host}
	}

	arch := opts.Arch
	if arch == "" {
		arch = runtime.GOARCH
	}

	arch, err := stage.ParseArch(arch)
	if err != nil {
		return nil, err
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = DefaultOutDir
	}

	targets := make([]TargetResult, 0, len(platforms))
	seen := make(map[stage.Platform]struct{}, len(platforms))

	for _, platform := range platforms {
		if !platform.Valid() {
			return nil, fmt.Errorf("%w: %q", stage.ErrUnsupportedPlatform, platform)
		}

		if _, ok := seen[platform]; ok {
			continue
		}

		seen[platform] = struct{}{}

		targets = append(targets, TargetResult{
			Platform:  platform,
			Arch:      arch,
			AppOutDir: AppOutDir(outDir, platform, arch),
		})
	}

	return targets, nil
}

// AppOutDir returns <outDir>/<platform>-<arch>-unpacked.
func AppOutDir(outDir string, platform stage.Platform, arch string) string {
	return filepath.Join(outDir, fmt.Sprintf("%s-%s-unpacked", platform, arch))
}

// applyLogLevel prefers the flag value over the configured one.
func applyLogLevel(ctx context.Context, override, configured string) {
	value := override
	if value == "" {
		value = configured
	}

	if value == "" {
		return
	}

	level, ok := logger.ParseLogLevel(value)
	if !ok {
		logger.WarnKV(ctx, "Unknown log level, using info", "level", value)
	}

	logger.SetLevel(level)
}

// summary is the YAML shape of a run report.
type summary struct {
	Platform      string          `yaml:"platform"`
	Arch          string          `yaml:"arch"`
	Out           string          `yaml:"out"`
	Outcome       string          `yaml:"outcome,omitempty"`
	CodecInjected bool            `yaml:"codec_injected,omitempty"`
	Cleanup       []actionSummary `yaml:"cleanup,omitempty"`
	Hook          *hookSummary    `yaml:"hook,omitempty"`
	Error         string          `yaml:"error,omitempty"`
}

type actionSummary struct {
	Action string `yaml:"action"`
	Path   string `yaml:"path"`
	Status string `yaml:"status"`
	Error  string `yaml:"error,omitempty"`
}

type hookSummary struct {
	Rename         *actionSummary  `yaml:"rename,omitempty"`
	Deferred       bool            `yaml:"deferred,omitempty"`
	RemovedLocales []string        `yaml:"removed_locales,omitempty"`
	KeptLocales    []string        `yaml:"kept_locales,omitempty"`
	FailedLocales  []actionSummary `yaml:"failed_locales,omitempty"`
}

// WriteSummary writes results to w as YAML.
func WriteSummary(w io.Writer, results []TargetResult) error {
	out := make([]summary, 0, len(results))

	for _, result := range results {
		s := summary{
			Platform: result.Platform.String(),
			Arch:     result.Arch,
			Out:      result.AppOutDir,
		}

		if result.Stage != nil {
			s.Outcome = result.Stage.Outcome.String()
			s.CodecInjected = result.Stage.CodecInjected
			s.Cleanup = summarizeActions(result.Stage.Cleanup)
		}

		if result.Hook != nil {
			s.Hook = summarizeHook(result.Hook)
		}

		if result.Err != nil {
			s.Error = result.Err.Error()
		}

		out = append(out, s)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	return encoder.Close()
}

func summarizeHook(hook *electron.HookReport) *hookSummary {
	s := &hookSummary{Deferred: hook.Deferred}

	if hook.Rename != nil {
		rename := summarizeAction(*hook.Rename)
		s.Rename = &rename
	}

	if hook.Locales != nil {
		s.RemovedLocales = hook.Locales.Removed
		s.KeptLocales = hook.Locales.Kept
		s.FailedLocales = summarizeActions(hook.Locales.Failed)
	}

	return s
}

func summarizeActions(results []stage.CleanupResult) []actionSummary {
	if len(results) == 0 {
		return nil
	}

	out := make([]actionSummary, 0, len(results))
	for _, r := range results {
		out = append(out, summarizeAction(r))
	}

	return out
}

func summarizeAction(r stage.CleanupResult) actionSummary {
	s := actionSummary{
		Action: r.Action,
		Path:   r.Path,
		Status: r.Status.String(),
	}

	if r.Err != nil {
		s.Error = r.Err.Error()
	}

	return s
}
