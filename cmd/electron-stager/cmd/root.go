package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/electron-stager/internal/config"
	"github.com/oshokin/electron-stager/internal/domain/stage"
	"github.com/oshokin/electron-stager/internal/logger"
	"github.com/oshokin/electron-stager/internal/service/stager"
	"github.com/oshokin/electron-stager/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides log_level from the configuration.
	logLevel string
	// logFile is a strftime pattern for rotated log files.
	logFile string
	// logFileCloser flushes the rotated log file on exit.
	logFileCloser io.Closer
	// outDir holds the stage directories.
	outDir string
	// platforms lists the target platforms.
	platforms []string
	// arch is the target architecture.
	arch string

	// rootCmd represents the base command.
	rootCmd = &cobra.Command{
		Use:   "electron-stager",
		Short: "Prepare Electron application stage directories.",
		Long: `Turns an Electron runtime distribution into a branded stage directory per target platform.

The runtime is either unpacked by a worker (an external binary, the built-in
archive extractor or a remote gRPC worker) or copied from a local dist.
Platform renames and locale pruning run in the pre-extra-files hook.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if logFile != "" {
				closer, err := logger.AttachFile(logFile)
				if err != nil {
					return err
				}

				logFileCloser = closer
			}

			if logLevel == "" {
				return nil
			}

			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				logger.Warnf(context.Background(), "Unknown log level %q, using info", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}
)

// Execute runs the electron-stager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	err := rootCmd.Execute()

	if logFileCloser != nil {
		_ = logFileCloser.Close()
	}

	if err != nil {
		os.Exit(1)
	}
}

// signalContext is canceled on SIGTERM or SIGINT.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

// targetOptions collects the flags shared by prepare and hook.
func targetOptions() (*stager.Options, error) {
	parsed := make([]stage.Platform, 0, len(platforms))

	for _, value := range platforms {
		platform, err := stage.ParsePlatform(value)
		if err != nil {
			return nil, err
		}

		parsed = append(parsed, platform)
	}

	return &stager.Options{
		ConfigPath: configPath,
		OutDir:     outDir,
		Platforms:  parsed,
		Arch:       arch,
		LogLevel:   logLevel,
	}, nil
}

// addTargetFlags registers the target selection flags on c.
func addTargetFlags(c *cobra.Command) {
	c.Flags().StringVarP(&outDir, "out", "o", stager.DefaultOutDir, "directory holding the stage directories")
	c.Flags().StringSliceVarP(&platforms, "platform", "p", nil, "target platforms (darwin, mas, linux, win32), defaults to the host")
	c.Flags().StringVarP(&arch, "arch", "a", "", "target arch (x64, ia32, arm64, armv7l, universal), defaults to the host")
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also log to hourly rotated files, e.g. electron-stager-%Y%m%d%H.log")
}
