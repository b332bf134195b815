package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/electron-stager/internal/config"
	"github.com/oshokin/electron-stager/internal/service/stager"
)

// serveOptions are bound to the serve flags.
var serveOptions stager.ServeOptions

// serveCmd exposes a local unpack worker over gRPC.
var serveCmd = &cobra.Command{
	Use:   "serve [listen-address]",
	Short: "Serve a local unpack worker over gRPC.",
	Long: `Starts a gRPC unpack worker for stagers configured with worker kind "grpc".

The served worker extracts cached release archives in-process (kind "archive")
or runs an external worker binary (kind "command").

Without a listen address it binds 127.0.0.1:7410. Pass ":7410" or a host
address to accept remote stagers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signalContext()
		defer stop()

		opts := serveOptions
		if len(args) > 0 {
			opts.ListenAddress = args[0]
		}

		return stager.Serve(ctx, &opts)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	serveCmd.Flags().StringVar(&serveOptions.Kind, "worker", config.WorkerArchive, "served worker kind (archive, command)")
	serveCmd.Flags().StringVar(&serveOptions.Executable, "executable", config.DefaultWorkerExecutable, "worker binary for the command kind")
	serveCmd.Flags().StringVar(&serveOptions.CacheDir, "cache", "", "archive cache directory, defaults to the user cache")
	serveCmd.Flags().DurationVar(&serveOptions.Timeout, "timeout", config.DefaultWorkerTimeout, "timeout of one command worker run")
	rootCmd.AddCommand(serveCmd)
}
