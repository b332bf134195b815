package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/electron-stager/internal/service/stager"
)

// runHook also runs the pre-extra-files hook after preparation.
var runHook bool

// prepareCmd prepares one stage directory per target.
var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Prepare stage directories for the selected targets.",
	Long: `Resolves the Electron version, acquires the runtime for every target and
cleans the stage. Targets run in parallel, a summary is printed as YAML.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext()
		defer stop()

		opts, err := targetOptions()
		if err != nil {
			return err
		}

		opts.RunHook = runHook

		results, err := stager.Prepare(ctx, opts)
		if results != nil {
			if summaryErr := stager.WriteSummary(cmd.OutOrStdout(), results); summaryErr != nil && err == nil {
				err = summaryErr
			}
		}

		return err
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	addTargetFlags(prepareCmd)
	prepareCmd.Flags().BoolVar(&runHook, "hook", false, "run the pre-extra-files hook after preparation")
	rootCmd.AddCommand(prepareCmd)
}
