package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/electron-stager/internal/service/stager"
)

// hookCmd runs the pre-extra-files hook on prepared stages.
var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Run the pre-extra-files hook on prepared stage directories.",
	Long: `Renames the executable on Windows and Linux. On macOS builds the app bundle
and prunes locales outside the configured allow-list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext()
		defer stop()

		opts, err := targetOptions()
		if err != nil {
			return err
		}

		results, err := stager.Hook(ctx, opts)
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
	addTargetFlags(hookCmd)
	rootCmd.AddCommand(hookCmd)
}
