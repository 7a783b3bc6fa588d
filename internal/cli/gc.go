package cli

import (
	"github.com/spf13/cobra"

	"github.com/pagemill/pagemill/internal/pipeline"
	"github.com/pagemill/pagemill/internal/scan/raster"
)

// NewGCCommand creates the gc command.
func NewGCCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Collect unreferenced artifacts now",
		Long: `Run one garbage collection pass: delete orphaned export sessions,
unreferenced file records and stray artifacts on disk. A running
pipeline does this periodically on its own.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(rootOpts.Verbose)

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.close()

			p := pipeline.New(e.store, e.files, raster.New(), nil, e.pipelineOptions())
			if err := p.CollectGarbage(cmd.Context()); err != nil {
				return WrapExitError(ExitFailure, "collect garbage", err)
			}
			return formatter(rootOpts, cmd.OutOrStdout()).Success("garbage collected")
		},
	}
	return cmd
}
