package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pagemill/pagemill/internal/pipeline"
	"github.com/pagemill/pagemill/internal/scan/raster"
	"github.com/pagemill/pagemill/internal/scan/tess"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the processing pipeline",
		Long: `Start the reactive pipeline: page watchers, the OCR coordinator, the
export coordinator and the artifact garbage collector. The process keeps
running until interrupted; queued work is resumed from the database on
startup.

Example:
  pagemill run --dir ~/scans
  pagemill run --dir ~/scans --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(rootOpts, cmd)
		},
	}
	return cmd
}

func runPipeline(opts *RootOptions, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	e, err := openEnv(opts)
	if err != nil {
		return err
	}
	defer e.close()

	p := pipeline.New(e.store, e.files, raster.New(), tess.New(), e.pipelineOptions())

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		for event := range drainEvents(ctx, p) {
			slog.Info("export finished",
				"format", event.Format, "files", len(event.Paths))
		}
	}()

	if err := p.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "pipeline stopped", err)
	}
	return nil
}

// drainEvents adapts the pipeline's event channel to a range loop that ends
// with the context.
func drainEvents(ctx context.Context, p *pipeline.Pipeline) <-chan pipeline.ExportEvent {
	out := make(chan pipeline.ExportEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-p.Events():
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
