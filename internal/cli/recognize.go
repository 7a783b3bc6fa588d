package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pagemill/pagemill/internal/scan"
)

// RecognizeOptions holds flags for the recognize command.
type RecognizeOptions struct {
	*RootOptions
	Languages string
	Clear     bool
	Cancel    bool
	Modify    string
	Show      bool
	Progress  bool
}

// NewRecognizeCommand creates the recognize command.
func NewRecognizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecognizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recognize <page-id>...",
		Short: "Manage OCR text for pages",
		Long: `Queue OCR jobs on pages. The actual recognition runs inside a running
pipeline once the page reaches the Complete stage; requesting again
before that supersedes the previous request.

Example:
  pagemill recognize 3
  pagemill recognize 3 --languages eng,deu
  pagemill recognize 3 --modify "corrected text"
  pagemill recognize 3 --show`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecognize(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Languages, "languages", "", "comma-separated OCR languages (default from config)")
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "wipe the stored text")
	cmd.Flags().BoolVar(&opts.Cancel, "cancel", false, "cancel the outstanding job")
	cmd.Flags().StringVar(&opts.Modify, "modify", "", "replace the modified text")
	cmd.Flags().BoolVar(&opts.Show, "show", false, "print the stored text")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "print recognition progress")
	return cmd
}

func runRecognize(opts *RecognizeOptions, cmd *cobra.Command, args []string) error {
	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.close()

	ids, err := parsePageIDs(args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := formatter(opts.RootOptions, cmd.OutOrStdout())

	switch {
	case opts.Show:
		for _, id := range ids {
			text, ok, err := e.store.TextFor(ctx, id)
			if err != nil {
				return WrapExitError(ExitFailure, "read text", err)
			}
			if !ok || !text.Modified.Ready() {
				return NewExitError(ExitFailure, fmt.Sprintf("page %d has no text", id))
			}
			if err := out.Success(string(text.Modified)); err != nil {
				return err
			}
		}
		return nil

	case opts.Progress:
		for _, id := range ids {
			tel, err := e.store.TelemetryFor(ctx, id)
			if err != nil {
				return WrapExitError(ExitFailure, "read telemetry", err)
			}
			if opts.Format == "json" {
				if err := out.Success(map[string]any{"page_id": id, "progress": tel.Progress}); err != nil {
					return err
				}
				continue
			}
			state := "idle"
			if tel.Progress >= 0 {
				state = fmt.Sprintf("%d%%", tel.Progress)
			}
			if err := out.Success(fmt.Sprintf("page %d: %s", id, state)); err != nil {
				return err
			}
		}
		return nil
	}

	job := scan.JobRecognize
	modified := scan.Text("")
	switch {
	case opts.Clear:
		job = scan.JobClear
	case opts.Cancel:
		job = scan.JobCancel
	case opts.Modify != "":
		job = scan.JobModify
		modified = scan.Text(opts.Modify)
	}

	for _, id := range ids {
		if err := e.store.StartRecognition(ctx, id, job, opts.Languages, modified); err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("page %d", id), err)
		}
	}
	return out.Success(fmt.Sprintf("queued %v for %d page(s)", job, len(ids)))
}
