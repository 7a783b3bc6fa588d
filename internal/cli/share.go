package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pagemill/pagemill/internal/scan"
)

// ShareOptions holds flags for the share command.
type ShareOptions struct {
	*RootOptions
	FormatName string
	Checked    string
}

// NewShareCommand creates the share command.
func NewShareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "share <page-id>...",
		Short: "Queue pages for export",
		Long: `Create an export session over the given pages. A running pipeline writes
the files into the share directory as soon as every page is rendered
and, for text exports, recognized. Text exports automatically queue
recognition on pages that have none yet.

Example:
  pagemill share --as pdf 1 2 3
  pagemill share --as text --checked export`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShare(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.FormatName, "as", "png", "export format (png|tiff|pdf|text)")
	cmd.Flags().StringVar(&opts.Checked, "checked", "", "export the pages checked in this view")
	return cmd
}

func runShare(opts *ShareOptions, cmd *cobra.Command, args []string) error {
	format, err := scan.ParseShareFormat(opts.FormatName)
	if err != nil {
		return WrapExitError(ExitCommandError, "format", err)
	}

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()

	var ids []int64
	switch {
	case opts.Checked != "":
		if len(args) > 0 {
			return NewExitError(ExitCommandError, "--checked and explicit page ids are mutually exclusive")
		}
		if ids, err = e.store.CheckedPages(ctx, opts.Checked); err != nil {
			return WrapExitError(ExitFailure, "checked pages", err)
		}
	default:
		if ids, err = parsePageIDs(args); err != nil {
			return err
		}
	}
	if len(ids) == 0 {
		return NewExitError(ExitCommandError, "no pages to share")
	}

	// Text exports need text; queue recognition for pages lacking it.
	if format == scan.ShareText {
		for _, id := range ids {
			text, ok, err := e.store.TextFor(ctx, id)
			if err != nil {
				return WrapExitError(ExitFailure, "read text", err)
			}
			hasText := ok && text.Original.Ready()
			if err := e.store.EnsureRecognition(ctx, id, hasText); err != nil {
				return WrapExitError(ExitFailure, fmt.Sprintf("page %d", id), err)
			}
		}
	}

	sessionID, err := e.store.CreateShareSession(ctx, format, ids...)
	if err != nil {
		return WrapExitError(ExitFailure, "create share session", err)
	}

	out := formatter(opts.RootOptions, cmd.OutOrStdout())
	if opts.Format == "json" {
		return out.Success(map[string]any{"session_id": sessionID, "format": format.String(), "pages": len(ids)})
	}
	return out.Success(fmt.Sprintf("queued session %d: %d page(s) as %v", sessionID, len(ids), format))
}
