package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Off    bool
	All    bool
	List   bool
	Delete bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <view> [page-id]...",
		Short: "Manage per-view page selections",
		Long: `Mark pages as checked within a named view. Each view keeps its own
independent selection; checked pages can be listed or deleted in one
batch.

Example:
  pagemill check export 1 2 5
  pagemill check export --list
  pagemill check cleanup --all
  pagemill check cleanup --delete`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd, args[0], args[1:])
		},
	}

	cmd.Flags().BoolVar(&opts.Off, "off", false, "uncheck instead of check")
	cmd.Flags().BoolVar(&opts.All, "all", false, "apply to every page")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list checked page ids")
	cmd.Flags().BoolVar(&opts.Delete, "delete", false, "delete the checked pages")
	return cmd
}

func runCheck(opts *CheckOptions, cmd *cobra.Command, view string, args []string) error {
	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	out := formatter(opts.RootOptions, cmd.OutOrStdout())

	switch {
	case opts.List:
		ids, err := e.store.CheckedPages(ctx, view)
		if err != nil {
			return WrapExitError(ExitFailure, "list checked pages", err)
		}
		if opts.Format == "json" {
			return out.Success(map[string]any{"view": view, "page_ids": ids})
		}
		return out.Success(joinIDs(ids))

	case opts.Delete:
		ids, err := e.store.CheckedPages(ctx, view)
		if err != nil {
			return WrapExitError(ExitFailure, "list checked pages", err)
		}
		if err := e.store.DeleteCheckedPages(ctx, view); err != nil {
			return WrapExitError(ExitFailure, "delete checked pages", err)
		}
		return out.Success(fmt.Sprintf("deleted %d checked page(s)", len(ids)))

	case opts.All:
		if err := e.store.CheckAllPages(ctx, view, !opts.Off); err != nil {
			return WrapExitError(ExitFailure, "check pages", err)
		}
		return out.Success(fmt.Sprintf("view %s: all pages set to checked=%v", view, !opts.Off))

	default:
		if len(args) == 0 {
			return NewExitError(ExitCommandError, "no page ids given")
		}
		ids, err := parsePageIDs(args)
		if err != nil {
			return err
		}
		if err := e.store.CheckPages(ctx, view, !opts.Off, ids...); err != nil {
			return WrapExitError(ExitFailure, "check pages", err)
		}
		return out.Success(fmt.Sprintf("view %s: %d page(s) set to checked=%v", view, len(ids), !opts.Off))
	}
}
