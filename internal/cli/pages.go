package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pagemill/pagemill/internal/store"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	After  int64
	Before int64
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <image-file>...",
		Short: "Queue source images as new pages",
		Long: `Insert one page per source image. Pages start in the Initial stage and
are decoded by a running pipeline. Without an anchor flag the pages are
appended at the end of the document.

Example:
  pagemill add scan1.png scan2.jpg
  pagemill add --after 3 insert.png`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return addPages(opts, cmd, args)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "insert after this page id")
	cmd.Flags().Int64Var(&opts.Before, "before", 0, "insert before this page id")
	return cmd
}

func addPages(opts *AddOptions, cmd *cobra.Command, args []string) error {
	if opts.After != 0 && opts.Before != 0 {
		return NewExitError(ExitCommandError, "--after and --before are mutually exclusive")
	}

	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.close()

	sources := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return WrapExitError(ExitCommandError, "resolve source path", err)
		}
		sources = append(sources, abs)
	}

	defaults, err := e.cfg.PageDefaults()
	if err != nil {
		return WrapExitError(ExitCommandError, "page defaults", err)
	}

	anchor, after := opts.After, true
	if opts.Before != 0 {
		anchor, after = opts.Before, false
	}
	ids, err := e.store.InsertPages(cmd.Context(), sources, anchor, after, defaults)
	if err != nil {
		return WrapExitError(ExitFailure, "insert pages", err)
	}

	out := formatter(opts.RootOptions, cmd.OutOrStdout())
	if opts.Format == "json" {
		return out.Success(map[string]any{"page_ids": ids})
	}
	return out.Success(fmt.Sprintf("added %d page(s): %s", len(ids), joinIDs(ids)))
}

// pageView is the list entry shape shared by text and JSON output.
type pageView struct {
	ID          int64  `json:"id"`
	Order       int    `json:"order"`
	Status      string `json:"status"`
	Paper       string `json:"paper"`
	Orientation string `json:"orientation"`
	Profile     string `json:"profile"`
	Recognition string `json:"recognition"`
	Error       string `json:"error,omitempty"`
}

func viewOf(p store.PageRow) pageView {
	task := p.Task()
	rec := "none"
	switch {
	case task.Pending():
		rec = "pending"
	case task.Ready():
		rec = "ready"
	}
	return pageView{
		ID:          p.ID,
		Order:       p.OrderIndex,
		Status:      p.Status.String(),
		Paper:       p.Paper().String(),
		Orientation: p.Orientation.String(),
		Profile:     p.Profile.String(),
		Recognition: rec,
		Error:       p.ErrorMessage,
	}
}

// NewListCommand creates the ls command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ls",
		Short:         "List pages in document order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPages(rootOpts, cmd)
		},
	}
	return cmd
}

func listPages(opts *RootOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts)
	if err != nil {
		return err
	}
	defer e.close()

	pages, err := e.store.Pages(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "list pages", err)
	}

	views := make([]pageView, 0, len(pages))
	for _, p := range pages {
		views = append(views, viewOf(p))
	}

	out := formatter(opts, cmd.OutOrStdout())
	if opts.Format == "json" {
		return out.Success(views)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-6s %-5s %-9s %-14s %-10s %-11s %s\n",
		"ID", "ORDER", "STATUS", "PAPER", "PROFILE", "RECOGNIZED", "ERROR")
	for _, v := range views {
		fmt.Fprintf(w, "%-6d %-5d %-9s %-14s %-10s %-11s %s\n",
			v.ID, v.Order, v.Status, v.Paper, v.Profile, v.Recognition, v.Error)
	}
	return nil
}

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rm <page-id>...",
		Short:         "Delete pages",
		Long:          "Delete pages and queue their artifacts for garbage collection.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.close()

			ids, err := parsePageIDs(args)
			if err != nil {
				return err
			}
			if err := e.store.DeletePages(cmd.Context(), ids...); err != nil {
				return WrapExitError(ExitFailure, "delete pages", err)
			}
			return formatter(rootOpts, cmd.OutOrStdout()).
				Success(fmt.Sprintf("deleted %d page(s)", len(ids)))
		},
	}
	return cmd
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <page-id> <target-page-id>",
		Short: "Move a page to another page's position",
		Long: `Reorder the document by moving one page to the position currently held
by the target page.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.close()

			ids, err := parsePageIDs(args)
			if err != nil {
				return err
			}
			if err := e.store.MovePage(cmd.Context(), ids[0], ids[1]); err != nil {
				return WrapExitError(ExitFailure, "move page", err)
			}
			return formatter(rootOpts, cmd.OutOrStdout()).
				Success(fmt.Sprintf("moved page %d to position of page %d", ids[0], ids[1]))
		},
	}
	return cmd
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
