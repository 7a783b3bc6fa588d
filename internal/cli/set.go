package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pagemill/pagemill/internal/scan"
)

// SetOptions holds flags for the set command.
type SetOptions struct {
	*RootOptions
	Profile      string
	Shadows      string // "on" | "off"
	Paper        string
	PaperOrient  string
	Rotate       string // "cw" | "ccw"
	AutoOrient   string // "on" | "off"
	Cutout       string // "x0,y0,x1,y1" in unit coordinates
	ExpandCutout bool
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <page-id>...",
		Short: "Change page processing parameters",
		Long: `Change processing parameters on one or more pages. Each edit regresses
the page just far enough for a running pipeline to redo the affected
work: cutout edits reprocess from the decoded input, profile and shadow
edits re-refine, paper and rotation edits only re-render the output.

Example:
  pagemill set 3 --profile Bitonal
  pagemill set 3 4 --paper Letter --paper-orientation Landscape
  pagemill set 7 --cutout 0.1,0.05,0.9,0.95
  pagemill set 7 --rotate cw`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setParameters(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Profile, "profile", "", "color profile (Original|Bitonal|Monochrome|Colored)")
	cmd.Flags().StringVar(&opts.Shadows, "shadows", "", "strong shadow removal (on|off)")
	cmd.Flags().StringVar(&opts.Paper, "paper", "", "paper size (A4, Letter, ...)")
	cmd.Flags().StringVar(&opts.PaperOrient, "paper-orientation", "", "paper orientation (Auto|Portrait|Landscape)")
	cmd.Flags().StringVar(&opts.Rotate, "rotate", "", "rotate the page (cw|ccw)")
	cmd.Flags().StringVar(&opts.AutoOrient, "auto-orient", "", "text orientation detection (on|off)")
	cmd.Flags().StringVar(&opts.Cutout, "cutout", "", "manual cutout as x0,y0,x1,y1 unit coordinates")
	cmd.Flags().BoolVar(&opts.ExpandCutout, "expand-cutout", false, "grow the detected cutout")
	return cmd
}

func setParameters(opts *SetOptions, cmd *cobra.Command, args []string) error {
	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.close()

	ids, err := parsePageIDs(args)
	if err != nil {
		return err
	}

	edits, err := buildEdits(opts)
	if err != nil {
		return err
	}
	if len(edits) == 0 {
		return NewExitError(ExitCommandError, "no parameter flag given")
	}

	ctx := cmd.Context()
	for _, id := range ids {
		for _, edit := range edits {
			if err := edit(ctx, e, id); err != nil {
				return WrapExitError(ExitFailure, fmt.Sprintf("page %d", id), err)
			}
		}
	}
	return formatter(opts.RootOptions, cmd.OutOrStdout()).
		Success(fmt.Sprintf("updated %d page(s)", len(ids)))
}

type pageEdit func(ctx context.Context, e *env, id int64) error

func buildEdits(opts *SetOptions) ([]pageEdit, error) {
	var edits []pageEdit

	if opts.Profile != "" {
		profile, err := scan.ParseColorProfile(opts.Profile)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "profile", err)
		}
		edits = append(edits, func(ctx context.Context, e *env, id int64) error {
			return e.store.SetProfile(ctx, id, profile)
		})
	}
	if opts.Shadows != "" {
		strong, err := parseToggle(opts.Shadows)
		if err != nil {
			return nil, err
		}
		edits = append(edits, func(ctx context.Context, e *env, id int64) error {
			return e.store.SetShadows(ctx, id, strong)
		})
	}
	if opts.Paper != "" || opts.PaperOrient != "" {
		if opts.Paper == "" || opts.PaperOrient == "" {
			return nil, NewExitError(ExitCommandError,
				"--paper and --paper-orientation must be given together")
		}
		size, err := scan.ParsePaperSize(opts.Paper)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "paper", err)
		}
		orient, err := scan.ParsePaperOrientation(opts.PaperOrient)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "paper orientation", err)
		}
		edits = append(edits, func(ctx context.Context, e *env, id int64) error {
			return e.store.SetPaper(ctx, id, scan.PredefinedPaper(size), orient)
		})
	}
	if opts.Rotate != "" {
		if opts.Rotate != "cw" && opts.Rotate != "ccw" {
			return nil, NewExitError(ExitCommandError, "rotate must be cw or ccw")
		}
		clockwise := opts.Rotate == "cw"
		edits = append(edits, func(ctx context.Context, e *env, id int64) error {
			page, err := e.store.Page(ctx, id)
			if err != nil {
				return err
			}
			next := page.Orientation.RotateCW()
			if !clockwise {
				next = page.Orientation.RotateCCW()
			}
			return e.store.SetOrientation(ctx, id, next)
		})
	}
	if opts.AutoOrient != "" {
		enabled, err := parseToggle(opts.AutoOrient)
		if err != nil {
			return nil, err
		}
		edits = append(edits, func(ctx context.Context, e *env, id int64) error {
			return e.store.SetAutoOrient(ctx, id, enabled)
		})
	}
	if opts.Cutout != "" {
		cut, err := parseCutout(opts.Cutout)
		if err != nil {
			return nil, err
		}
		edits = append(edits, func(ctx context.Context, e *env, id int64) error {
			return e.store.SetCutout(ctx, id, cut)
		})
	}
	if opts.ExpandCutout {
		edits = append(edits, func(ctx context.Context, e *env, id int64) error {
			return e.store.ExpandCutout(ctx, id)
		})
	}
	return edits, nil
}

func parseToggle(value string) (bool, error) {
	switch value {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, NewExitError(ExitCommandError,
			fmt.Sprintf("expected on or off, got %q", value))
	}
}

func parseCutout(value string) (scan.Cutout, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return scan.Cutout{}, NewExitError(ExitCommandError,
			"cutout must be four comma-separated unit coordinates")
	}
	coords := make([]float64, 4)
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || f < 0 || f > 1 {
			return scan.Cutout{}, NewExitError(ExitCommandError,
				fmt.Sprintf("invalid cutout coordinate %q", part))
		}
		coords[i] = f
	}
	if coords[0] >= coords[2] || coords[1] >= coords[3] {
		return scan.Cutout{}, NewExitError(ExitCommandError, "cutout is empty")
	}
	return scan.Cutout{
		X0: coords[0], Y0: coords[1],
		X1: coords[2], Y1: coords[3],
		Defined: true,
	}, nil
}
