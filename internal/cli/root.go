// Package cli wires the document pipeline into a cobra command tree. The
// long-running `run` command hosts the watchers; every other command is a
// one-shot store edit that a concurrently running `run` process picks up
// through its poll ticker.
package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Dir     string // data directory
	Config  string // config file, defaults to <dir>/pagemill.yaml
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the pagemill CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pagemill",
		Short: "pagemill - document scan pipeline",
		Long: `A reactive pipeline that turns scanned source images into refined,
paper-sized pages with optional OCR text, and exports them as PNG, TIFF,
PDF or plain text.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					"invalid format "+opts.Format+": must be one of text, json")
			}
			if opts.Config == "" {
				opts.Config = filepath.Join(opts.Dir, "pagemill.yaml")
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", ".", "data directory")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default <dir>/pagemill.yaml)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewMoveCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewRecognizeCommand(opts))
	cmd.AddCommand(NewShareCommand(opts))
	cmd.AddCommand(NewGCCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
