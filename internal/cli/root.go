// Package cli implements the folio command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llehouerou/folio/internal/stderr"
)

type rootOptions struct {
	configPath string
	dbPath     string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "folio",
		Short:         "Listen to LibriVox audiobooks from the terminal",
		Long:          "folio browses the LibriVox catalog, plays public-domain audiobooks and remembers where you stopped.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "read configuration from this file only")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "library database path")

	root.AddCommand(
		newSearchCommand(opts),
		newFeaturedCommand(opts),
		newLibraryCommand(opts),
		newPlayCommand(opts),
		newDownloadCommand(opts),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		stderr.WriteOriginal(fmt.Sprintf("folio: %s\n", strings.TrimSpace(err.Error())))
		os.Exit(1)
	}
}

func withApp(opts *rootOptions, fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}
