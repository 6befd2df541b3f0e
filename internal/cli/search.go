package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/llehouerou/folio/internal/errmsg"
)

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "Find books whose title starts with the given words",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			title := strings.Join(args, " ")
			size := a.cfg.GetCatalogConfig().PageSize
			books, err := a.catalog.Search(cmd.Context(), title, pageOffset(page, size), size)
			if err != nil {
				return failed(errmsg.OpCatalogSearch, title, err)
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		}),
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "result page")
	return cmd
}

func newFeaturedCommand(opts *rootOptions) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "featured",
		Short: "List books from the catalog front page",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			size := a.cfg.GetCatalogConfig().PageSize
			books, err := a.catalog.Featured(cmd.Context(), pageOffset(page, size), size)
			if err != nil {
				return failed(errmsg.OpCatalogFeatured, "", err)
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		}),
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "result page")
	return cmd
}

func pageOffset(page, size int) int {
	return max(page-1, 0) * size
}
