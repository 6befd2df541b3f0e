package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/llehouerou/folio/internal/downloads"
	"github.com/llehouerou/folio/internal/errmsg"
	"github.com/llehouerou/folio/internal/feed"
)

func newDownloadCommand(opts *rootOptions) *cobra.Command {
	var section int
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Keep offline copies of a book's sections",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			book, err := a.book(ctx, args[0])
			if err != nil {
				return err
			}
			tracks, err := a.resolver.ResolveTracks(ctx, book.FeedURL)
			if err != nil {
				return failed(errmsg.OpFeedResolve, book.Title, err)
			}

			if cmd.Flags().Changed("section") {
				if section < 1 || section > len(tracks) {
					return fmt.Errorf("section %d out of range 1-%d", section, len(tracks))
				}
				tracks = tracks[section-1 : section]
			}

			out := cmd.OutOrStdout()
			for _, t := range tracks {
				d, err := a.downloads.Download(ctx, book.ID, t, nil)
				if err != nil {
					return failed(errmsg.OpDownloadSection, sectionLabel(t), err)
				}
				fmt.Fprintf(out, "%s %s  %s\n",
					okStyle.Render("✓"),
					sectionLabel(t),
					metaStyle.Render(downloads.Progress{Written: d.Size, Total: -1}.String()))
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&section, "section", "s", 0, "download only this section (1-based)")
	return cmd
}

func sectionLabel(t feed.Track) string {
	if t.Title == "" {
		return "Section " + strconv.Itoa(t.Index+1)
	}
	return fmt.Sprintf("%d. %s", t.Index+1, t.Title)
}
