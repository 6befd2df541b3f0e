package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/llehouerou/folio/internal/errmsg"
	"github.com/llehouerou/folio/internal/progress"
)

func newLibraryCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "List saved books with their listening progress",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			books, err := a.store.SavedBooks(cmd.Context())
			if err != nil {
				return failed(errmsg.OpLibraryLoad, "", err)
			}
			missing := make(map[string]int, len(books))
			for _, b := range books {
				gone, err := a.downloads.Missing(cmd.Context(), b.ID)
				if err != nil {
					a.log.Warn("check downloads", zap.String("book", b.ID), zap.Error(err))
					continue
				}
				missing[b.ID] = len(gone)
			}
			printLibrary(cmd.OutOrStdout(), books, missing, time.Now())
			return nil
		}),
	}
	cmd.AddCommand(newLibrarySaveCommand(opts), newLibraryRemoveCommand(opts))
	return cmd
}

func newLibrarySaveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save <id>",
		Short: "Add a book to the library",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			book, err := a.book(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			saved := progress.SavedBook{
				ID:                book.ID,
				Title:             book.Title,
				CoverThumbnailURI: book.CoverThumbnail,
			}
			if err := a.store.SaveBook(cmd.Context(), saved); err != nil {
				return failed(errmsg.OpLibrarySave, book.Title, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okStyle.Render("Saved"), titleStyle.Render(book.Title))
			return nil
		}),
	}
}

func newLibraryRemoveCommand(opts *rootOptions) *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a book from the library",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			id := args[0]
			if err := a.store.RemoveBook(cmd.Context(), id); err != nil {
				return failed(errmsg.OpLibraryRemove, id, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", okStyle.Render("Removed"), id)
			if !purge {
				return nil
			}
			n, err := a.downloads.Purge(cmd.Context(), id)
			if err != nil {
				return failed(errmsg.OpDownloadPurge, id, err)
			}
			fmt.Fprintf(out, "%s %d downloaded sections\n", okStyle.Render("Deleted"), n)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "also delete downloaded sections")
	return cmd
}
