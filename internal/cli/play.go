package cli

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/llehouerou/folio/internal/controller"
	"github.com/llehouerou/folio/internal/mpris"
	"github.com/llehouerou/folio/internal/notify"
	"github.com/llehouerou/folio/internal/playback"
	"github.com/llehouerou/folio/internal/player"
	"github.com/llehouerou/folio/internal/stderr"
	"github.com/llehouerou/folio/internal/ui/playerview"
)

const mediaTimeout = 10 * time.Minute

func newPlayCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "play <id>",
		Short: "Listen to a book, resuming where you stopped",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			book, err := a.book(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if err := stderr.Start(a.log); err != nil {
				a.log.Warn("capture stderr", zap.Error(err))
			}
			defer stderr.Stop()

			pb := a.cfg.GetPlaybackConfig()
			engine := player.New(mediaTimeout)
			adapter := playback.New(engine, pb.StatusInterval(), a.log.Named("playback"))
			ctrl := controller.New(a.resolver, a.store, adapter, controller.Options{
				ProgressInterval: pb.ProgressInterval(),
				SkipStep:         pb.SkipStep(),
			}, a.log.Named("controller"))
			defer func() {
				if err := ctrl.Close(); err != nil {
					a.log.Warn("close controller", zap.Error(err))
				}
				if err := adapter.Close(); err != nil {
					a.log.Warn("close playback", zap.Error(err))
				}
			}()

			session := ctrl.NewSession(*book)
			a.log.Info("session started", zap.String("session", session.ID()), zap.String("book", book.ID))
			bridge := mpris.New(session, a.log.Named("mpris"))
			defer func() {
				if err := bridge.Close(); err != nil {
					a.log.Warn("close mpris", zap.Error(err))
				}
			}()
			view := playerview.New(session)
			if nc := a.cfg.GetNotificationsConfig(); nc.IsEnabled() {
				view = view.WithNotifier(notify.New(), nc.Timeout)
			}
			_, err = tea.NewProgram(view, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		}),
	}
}
