package mpris

import (
	"time"

	"github.com/llehouerou/folio/internal/catalog"
	"github.com/llehouerou/folio/internal/controller"
)

// Session is the part of controller.Session media keys drive.
type Session interface {
	Book() catalog.Audiobook
	Snapshot() controller.Snapshot
	Play() error
	Pause() error
	Toggle() error
	Seek(pos time.Duration) error
	Next() error
	Previous() error
}

var _ Session = (*controller.Session)(nil)
