// Package notify sends desktop notifications over the freedesktop D-Bus API.
package notify

import (
	"fmt"

	"github.com/llehouerou/folio/internal/catalog"
	"github.com/llehouerou/folio/internal/feed"
)

// Urgency is the freedesktop notification priority.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification is one desktop notification.
type Notification struct {
	Title      string
	Body       string
	Icon       string // icon name or image path
	Timeout    int32  // ms, -1 = server default, 0 = never expire
	ReplacesID uint32 // 0 = new notification
	Urgency    Urgency
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends n and returns its server id. A notifier without a
	// notification server returns 0 and no error.
	Notify(n Notification) (uint32, error)
	Close(id uint32) error
}

// SectionStarted describes the start of a new section of book.
// replaces is the id of the previous section notification, if any.
func SectionStarted(book catalog.Audiobook, track feed.Track, count int, timeout int32, replaces uint32) Notification {
	title := track.Title
	if title == "" {
		title = fmt.Sprintf("Section %d", track.Index+1)
	}
	body := book.Title
	if authors := book.AuthorNames(); authors != "" {
		body += " · " + authors
	}
	return Notification{
		Title:      fmt.Sprintf("%s (%d/%d)", title, track.Index+1, count),
		Body:       body,
		Icon:       "audio-x-generic",
		Timeout:    timeout,
		ReplacesID: replaces,
		Urgency:    UrgencyLow,
	}
}

// BookFinished describes reaching the end of the last section.
func BookFinished(book catalog.Audiobook, timeout int32, replaces uint32) Notification {
	return Notification{
		Title:      "Finished",
		Body:       book.Title,
		Icon:       "audio-x-generic",
		Timeout:    timeout,
		ReplacesID: replaces,
		Urgency:    UrgencyNormal,
	}
}
