package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/llehouerou/folio/internal/catalog"
	"github.com/llehouerou/folio/internal/feed"
)

var book = catalog.Audiobook{
	ID:      "1594",
	Title:   "Letters from Egypt",
	Authors: []catalog.Author{{FirstName: "Lucie", LastName: "Duff-Gordon"}},
}

func TestSectionStarted(t *testing.T) {
	n := SectionStarted(book, feed.Track{Index: 2, Title: "Letter 3"}, 12, 5000, 7)

	assert.Equal(t, "Letter 3 (3/12)", n.Title)
	assert.Equal(t, "Letters from Egypt · Lucie Duff-Gordon", n.Body)
	assert.Equal(t, int32(5000), n.Timeout)
	assert.Equal(t, uint32(7), n.ReplacesID)
	assert.Equal(t, UrgencyLow, n.Urgency)
}

func TestSectionStartedUntitled(t *testing.T) {
	n := SectionStarted(catalog.Audiobook{Title: "Walden"}, feed.Track{Index: 0}, 1, -1, 0)

	assert.Equal(t, "Section 1 (1/1)", n.Title)
	assert.Equal(t, "Walden", n.Body)
}

func TestBookFinished(t *testing.T) {
	n := BookFinished(book, 5000, 3)

	assert.Equal(t, "Finished", n.Title)
	assert.Equal(t, "Letters from Egypt", n.Body)
	assert.Equal(t, UrgencyNormal, n.Urgency)
	assert.Equal(t, uint32(3), n.ReplacesID)
}

func TestDiscard(t *testing.T) {
	id, err := Discard().Notify(Notification{Title: "x"})
	assert.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, Discard().Close(1))
}
