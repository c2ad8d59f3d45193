package history_test

import (
	"os"
	"testing"
	"time"

	"github.com/mpdart/mpdart/src/artwork"
	"github.com/mpdart/mpdart/src/assert"
	"github.com/mpdart/mpdart/src/history"
)

func newTestJournal(t *testing.T) *history.Journal {
	t.Helper()

	journal, err := history.New(":memory:", os.DirFS("../../sqls"))
	assert.NilErr(t, err, "opening the test journal")
	t.Cleanup(func() {
		_ = journal.Close()
	})
	return journal
}

// TestJournalRoundTrip makes sure recorded events come back unchanged and
// newest first.
func TestJournalRoundTrip(t *testing.T) {
	journal := newTestJournal(t)

	base := time.Date(2024, 5, 13, 9, 30, 0, 0, time.UTC)
	recorded := []history.Event{
		{
			Track: artwork.TrackIdentity{
				Artist: "Testy Testov",
				Album:  "The Test Strikes Back",
				Title:  "One Final Bug",
				File:   "testy/01.flac",
			},
			Source: "embedded",
			At:     base,
		},
		{
			Track:  artwork.TrackIdentity{File: "testy/02.flac"},
			Source: "none",
			Error:  "no artwork found",
			At:     base.Add(time.Minute),
		},
	}

	for _, ev := range recorded {
		assert.NilErr(t, journal.Record(ev), "recording event")
	}

	events, err := journal.Recent(10)
	assert.NilErr(t, err, "listing events")
	if len(events) != 2 {
		t.Fatalf("expected 2 events but got %d", len(events))
	}

	// Newest first.
	assert.Equal(t, "testy/02.flac", events[0].Track.File, "event order")
	assert.Equal(t, "no artwork found", events[0].Error)
	assert.Equal(t, "none", events[0].Source)
	assert.True(t, events[0].At.Equal(base.Add(time.Minute)), "event time")

	assert.Equal(t, recorded[0].Track, events[1].Track)
	assert.Equal(t, "", events[1].Error, "success events have no error")
}

// TestJournalRecentLimit makes sure the limit argument is honoured.
func TestJournalRecentLimit(t *testing.T) {
	journal := newTestJournal(t)

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		ev := history.Event{
			Track:  artwork.TrackIdentity{File: "testy/track.flac"},
			Source: "sidecar",
			At:     base.Add(time.Duration(i) * time.Second),
		}
		assert.NilErr(t, journal.Record(ev), "recording event")
	}

	events, err := journal.Recent(3)
	assert.NilErr(t, err, "listing events")
	assert.Equal(t, 3, len(events))
}

// TestJournalEmpty makes sure a fresh journal lists nothing without an
// error.
func TestJournalEmpty(t *testing.T) {
	journal := newTestJournal(t)

	events, err := journal.Recent(10)
	assert.NilErr(t, err, "listing events")
	assert.Equal(t, 0, len(events), "a fresh journal must be empty")
}
