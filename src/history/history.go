// Package history keeps a journal of sync outcomes in a small sqlite
// database. Every artwork commit and every failure leaves one row, which
// makes "why is the display showing the wrong cover since yesterday"
// questions answerable.
package history

import (
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mpdart/mpdart/src/artwork"
)

// Event is one recorded sync outcome.
type Event struct {
	Track  artwork.TrackIdentity `json:"track"`
	Source string                `json:"source"`
	Error  string                `json:"error,omitempty"`
	At     time.Time             `json:"at"`
}

// Journal records sync events. It is safe for concurrent use; the sqlite
// driver serializes access to the database file.
type Journal struct {
	db *sql.DB
}

// New opens (or creates) the journal database at dbPath and applies any
// pending schema migrations from sqlFilesFS.
func New(dbPath string, sqlFilesFS fs.FS) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.applyMigrations(sqlFilesFS); err != nil {
		_ = db.Close()
		return nil, err
	}

	return j, nil
}

// Close closes the database connection. It is safe to call it as many
// times as you want.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

// Record stores one sync event.
func (j *Journal) Record(ev Event) error {
	_, err := j.db.Exec(`
		INSERT INTO sync_events
			(artist, album, title, file, source, error, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?)
	`,
		ev.Track.Artist,
		ev.Track.Album,
		ev.Track.Title,
		ev.Track.File,
		ev.Source,
		ev.Error,
		ev.At.Unix(),
	)
	if err != nil {
		return fmt.Errorf("inserting sync event: %w", err)
	}
	return nil
}

// Recent returns up to limit of the most recently recorded events, newest
// first.
func (j *Journal) Recent(limit int) ([]Event, error) {
	rows, err := j.db.Query(`
		SELECT
			artist, album, title, file, source, error, created_at
		FROM
			sync_events
		ORDER BY
			created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev        Event
			createdAt int64
		)
		err := rows.Scan(
			&ev.Track.Artist,
			&ev.Track.Album,
			&ev.Track.Title,
			&ev.Track.File,
			&ev.Source,
			&ev.Error,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning sync event: %w", err)
		}
		ev.At = time.Unix(createdAt, 0).UTC()
		events = append(events, ev)
	}

	return events, rows.Err()
}
