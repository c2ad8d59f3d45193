// Package cache holds the single authoritative copy of the most recently
// processed artwork and the metadata it belongs to. One writer (the sync
// loop) commits entries, many readers (the HTTP handlers) read them. A
// committed entry is also persisted to a well-known file path so that
// external processes such as the framebuffer renderer can pick it up.
package cache

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/pborman/uuid"
	"github.com/spf13/afero"

	"github.com/mpdart/mpdart/src/artwork"
)

// Entry is one internally consistent cache state: the image bytes always
// belong to the track stored alongside them.
type Entry struct {
	// Image is the processed artwork. Readers must not modify it.
	Image []byte

	Track  artwork.TrackIdentity
	Source artwork.SourceKind

	// LastFetch is the time of the last successful commit. Zero before the
	// first one.
	LastFetch time.Time

	// LastError is empty after a successful sync and holds a short message
	// otherwise.
	LastError string
}

// HasImage returns true once artwork bytes have been committed.
func (e Entry) HasImage() bool {
	return len(e.Image) > 0
}

// Store is the holder of the current entry. The zero value is not usable,
// use NewStore.
type Store struct {
	mu    sync.RWMutex
	entry Entry

	fs       afero.Fs
	filePath string
}

// NewStore returns a Store which persists committed images to filePath on
// the given filesystem.
func NewStore(fs afero.Fs, filePath string) *Store {
	return &Store{
		fs:       fs,
		filePath: filePath,
	}
}

// Read returns the latest committed entry. Before the first commit it is
// the zero Entry.
func (s *Store) Read() Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry
}

// Commit replaces the current entry with a single atomic swap. Readers see
// either the previous entry or the new one, never a mix of both. The image
// is also written to the store's file path with a write-to-temp-then-rename
// discipline so that no external reader ever observes a partially written
// file.
//
// The in-memory swap always happens. A non-nil error means only that the
// file persistence failed.
func (s *Store) Commit(entry Entry) error {
	s.mu.Lock()
	s.entry = entry
	s.mu.Unlock()

	if !entry.HasImage() {
		return nil
	}

	return s.persist(entry.Image)
}

// Path returns the file the store persists committed images to.
func (s *Store) Path() string {
	return s.filePath
}

func (s *Store) persist(img []byte) error {
	dir := filepath.Dir(s.filePath)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmpPath := filepath.Join(dir, "."+uuid.New()+".tmp")
	if err := afero.WriteFile(s.fs, tmpPath, img, 0644); err != nil {
		return fmt.Errorf("writing temporary cache file: %w", err)
	}

	if err := s.fs.Rename(tmpPath, s.filePath); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("renaming cache file into place: %w", err)
	}

	return nil
}
