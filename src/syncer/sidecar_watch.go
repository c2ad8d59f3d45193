package syncer

import (
	"context"
	"log"
	"path/filepath"
	"sync"

	"github.com/howeyc/fsnotify"

	"github.com/mpdart/mpdart/src/artwork"
)

// DirMapper maps a track to its local directory. Implemented by
// artwork.Resolver.
type DirMapper interface {
	TrackDir(track artwork.TrackIdentity) (string, bool)
}

// SidecarWatch watches the current track's directory and requests a resync
// when an artwork sidecar file appears or changes there. This covers the
// "cover.jpg was dropped into the album folder while it is playing" case
// which no daemon notification announces.
type SidecarWatch struct {
	mapper DirMapper
	loop   *Loop

	watch *fsnotify.Watcher

	mu         sync.Mutex
	watchedDir string
}

// NewSidecarWatch creates the directory watcher. On failure the service
// works fine without one, late-appearing sidecars are just not picked up
// until the next track change.
func NewSidecarWatch(mapper DirMapper, loop *Loop) (*SidecarWatch, error) {
	watch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &SidecarWatch{
		mapper: mapper,
		loop:   loop,
		watch:  watch,
	}, nil
}

// Track points the watcher at the directory of track, replacing any
// previous watch. Unmappable tracks clear the watch.
func (w *SidecarWatch) Track(track artwork.TrackIdentity) {
	dir, ok := w.mapper.TrackDir(track)

	w.mu.Lock()
	defer w.mu.Unlock()

	if !ok {
		w.dropWatchLocked()
		return
	}
	if dir == w.watchedDir {
		return
	}

	w.dropWatchLocked()
	if err := w.watch.Watch(dir); err != nil {
		log.Printf("watching %s for sidecar files failed: %s", dir, err)
		return
	}
	w.watchedDir = dir
}

func (w *SidecarWatch) dropWatchLocked() {
	if w.watchedDir == "" {
		return
	}
	if err := w.watch.RemoveWatch(w.watchedDir); err != nil {
		log.Printf("removing watch for %s failed: %s", w.watchedDir, err)
	}
	w.watchedDir = ""
}

// Run receives the watcher events until ctx is cancelled.
func (w *SidecarWatch) Run(ctx context.Context) error {
	defer func() {
		if err := w.watch.Close(); err != nil {
			log.Printf("closing sidecar watcher failed: %s", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.watch.Event:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.watch.Error:
			if !ok {
				return nil
			}
			log.Printf("sidecar watcher error: %s", err)
		}
	}
}

func (w *SidecarWatch) handleEvent(ev *fsnotify.FileEvent) {
	if ev == nil || ev.IsDelete() {
		return
	}
	if !artwork.IsSidecarName(filepath.Base(ev.Name)) {
		return
	}

	log.Printf("sidecar file %s appeared, requesting resync", ev.Name)
	w.loop.Resync()
}
