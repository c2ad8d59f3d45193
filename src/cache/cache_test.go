package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/mpdart/mpdart/src/artwork"
	"github.com/mpdart/mpdart/src/cache"
)

// TestStoreCommitAndRead makes sure a committed entry comes back unchanged
// and ends up in the cache file.
func TestStoreCommitAndRead(t *testing.T) {
	appFs := afero.NewMemMapFs()
	store := cache.NewStore(appFs, "/output/current_cover.jpg")

	if store.Read().HasImage() {
		t.Errorf("a fresh store reported a cached image")
	}

	entry := cache.Entry{
		Image: []byte("processed-jpeg-bytes"),
		Track: artwork.TrackIdentity{
			Artist: "Testy Testov",
			Title:  "One Final Bug",
			File:   "testy/01.flac",
		},
		Source:    artwork.SourceEmbedded,
		LastFetch: time.Now().UTC(),
	}

	if err := store.Commit(entry); err != nil {
		t.Fatalf("committing failed: %s", err)
	}

	got := store.Read()
	if string(got.Image) != "processed-jpeg-bytes" {
		t.Errorf("read back wrong image bytes: %s", got.Image)
	}
	if got.Track != entry.Track {
		t.Errorf("read back wrong track: %+v", got.Track)
	}
	if got.Source != artwork.SourceEmbedded {
		t.Errorf("read back wrong source: %s", got.Source)
	}

	onDisk, err := afero.ReadFile(appFs, "/output/current_cover.jpg")
	if err != nil {
		t.Fatalf("reading the cache file: %s", err)
	}
	if string(onDisk) != "processed-jpeg-bytes" {
		t.Errorf("cache file has wrong contents: %s", onDisk)
	}
}

// TestStoreCommitWithoutImage makes sure metadata-only commits do not touch
// the cache file. This is what keeps the previous image on screen during an
// error or a playback stop.
func TestStoreCommitWithoutImage(t *testing.T) {
	appFs := afero.NewMemMapFs()
	store := cache.NewStore(appFs, "/output/current_cover.jpg")

	first := cache.Entry{Image: []byte("first-image")}
	if err := store.Commit(first); err != nil {
		t.Fatalf("committing failed: %s", err)
	}

	second := first
	second.Image = nil
	second.LastError = "no song playing"
	if err := store.Commit(second); err != nil {
		t.Fatalf("committing failed: %s", err)
	}

	if got := store.Read().LastError; got != "no song playing" {
		t.Errorf("expected the error to be stored, got `%s`", got)
	}

	onDisk, err := afero.ReadFile(appFs, "/output/current_cover.jpg")
	if err != nil {
		t.Fatalf("reading the cache file: %s", err)
	}
	if string(onDisk) != "first-image" {
		t.Errorf("the cache file was overwritten: %s", onDisk)
	}
}

// TestStoreLeavesNoTempFiles makes sure the temporary rename files do not
// accumulate in the output directory.
func TestStoreLeavesNoTempFiles(t *testing.T) {
	appFs := afero.NewMemMapFs()
	store := cache.NewStore(appFs, "/output/current_cover.jpg")

	for i := 0; i < 5; i++ {
		entry := cache.Entry{Image: []byte(fmt.Sprintf("image-%d", i))}
		if err := store.Commit(entry); err != nil {
			t.Fatalf("commit %d failed: %s", i, err)
		}
	}

	infos, err := afero.ReadDir(appFs, "/output")
	if err != nil {
		t.Fatalf("reading the output directory: %s", err)
	}
	for _, info := range infos {
		if info.Name() != "current_cover.jpg" {
			t.Errorf("leftover file in output directory: %s", info.Name())
		}
	}
}

// TestStoreReadersSeeConsistentEntries hammers the store with one writer
// and several readers. Every observed entry must be internally consistent,
// which is checked by encoding the track title into the image bytes.
func TestStoreReadersSeeConsistentEntries(t *testing.T) {
	appFs := afero.NewMemMapFs()
	store := cache.NewStore(appFs, "/output/current_cover.jpg")

	const commits = 200
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < commits; i++ {
			title := fmt.Sprintf("track-%d", i)
			entry := cache.Entry{
				Image: []byte("image-for-" + title),
				Track: artwork.TrackIdentity{Title: title},
			}
			if err := store.Commit(entry); err != nil {
				t.Errorf("commit failed: %s", err)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				entry := store.Read()
				if entry.HasImage() {
					expected := "image-for-" + entry.Track.Title
					if string(entry.Image) != expected {
						t.Errorf(
							"torn read: track %s with image %s",
							entry.Track.Title, entry.Image,
						)
						return
					}
				}

				select {
				case <-done:
					return
				default:
				}
			}
		}()
	}

	<-done
	wg.Wait()
}
