// Package mpdconn owns the session to the music daemon. It exposes a
// blocking wait for player state changes which transparently reconnects
// with exponential backoff, and short-lived command connections for reading
// the current song and its embedded artwork.
package mpdconn

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fhs/gompd/v2/mpd"

	"github.com/mpdart/mpdart/src/artwork"
	"github.com/mpdart/mpdart/src/config"
)

const (
	// backoffMin and backoffMax bound the reconnect delay after the daemon
	// became unreachable.
	backoffMin = 500 * time.Millisecond
	backoffMax = 30 * time.Second

	// commandTimeout bounds every single command connection so that a hung
	// daemon cannot block the sync loop forever.
	commandTimeout = 10 * time.Second
)

// Manager holds a long-lived idle session to the music daemon. It is not
// safe for concurrent use; one sync loop owns it.
type Manager struct {
	network  string
	addr     string
	password string

	watcher *mpd.Watcher
	backoff time.Duration

	// dropped is set when an established idle session was lost. The next
	// successful reconnect is then reported as a change, since any number
	// of track changes may have happened during the outage.
	dropped bool
}

// New returns a Manager for the daemon described by cfg. No connection is
// made until the first call of one of its methods.
func New(cfg config.MPD) *Manager {
	network, addr := cfg.Address()
	return &Manager{
		network:  network,
		addr:     addr,
		password: cfg.Password,
		backoff:  backoffMin,
	}
}

// AwaitChange blocks until the daemon signals a change in the player
// subsystem and returns nil. When the connection drops it reconnects with
// exponential backoff and resumes waiting without reporting an error to the
// caller. On shutdown it returns ctx.Err() promptly.
func (m *Manager) AwaitChange(ctx context.Context) error {
	for {
		if m.watcher == nil {
			if err := m.connectWatcher(ctx); err != nil {
				return err
			}
			if m.dropped {
				// The player state at reconnect time is unknown, so the
				// reconnect itself counts as a change. Redundant syncs for
				// an unchanged track are coalesced by the caller.
				m.dropped = false
				return nil
			}
		}

		select {
		case <-ctx.Done():
			m.Close()
			return ctx.Err()
		case subsystem, ok := <-m.watcher.Event:
			if !ok {
				m.dropWatcher()
				continue
			}
			log.Printf("MPD reported a %s change", subsystem)
			return nil
		case err, ok := <-m.watcher.Error:
			if ok && err != nil {
				log.Printf("MPD idle connection failed: %s", err)
			}
			m.dropWatcher()
		}
	}
}

// connectWatcher establishes the idle session, sleeping with exponential
// backoff between failed attempts. It returns an error only when ctx is
// cancelled.
func (m *Manager) connectWatcher(ctx context.Context) error {
	for {
		watcher, err := mpd.NewWatcher(m.network, m.addr, m.password, "player")
		if err == nil {
			log.Printf("connected to MPD at %s", m.addr)
			m.watcher = watcher
			m.backoff = backoffMin
			return nil
		}

		log.Printf(
			"connecting to MPD at %s failed: %s, retrying in %s",
			m.addr, err, m.backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.backoff):
		}

		m.backoff *= 2
		if m.backoff > backoffMax {
			m.backoff = backoffMax
		}
	}
}

func (m *Manager) dropWatcher() {
	if m.watcher != nil {
		_ = m.watcher.Close()
		m.watcher = nil
		m.dropped = true
	}
}

// Close terminates the idle session if one is established.
func (m *Manager) Close() {
	m.dropWatcher()
}

// CurrentTrack returns the identity of the currently playing track. The
// zero identity with a nil error means the daemon reports no current song.
func (m *Manager) CurrentTrack(ctx context.Context) (artwork.TrackIdentity, error) {
	var track artwork.TrackIdentity

	err := m.withClient(ctx, func(c *mpd.Client) error {
		song, err := c.CurrentSong()
		if err != nil {
			return fmt.Errorf("currentsong command: %w", err)
		}

		track = artwork.TrackIdentity{
			Artist: song["Artist"],
			Album:  song["Album"],
			Title:  song["Title"],
			File:   song["file"],
		}
		return nil
	})

	return track, err
}

// EmbeddedArtwork implements artwork.EmbeddedFetcher using the daemon's
// readpicture command with albumart as a fallback.
func (m *Manager) EmbeddedArtwork(ctx context.Context, uri string) ([]byte, error) {
	var data []byte

	err := m.withClient(ctx, func(c *mpd.Client) error {
		var err error
		data, err = c.ReadPicture(uri)
		if err != nil || len(data) == 0 {
			data, err = c.AlbumArt(uri)
		}
		if err != nil || len(data) == 0 {
			// Both commands failing for a known URI means the track simply
			// has no picture attached.
			return artwork.ErrNoArtwork
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return data, nil
}

// withClient runs fn with a fresh command connection which is closed
// afterwards. The call is bounded by commandTimeout and by ctx.
func (m *Manager) withClient(ctx context.Context, fn func(c *mpd.Client) error) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		client, err := mpd.DialAuthenticated(m.network, m.addr, m.password)
		if err != nil {
			done <- fmt.Errorf("dialing MPD: %w", err)
			return
		}
		defer client.Close()

		done <- fn(client)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("MPD command timed out: %w", ctx.Err())
	case err := <-done:
		return err
	}
}
