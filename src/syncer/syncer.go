// Package syncer contains the loop which keeps the artwork cache in step
// with the music daemon. It blocks waiting for a player change, resolves
// and processes the artwork for the new track and commits the result to
// the cache store. It is the single writer of the cache.
package syncer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/mpdart/mpdart/src/artwork"
	"github.com/mpdart/mpdart/src/cache"
	"github.com/mpdart/mpdart/src/history"
)

// errorBackoff is how long the loop rests after a sync attempt failed
// completely before accepting new work.
const errorBackoff = 5 * time.Second

//counterfeiter:generate . ChangeWaiter

// ChangeWaiter is the loop's view of the music daemon connection.
type ChangeWaiter interface {
	// AwaitChange blocks until the daemon signals a relevant state change.
	// It returns a non-nil error only on shutdown.
	AwaitChange(ctx context.Context) error

	// CurrentTrack returns the identity of the currently playing track.
	CurrentTrack(ctx context.Context) (artwork.TrackIdentity, error)
}

// Resolver produces artwork bytes for a track.
type Resolver interface {
	Resolve(ctx context.Context, track artwork.TrackIdentity) (artwork.Source, error)
	Default() (artwork.Source, error)
}

// Processor turns raw artwork bytes into the processed cache image.
type Processor interface {
	Scale(ctx context.Context, img io.Reader) ([]byte, error)
}

// Compositor optionally draws the track metadata around the artwork
// instead of the plain scale.
type Compositor interface {
	Composite(artData []byte, track artwork.TrackIdentity) ([]byte, error)
}

// Renderer paints the committed cache file on the local display.
type Renderer interface {
	Enabled() bool
	Render(ctx context.Context, imagePath string) error
}

// Recorder journals sync outcomes.
type Recorder interface {
	Record(ev history.Event) error
}

// Loop is the sync loop. Use New for creating one and call Run exactly
// once.
type Loop struct {
	waiter     ChangeWaiter
	resolver   Resolver
	processor  Processor
	compositor Compositor
	store      *cache.Store
	renderer   Renderer
	journal    Recorder

	// resync carries force-refresh requests. Its capacity of one is what
	// coalesces multiple rapid requests into a single cycle.
	resync chan struct{}

	// backoff is how long the loop rests after a completely failed sync.
	// It is a field so that tests do not have to wait out the default.
	backoff time.Duration

	// dirWatch, when set, is retargeted at the current track's directory
	// after every successful sync.
	dirWatch interface {
		Track(track artwork.TrackIdentity)
	}

	lastTrack  artwork.TrackIdentity
	lastSynced bool
}

// SetDirWatch attaches a sidecar directory watch which follows the synced
// track. Must be called before Run.
func (l *Loop) SetDirWatch(w *SidecarWatch) {
	l.dirWatch = w
}

// New returns a Loop ready to Run. compositor, renderer and journal may be
// nil in which case the corresponding side effects are skipped.
func New(
	waiter ChangeWaiter,
	resolver Resolver,
	processor Processor,
	compositor Compositor,
	store *cache.Store,
	renderer Renderer,
	journal Recorder,
) *Loop {
	return &Loop{
		waiter:     waiter,
		resolver:   resolver,
		processor:  processor,
		compositor: compositor,
		store:      store,
		renderer:   renderer,
		journal:    journal,
		resync:     make(chan struct{}, 1),
		backoff:    errorBackoff,
	}
}

// Resync requests one out-of-band sync cycle for the current track. It
// never blocks. Requests arriving while a cycle is already pending are
// coalesced with it.
func (l *Loop) Resync() {
	select {
	case l.resync <- struct{}{}:
	default:
	}
}

// Run executes the loop until ctx is cancelled. It always returns
// ctx.Err(). No sync failure is fatal: the loop keeps the previous image
// and tries again on the next change.
func (l *Loop) Run(ctx context.Context) error {
	// An initial sync so that a display attached mid-album does not stay
	// blank until the next track change.
	l.syncOnce(ctx, true)

	changes := make(chan struct{})
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		for {
			if err := l.waiter.AwaitChange(ctx); err != nil {
				return
			}
			select {
			case changes <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Callers may tear down the waiter right after Run returns, so the
	// change pump must be gone by then.
	defer func() {
		<-pumpDone
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pumpDone:
			return ctx.Err()
		case <-changes:
			l.syncOnce(ctx, false)
		case <-l.resync:
			l.syncOnce(ctx, true)
		}
	}
}

// syncOnce performs one Idle -> Resolving -> Committing (or Backoff)
// transition. When force is false, notifications for the already synced
// track are coalesced into no work at all.
func (l *Loop) syncOnce(ctx context.Context, force bool) {
	track, err := l.waiter.CurrentTrack(ctx)
	if err != nil {
		log.Printf("reading current track failed: %s", err)
		l.noteError(track, "daemon unreachable: "+err.Error())
		l.lastSynced = false
		return
	}

	if track.IsZero() {
		l.noSong()
		return
	}

	if !force && l.lastSynced && track.Same(l.lastTrack) {
		log.Printf("coalescing redundant change notification for %s", track.File)
		return
	}

	source, err := l.resolver.Resolve(ctx, track)
	if err != nil {
		log.Printf("resolving artwork for %s failed: %s", track.File, err)
		l.noteError(track, err.Error())
		l.lastSynced = false
		l.rest(ctx)
		return
	}

	img, err := l.process(ctx, source, track)
	if err != nil {
		log.Printf("processing artwork for %s failed: %s", track.File, err)
		l.noteError(track, err.Error())
		l.lastSynced = false
		l.rest(ctx)
		return
	}

	entry := cache.Entry{
		Image:     img,
		Track:     track,
		Source:    source.Kind,
		LastFetch: time.Now().UTC(),
	}
	if err := l.store.Commit(entry); err != nil {
		// The in-memory cache was updated regardless, only the file on
		// disk is stale. The renderer would paint the old image.
		log.Printf("persisting cache file failed: %s", err)
	}

	l.lastTrack = track
	l.lastSynced = true
	if l.dirWatch != nil {
		l.dirWatch.Track(track)
	}
	l.record(track, source.Kind.String(), "")
	l.render(ctx)

	log.Printf(
		"committed %s artwork for %s - %s",
		source.Kind, track.Artist, track.Title,
	)
}

// process scales the resolved bytes or, when the overlay is enabled, draws
// the metadata composite. A failure to process non-default artwork falls
// through to the default image before giving up.
func (l *Loop) process(
	ctx context.Context,
	source artwork.Source,
	track artwork.TrackIdentity,
) ([]byte, error) {
	if l.compositor != nil {
		img, err := l.compositor.Composite(source.Data, track)
		if err == nil {
			return img, nil
		}
		log.Printf("metadata composite failed, using plain artwork: %s", err)
	}

	img, err := l.processor.Scale(ctx, bytes.NewReader(source.Data))
	if err == nil {
		return img, nil
	}

	if source.Kind == artwork.SourceDefault {
		return nil, err
	}

	log.Printf("artwork from %s was unusable (%s), trying the default image",
		source.Kind, err)

	fallback, fbErr := l.resolver.Default()
	if fbErr != nil {
		return nil, errors.Join(err, fbErr)
	}

	return l.processor.Scale(ctx, bytes.NewReader(fallback.Data))
}

// noSong clears the track metadata but keeps the last image on the display
// rather than blanking it.
func (l *Loop) noSong() {
	prev := l.store.Read()
	entry := prev
	entry.Track = artwork.TrackIdentity{}
	entry.LastError = "no song playing"

	if err := l.store.Commit(entry); err != nil {
		log.Printf("persisting cache file failed: %s", err)
	}
	l.lastTrack = artwork.TrackIdentity{}
	l.lastSynced = false
}

// noteError records a failed sync. The previously committed entry is
// retained unchanged except for its error message, so the display stays on
// the last good image.
func (l *Loop) noteError(track artwork.TrackIdentity, msg string) {
	prev := l.store.Read()
	entry := prev
	entry.LastError = msg

	if err := l.store.Commit(entry); err != nil {
		log.Printf("persisting cache file failed: %s", err)
	}
	l.record(track, artwork.SourceNone.String(), msg)
}

func (l *Loop) record(track artwork.TrackIdentity, source, errMsg string) {
	if l.journal == nil {
		return
	}

	ev := history.Event{
		Track:  track,
		Source: source,
		Error:  errMsg,
		At:     time.Now().UTC(),
	}
	if err := l.journal.Record(ev); err != nil {
		log.Printf("recording sync event failed: %s", err)
	}
}

// render invokes the external display command with the cache file path.
// Fire and forget: its failure is logged, never fatal to the loop.
func (l *Loop) render(ctx context.Context) {
	if l.renderer == nil || !l.renderer.Enabled() {
		return
	}

	go func() {
		if err := l.renderer.Render(ctx, l.store.Path()); err != nil {
			log.Printf("display command failed: %s", err)
		}
	}()
}

// rest is the Backoff state: a short fixed pause after a completely failed
// sync so that a broken setup does not busy-loop.
func (l *Loop) rest(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(l.backoff):
	}
}
