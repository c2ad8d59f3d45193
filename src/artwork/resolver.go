package artwork

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"path/filepath"

	"github.com/dhowden/tag"
	"github.com/spf13/afero"
)

// ErrNoArtwork is returned by embedded artwork fetchers when the daemon has
// no picture bytes for a track. It is a normal outcome, not a failure.
var ErrNoArtwork = errors.New("no artwork found")

// sidecarNames is the fixed priority list of image files which are probed
// in the track's directory when it has no embedded artwork.
var sidecarNames = []string{
	"cover.jpg",
	"cover.jpeg",
	"cover.png",
	"cover.gif",
	"cover.webp",
	"folder.jpg",
	"folder.jpeg",
	"folder.png",
	"folder.gif",
	"folder.webp",
}

//counterfeiter:generate . EmbeddedFetcher

// EmbeddedFetcher is a type which can produce the picture bytes stored in a
// track's own metadata. Normally this is the music daemon itself via its
// readpicture and albumart commands.
type EmbeddedFetcher interface {
	// EmbeddedArtwork returns the embedded picture bytes for the track with
	// this daemon database URI. It returns ErrNoArtwork when the track has
	// none.
	EmbeddedArtwork(ctx context.Context, uri string) ([]byte, error)
}

//counterfeiter:generate . RemoteFinder

// RemoteFinder is a type capable of finding album artwork on the internet.
type RemoteFinder interface {
	GetFrontImage(ctx context.Context, artist, album string) ([]byte, error)
}

// Resolver produces the artwork for a track by probing, in order: the
// daemon's embedded picture data, the tags of the local media file, sidecar
// image files in the track's directory, optionally the Cover Art Archive and
// finally the configured default image.
//
// It is a pure function of the track identity and the daemon/filesystem
// state at call time. Freshness is the caller's job.
type Resolver struct {
	fs     afero.Fs
	daemon EmbeddedFetcher
	remote RemoteFinder

	// musicDir is the local mount point of the daemon's music directory.
	// Empty when the library is not locally readable, which disables the
	// local tag and sidecar stages.
	musicDir     string
	defaultImage string
}

// NewResolver returns a Resolver ready for use. remote may be nil, in which
// case no internet lookups are made.
func NewResolver(
	fs afero.Fs,
	daemon EmbeddedFetcher,
	remote RemoteFinder,
	musicDir string,
	defaultImage string,
) *Resolver {
	return &Resolver{
		fs:           fs,
		daemon:       daemon,
		remote:       remote,
		musicDir:     musicDir,
		defaultImage: defaultImage,
	}
}

// Resolve returns the artwork source for track. "Not found" is a normal
// outcome encoded in the source kind. The returned error is non-nil only
// when the resolution failed completely, i.e. the returned kind is
// SourceNone because even the default image was unreadable.
func (r *Resolver) Resolve(ctx context.Context, track TrackIdentity) (Source, error) {
	if data := r.embedded(ctx, track); data != nil {
		return Source{Kind: SourceEmbedded, Data: data}, nil
	}

	if found, ok := r.sidecar(track); ok {
		return found, nil
	}

	if data := r.remoteLookup(ctx, track); data != nil {
		return Source{Kind: SourceRemote, Data: data}, nil
	}

	return r.fallback()
}

// Default resolves the configured default image, skipping all other
// stages. It is used when processing of previously resolved bytes failed
// and the pipeline falls through to the fallback image.
func (r *Resolver) Default() (Source, error) {
	return r.fallback()
}

// TrackDir maps track to the local directory holding its media file. The
// bool result is false when the music directory is not locally readable.
func (r *Resolver) TrackDir(track TrackIdentity) (string, bool) {
	localPath, ok := r.localPath(track)
	if !ok {
		return "", false
	}
	return filepath.Dir(localPath), true
}

// IsSidecarName returns true when name is one of the artwork file names
// probed in a track's directory.
func IsSidecarName(name string) bool {
	for _, candidate := range sidecarNames {
		if name == candidate {
			return true
		}
	}
	return false
}

func (r *Resolver) embedded(ctx context.Context, track TrackIdentity) []byte {
	if track.File == "" {
		return nil
	}

	data, err := r.daemon.EmbeddedArtwork(ctx, track.File)
	if err == nil && len(data) > 0 {
		return data
	}
	if err != nil && !errors.Is(err, ErrNoArtwork) {
		log.Printf("error getting embedded artwork for %s: %s", track.File, err)
	}

	// The daemon could not help. When the music directory is locally
	// readable the tags of the file itself are tried as well.
	localPath, ok := r.localPath(track)
	if !ok {
		return nil
	}

	fh, err := r.fs.Open(localPath)
	if err != nil {
		return nil
	}
	defer fh.Close()

	meta, err := tag.ReadFrom(fh)
	if err != nil {
		return nil
	}
	if pic := meta.Picture(); pic != nil {
		return pic.Data
	}
	return nil
}

// sidecar probes the track's directory for the well known artwork file
// names in their fixed priority order.
func (r *Resolver) sidecar(track TrackIdentity) (Source, bool) {
	localPath, ok := r.localPath(track)
	if !ok {
		return Source{}, false
	}

	trackDir := filepath.Dir(localPath)
	for _, name := range sidecarNames {
		candidate := filepath.Join(trackDir, name)
		data, err := afero.ReadFile(r.fs, candidate)
		if err != nil {
			continue
		}
		return Source{Kind: SourceSidecar, Data: data, Path: candidate}, true
	}

	return Source{}, false
}

func (r *Resolver) remoteLookup(ctx context.Context, track TrackIdentity) []byte {
	if r.remote == nil || track.Artist == "" || track.Album == "" {
		return nil
	}

	data, err := r.remote.GetFrontImage(ctx, track.Artist, track.Album)
	if err != nil {
		if !errors.Is(err, ErrNoArtwork) {
			log.Printf(
				"cover art archive lookup for %s/%s failed: %s",
				track.Artist, track.Album, err,
			)
		}
		return nil
	}
	return data
}

func (r *Resolver) fallback() (Source, error) {
	if r.defaultImage == "" {
		return Source{}, fmt.Errorf("no artwork found and no default image configured")
	}

	data, err := afero.ReadFile(r.fs, r.defaultImage)
	if err != nil {
		return Source{}, fmt.Errorf("reading default image: %w", err)
	}

	return Source{Kind: SourceDefault, Data: data, Path: r.defaultImage}, nil
}

// localPath maps the track's daemon database URI to a path on the local
// filesystem. The bool result is false when no such mapping is possible.
func (r *Resolver) localPath(track TrackIdentity) (string, bool) {
	if r.musicDir == "" || track.File == "" {
		return "", false
	}

	// Daemon URIs use forward slashes regardless of the host OS.
	return filepath.Join(r.musicDir, filepath.FromSlash(path.Clean(track.File))), true
}
