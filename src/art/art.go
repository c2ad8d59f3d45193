// Package art is responsible for getting cover art for albums over the
// internet.
//
// It does that by first querying the MusicBrainz web service for release IDs
// using the artist name and album name. Then using these IDs it queries the
// Cover Art Archive for the corresponding album front art.
//
// The two APIs in question are as follows:
//
//   - MusicBrainz API: https://musicbrainz.org/doc/Development/XML_Web_Service/Version_2
//   - Cover Art Archive: https://musicbrainz.org/doc/Cover_Art_Archive/
package art

import (
	"sync"
	"time"

	"github.com/pborman/uuid"
	cca "gopkg.in/mineo/gocaa.v1"

	"github.com/mpdart/mpdart/src/artwork"
)

// ErrImageNotFound is returned by GetFrontImage when no suitable cover image
// was found anywhere. It is the same value as artwork.ErrNoArtwork so that
// callers can treat both outcomes uniformly.
var ErrImageNotFound = artwork.ErrNoArtwork

//counterfeiter:generate . CAAClient

// CAAClient represents a Cover Art Archive client for getting a release
// front image.
type CAAClient interface {
	GetReleaseFront(mbid uuid.UUID, size int) (image cca.CoverArtImage, err error)
}

// Client is a client for recovering album artwork from the Cover Art
// Archive. It automatically throttles itself so that it does not make too
// many requests at once. It is safe for concurrent use.
//
// Getting an image works in two steps:
//
//   - Get a list of mbids (aka release IDs) from the MusicBrainz API which
//     are above MinScore.
//
//   - Use the mbids for fetching a cover art from the Cover Art Archive. The
//     first release ID which has a cover art wins.
//
// Why a list of mbids? Because a certain album may have many records in
// MusicBrainz which correspond to different releases for this album. Perhaps
// for multiple years or countries. Generally all releases have the same
// cover art. So we accept any of them.
//
// It implements artwork.RemoteFinder.
type Client struct {
	sync.Mutex

	// MinScore is the minimal accepted score above which a release is
	// considered a match for the search in the MusicBrainz API. The API
	// returns a list of matches and every one of them comes with a "score"
	// metric in 0-100 scale which represents how good a match this result is
	// for the query. 100 means absolutely sure. By lowering this score you
	// may receive more images but some of them may be inaccurate.
	MinScore int

	delay     time.Duration
	delayer   *time.Timer
	useragent string
	caaClient CAAClient

	musicBrainzAPIHost string
}

// NewClient returns a fully configured Client.
//
// The kind people at MusicBrainz provide their API at no cost for everyone
// to use. For that reason they have kindly asked for all applications to
// throttle their usage as much as possible and to not exceed one request
// per second. So we are good citizens and throttle ourselves.
// More info: https://musicbrainz.org/doc/XML_Web_Service/Rate_Limiting
//
// The user agent is used for the client representing itself when contacting
// the MusicBrainz API. It is required so that they can use it for throttling
// and filtering out bad applications. The delay is used to throttle requests
// to the API. No more than one request per `delay` will be made.
func NewClient(useragent string, delay time.Duration) *Client {
	return &Client{
		MinScore:           95,
		useragent:          useragent,
		delay:              delay,
		delayer:            time.NewTimer(delay),
		caaClient:          cca.NewCAAClient(useragent),
		musicBrainzAPIHost: "https://musicbrainz.org",
	}
}

// SetMusicBrainzAPIURL sets the URL at which the MusicBrainz API resides.
// Used in testing.
func (c *Client) SetMusicBrainzAPIURL(url string) {
	c.musicBrainzAPIHost = url
}

// SetCAAClient changes the Cover Art Archive client. Used in testing.
func (c *Client) SetCAAClient(caaClient CAAClient) {
	c.caaClient = caaClient
}
