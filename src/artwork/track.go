package artwork

// TrackIdentity is an immutable snapshot of the currently playing track as
// reported by the music daemon.
type TrackIdentity struct {
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Title  string `json:"title"`

	// File is the track's URI inside the daemon's music database. It is
	// relative to the daemon's music directory.
	File string `json:"file"`
}

// Same returns true when other points to the same track as t. Tracks are
// compared by their file URI. When both URIs are empty the metadata fields
// are compared instead.
func (t TrackIdentity) Same(other TrackIdentity) bool {
	if t.File != "" || other.File != "" {
		return t.File == other.File
	}

	return t.Artist == other.Artist &&
		t.Album == other.Album &&
		t.Title == other.Title
}

// IsZero returns true when the identity carries no information at all. This
// is the case when the daemon reports no current song.
func (t TrackIdentity) IsZero() bool {
	return t == TrackIdentity{}
}
