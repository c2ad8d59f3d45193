package artwork

// SourceKind enumerates the places artwork may have come from.
type SourceKind int

const (
	// SourceNone means no artwork could be found anywhere, not even the
	// configured default image.
	SourceNone SourceKind = iota

	// SourceEmbedded is artwork stored inside the audio file's own
	// metadata container.
	SourceEmbedded

	// SourceSidecar is an image file stored alongside the track in the
	// same directory.
	SourceSidecar

	// SourceRemote is artwork downloaded from the Cover Art Archive.
	SourceRemote

	// SourceDefault is the configured fallback image.
	SourceDefault
)

// String implements fmt.Stringer and is what ends up in the sync journal.
func (k SourceKind) String() string {
	switch k {
	case SourceEmbedded:
		return "embedded"
	case SourceSidecar:
		return "sidecar"
	case SourceRemote:
		return "remote"
	case SourceDefault:
		return "default"
	default:
		return "none"
	}
}

// Source is the result of resolving artwork for a track. Data is always
// populated for kinds other than SourceNone. Path is set for artwork which
// was read from the filesystem.
type Source struct {
	Kind SourceKind
	Data []byte
	Path string
}
