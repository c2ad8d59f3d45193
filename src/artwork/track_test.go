package artwork_test

import (
	"testing"

	"github.com/mpdart/mpdart/src/artwork"
)

// TestTrackIdentityComparison makes sure identities are compared by file
// URI when one is present and by the metadata fields otherwise.
func TestTrackIdentityComparison(t *testing.T) {
	tests := []struct {
		desc     string
		left     artwork.TrackIdentity
		right    artwork.TrackIdentity
		expected bool
	}{
		{
			desc:     "same file different metadata",
			left:     artwork.TrackIdentity{Artist: "one", File: "a/b.flac"},
			right:    artwork.TrackIdentity{Artist: "two", File: "a/b.flac"},
			expected: true,
		},
		{
			desc:     "different files",
			left:     artwork.TrackIdentity{File: "a/b.flac"},
			right:    artwork.TrackIdentity{File: "a/c.flac"},
			expected: false,
		},
		{
			desc:     "one empty file",
			left:     artwork.TrackIdentity{Artist: "one"},
			right:    artwork.TrackIdentity{Artist: "one", File: "a/b.flac"},
			expected: false,
		},
		{
			desc: "no files, same metadata",
			left: artwork.TrackIdentity{
				Artist: "one", Album: "al", Title: "ti",
			},
			right: artwork.TrackIdentity{
				Artist: "one", Album: "al", Title: "ti",
			},
			expected: true,
		},
		{
			desc:     "no files, different metadata",
			left:     artwork.TrackIdentity{Artist: "one", Title: "ti"},
			right:    artwork.TrackIdentity{Artist: "one", Title: "other"},
			expected: false,
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			if got := test.left.Same(test.right); got != test.expected {
				t.Errorf("expected Same to return %t but got %t", test.expected, got)
			}
		})
	}
}

func TestTrackIdentityIsZero(t *testing.T) {
	if !(artwork.TrackIdentity{}).IsZero() {
		t.Errorf("the zero identity was not reported as such")
	}

	nonZero := artwork.TrackIdentity{Title: "something"}
	if nonZero.IsZero() {
		t.Errorf("an identity with a title was reported as zero")
	}
}
