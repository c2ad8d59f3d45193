package overlay_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/mpdart/mpdart/src/artwork"
	"github.com/mpdart/mpdart/src/overlay"
)

func testArtPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 180, G: 40, B: 40, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test artwork: %s", err)
	}
	return buf.Bytes()
}

var testTrack = artwork.TrackIdentity{
	Artist: "Testy Testov",
	Album:  "The Test Strikes Back",
	Title:  "One Final Bug",
	File:   "testy/01.flac",
}

// TestCompositeDimensions makes sure the composite always has the display
// dimensions regardless of the artwork's aspect ratio.
func TestCompositeDimensions(t *testing.T) {
	tests := []struct {
		desc string
		artW int
		artH int
	}{
		{desc: "square artwork", artW: 100, artH: 100},
		{desc: "wide artwork", artW: 200, artH: 60},
		{desc: "tall artwork", artW: 60, artH: 200},
	}

	comp := overlay.New(400, 240, "")

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			art := testArtPNG(t, test.artW, test.artH)

			out, err := comp.Composite(art, testTrack)
			if err != nil {
				t.Fatalf("compositing failed: %s", err)
			}

			decoded, err := jpeg.Decode(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("decoding the composite: %s", err)
			}

			bounds := decoded.Bounds()
			if bounds.Dx() != 400 || bounds.Dy() != 240 {
				t.Errorf(
					"expected a 400x240 composite but got %dx%d",
					bounds.Dx(), bounds.Dy(),
				)
			}
		})
	}
}

// TestCompositeDeterministic makes sure the same artwork and track produce
// byte identical composites.
func TestCompositeDeterministic(t *testing.T) {
	comp := overlay.New(400, 240, "")
	art := testArtPNG(t, 120, 120)

	first, err := comp.Composite(art, testTrack)
	if err != nil {
		t.Fatalf("first composite failed: %s", err)
	}
	second, err := comp.Composite(art, testTrack)
	if err != nil {
		t.Fatalf("second composite failed: %s", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("compositing the same input twice produced different bytes")
	}
}

// TestCompositeBadArtwork makes sure undecodable bytes produce an error so
// that the caller can fall back to the plain scale.
func TestCompositeBadArtwork(t *testing.T) {
	comp := overlay.New(400, 240, "")

	_, err := comp.Composite([]byte("not an image"), testTrack)
	if err == nil {
		t.Errorf("expected an error for undecodable artwork")
	}
}

// TestCompositeEmptyMetadata makes sure a track without any metadata still
// composites fine.
func TestCompositeEmptyMetadata(t *testing.T) {
	comp := overlay.New(400, 240, "")
	art := testArtPNG(t, 100, 100)

	out, err := comp.Composite(art, artwork.TrackIdentity{File: "a/b.flac"})
	if err != nil {
		t.Fatalf("compositing without metadata failed: %s", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
		t.Errorf("the composite is not a valid JPEG: %s", err)
	}
}
