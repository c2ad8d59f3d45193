// Package overlay composites the track metadata next to the album artwork.
// The result is a canvas of the display dimensions with the artwork on the
// right side and artist/album/title text on the left. It is an optional
// presentation stage between scaling and the cache commit.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/mpdart/mpdart/src/artwork"
)

const (
	backgroundColor = "#1a1a1a"
	labelColor      = "#888888"
	primaryColor    = "#ffffff"
	secondaryColor  = "#cccccc"

	// artShare is the maximal share of the canvas width the artwork may take.
	artShare = 0.7

	textPadding = 40
	jpegQuality = 85
)

// Compositor draws metadata text composites. It is safe for concurrent use
// as long as the font file does not change underneath it.
type Compositor struct {
	width  int
	height int

	// fontFile is a path to a TTF file. When empty or unreadable a basic
	// built-in face is used instead.
	fontFile string
}

// New returns a Compositor producing width x height composites.
func New(width, height int, fontFile string) *Compositor {
	return &Compositor{
		width:    width,
		height:   height,
		fontFile: fontFile,
	}
}

// Composite returns a JPEG of the display dimensions with artData drawn on
// the right and the track metadata on the left. The same input always
// produces the same output.
func (c *Compositor) Composite(
	artData []byte,
	track artwork.TrackIdentity,
) ([]byte, error) {
	art, _, err := image.Decode(bytes.NewReader(artData))
	if err != nil {
		return nil, fmt.Errorf("decoding artwork for composite: %w", err)
	}

	scaled := c.fitArt(art)
	artW := scaled.Bounds().Dx()
	artH := scaled.Bounds().Dy()
	artX := c.width - artW
	artY := (c.height - artH) / 2

	dc := gg.NewContext(c.width, c.height)
	dc.SetHexColor(backgroundColor)
	dc.Clear()
	dc.DrawImage(scaled, artX, artY)

	large := c.fontFace(36)
	medium := c.fontFace(28)
	small := c.fontFace(22)

	maxTextWidth := float64(artX - 2*textPadding)
	y := float64(textPadding)

	y = c.drawField(dc, "Artist:", track.Artist, small, large, primaryColor, maxTextWidth, y)
	y = c.drawField(dc, "Album:", track.Album, small, medium, secondaryColor, maxTextWidth, y)
	c.drawField(dc, "Track:", track.Title, small, medium, secondaryColor, maxTextWidth, y)

	var out bytes.Buffer
	opts := &jpeg.Options{Quality: jpegQuality}
	if err := jpeg.Encode(&out, dc.Image(), opts); err != nil {
		return nil, fmt.Errorf("encoding composite: %w", err)
	}

	return out.Bytes(), nil
}

// fitArt scales the artwork so that it takes no more than artShare of the
// canvas width and the full canvas height, preserving its aspect ratio.
func (c *Compositor) fitArt(art image.Image) image.Image {
	bounds := art.Bounds()
	maxW := float64(c.width) * artShare
	maxH := float64(c.height)

	scale := maxW / float64(bounds.Dx())
	if hScale := maxH / float64(bounds.Dy()); hScale < scale {
		scale = hScale
	}
	if scale > 1 {
		scale = 1
	}

	toW := int(float64(bounds.Dx()) * scale)
	toH := int(float64(bounds.Dy()) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, toW, toH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), art, bounds, draw.Src, nil)
	return dst
}

// drawField draws one "Label:" + value pair and returns the y position below
// it. Fields with empty values take no space at all.
func (c *Compositor) drawField(
	dc *gg.Context,
	label, value string,
	labelFace, valueFace font.Face,
	valueColor string,
	maxWidth float64,
	y float64,
) float64 {
	if value == "" {
		return y
	}

	dc.SetFontFace(labelFace)
	dc.SetHexColor(labelColor)
	dc.DrawString(label, textPadding, y+20)
	y += 35

	dc.SetFontFace(valueFace)
	dc.SetHexColor(valueColor)
	for _, line := range wrapText(dc, value, maxWidth) {
		dc.DrawString(line, textPadding, y+28)
		y += 42
	}

	return y + 12
}

func (c *Compositor) fontFace(points float64) font.Face {
	if c.fontFile != "" {
		if face, err := gg.LoadFontFace(c.fontFile, points); err == nil {
			return face
		}
	}
	return basicfont.Face7x13
}

// wrapText breaks text into lines that fit within maxWidth using the
// context's current font face.
func wrapText(dc *gg.Context, text string, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	currentLine := ""

	for _, word := range words {
		test := currentLine
		if test != "" {
			test += " "
		}
		test += word

		if w, _ := dc.MeasureString(test); w <= maxWidth || currentLine == "" {
			currentLine = test
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}

	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}
