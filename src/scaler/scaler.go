// Package scaler turns raw artwork bytes into the exact image which is
// committed to the cache. Images are decoded, fitted into the configured
// display dimensions while preserving their aspect ratio and re-encoded
// as JPEG. The output is deterministic: the same input bytes always produce
// the same output bytes.
package scaler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"runtime"
	"sync"

	// The following are all image formats supported for converting
	// to the output size.
	_ "image/gif"
	_ "image/png"

	// Additional image formats from the x repository.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// ErrCancelled is returned when one is trying to interact with a stopped
// scaler.
var ErrCancelled = fmt.Errorf("scale operation on cancelled Scaler")

// ErrDecode is wrapped by errors returned for unreadable or corrupt input
// images.
var ErrDecode = errors.New("decoding image failed")

// ErrEncode is wrapped by errors returned when the output image could not
// be produced.
var ErrEncode = errors.New("encoding image failed")

// jpegQuality is fixed so that re-encoding the same image twice produces
// byte-identical output.
const jpegQuality = 85

// letterboxFill is the neutral colour used for the bars around images
// which do not match the target aspect ratio.
var letterboxFill = color.RGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}

// description is a scaling instruction.
type description struct {

	// ImgR is the source of the image which will be scaled.
	ImgR io.Reader

	// Result is the channel on which the result image is returned.
	Result chan Result
}

// Result is a type which encapsulates a result from an image conversion.
type Result struct {
	ImgData []byte
	Err     error
}

// Scaler is a utility type which fits images into a fixed bounding box.
type Scaler struct {
	cancelContext context.CancelFunc

	width  int
	height int

	work chan description

	// done is closed when the scaler is cancelled. The work channel itself
	// is never closed: Scale may be selecting on a send to it right up to
	// the cancellation.
	done     chan struct{}
	doneOnce sync.Once
}

// Scale converts the image (img) into a width x height JPEG, preserving the
// source aspect ratio with neutral letterboxing.
func (s *Scaler) Scale(ctx context.Context, img io.Reader) ([]byte, error) {
	select {
	case <-s.done:
		return nil, ErrCancelled
	default:
	}

	desc := description{
		ImgR:   img,
		Result: make(chan Result),
	}

	select {
	case s.work <- desc:
	case <-s.done:
		return nil, ErrCancelled
	case <-ctx.Done():
		return nil, fmt.Errorf("ctx done while waiting to send scale op: %w", ctx.Err())
	}

	res := <-desc.Result
	if res.Err != nil {
		return nil, res.Err
	}

	return res.ImgData, nil
}

func (s *Scaler) worker() error {
	for {
		select {
		case desc := <-s.work:
			imgData, err := s.scaleImage(desc.ImgR)
			desc.Result <- Result{
				ImgData: imgData,
				Err:     err,
			}
		case <-s.done:
			return nil
		}
	}
}

func (s *Scaler) scaleImage(imgReader io.Reader) ([]byte, error) {
	img, _, err := image.Decode(imgReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecode, err)
	}

	imgRect := img.Bounds()
	imgw := imgRect.Dx()
	imgh := imgRect.Dy()
	if imgw < 1 || imgh < 1 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}

	// Fit the source into the target box without stretching it.
	scale := float64(s.width) / float64(imgw)
	if hScale := float64(s.height) / float64(imgh); hScale < scale {
		scale = hScale
	}

	toWidth := int(float64(imgw) * scale)
	toHeight := int(float64(imgh) * scale)
	offsetX := (s.width - toWidth) / 2
	offsetY := (s.height - toHeight) / 2

	dst := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(letterboxFill), image.Point{}, draw.Src)

	draw.CatmullRom.Scale(
		dst,
		image.Rect(offsetX, offsetY, offsetX+toWidth, offsetY+toHeight),
		img,
		img.Bounds(),
		draw.Over,
		nil,
	)

	var dstJPEG bytes.Buffer
	opts := &jpeg.Options{Quality: jpegQuality}
	if err := jpeg.Encode(&dstJPEG, dst, opts); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEncode, err)
	}

	return dstJPEG.Bytes(), nil
}

func (s *Scaler) watchCtx(ctx context.Context) func() error {
	// This function is meant to continuously watch the incoming context
	// and when it is done to stop all worker go routines.
	return func() error {
		<-ctx.Done()
		s.shutdown()
		return nil
	}
}

func (s *Scaler) shutdown() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// Cancel stops the scaler and all of its operations. Users may not use
// any further methods on cancelled scalers.
func (s *Scaler) Cancel() {
	s.cancelContext()
	s.shutdown()
}

// New returns a new scaler which fits images into a width x height box. It
// is ready for use.
func New(ctx context.Context, width, height int) *Scaler {
	ctx, cancel := context.WithCancel(ctx)

	s := &Scaler{
		cancelContext: cancel,
		width:         width,
		height:        height,
		work:          make(chan description),
		done:          make(chan struct{}),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.watchCtx(gctx))
	for i := 0; i < runtime.NumCPU(); i++ {
		g.Go(s.worker)
	}

	return s
}
