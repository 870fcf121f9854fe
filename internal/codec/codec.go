// Package codec decodes image files into fixed-size interleaved BGR buffers
// and encodes them back.
package codec

import (
	"fmt"
	"image"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Brownie44l1/ort-infer/internal/tensor"
)

// Image is an interleaved pixel buffer in B, G, R order, channel fastest.
type Image struct {
	Pix    []byte
	Height int
	Width  int
}

// DecodeOptions controls how Decode treats the source image.
type DecodeOptions struct {
	// Size is the required width and height.
	Size int
	// Fit resizes the source to Size x Size instead of rejecting it.
	Fit bool
}

// Decode reads the image at path and returns its BGR buffer. An image that
// is not opts.Size x opts.Size is rejected with tensor.ErrDimension unless
// opts.Fit is set.
func Decode(path string, opts DecodeOptions) (*Image, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	bounds := img.Bounds()
	log.Printf("Decoded %s: %dx%d", path, bounds.Dx(), bounds.Dy())

	if opts.Fit && (bounds.Dx() != opts.Size || bounds.Dy() != opts.Size) {
		img = resize.Resize(uint(opts.Size), uint(opts.Size), img, resize.Lanczos3)
		bounds = img.Bounds()
		log.Printf("Resized to %dx%d", bounds.Dx(), bounds.Dy())
	}

	if err := tensor.ValidateSize(bounds.Dy(), bounds.Dx(), opts.Size); err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// FromImage packs any image into a BGR buffer. Translucent pixels are
// composited over black.
func FromImage(img image.Image) *Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	pix := make([]byte, tensor.Channels*width*height)
	for y := 0; y < height; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < width; x++ {
			src := row[x*4:]
			dst := pix[(y*width+x)*tensor.Channels:]
			dst[0] = src[2]
			dst[1] = src[1]
			dst[2] = src[0]
		}
	}
	return &Image{Pix: pix, Height: height, Width: width}
}

// ToImage expands the BGR buffer into an opaque RGBA image.
func (m *Image) ToImage() (*image.RGBA, error) {
	if len(m.Pix) != tensor.Channels*m.Height*m.Width {
		return nil, fmt.Errorf("%w: got %d for %dx%d", tensor.ErrLength, len(m.Pix), m.Width, m.Height)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i := 0; i < m.Width*m.Height; i++ {
		src := m.Pix[i*tensor.Channels:]
		dst := rgba.Pix[i*4:]
		dst[0] = src[2]
		dst[1] = src[1]
		dst[2] = src[0]
		dst[3] = 0xff
	}
	return rgba, nil
}

// Encode writes the buffer to path. The extension selects the format:
// .jpg/.jpeg, .bmp, .tif/.tiff, anything else is PNG.
func Encode(m *Image, path string) error {
	rgba, err := m.ToImage()
	if err != nil {
		return err
	}
	if err := imgio.Save(path, rgba, encoderFor(path)); err != nil {
		return fmt.Errorf("write to '%s' failed: %w", path, err)
	}
	return nil
}

func encoderFor(path string) imgio.Encoder {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return imgio.JPEGEncoder(95)
	case ".bmp":
		return bmp.Encode
	case ".tif", ".tiff":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}
	default:
		return imgio.PNGEncoder()
	}
}
