package tensor

import (
	"errors"
	"fmt"
	"math"
)

// Channels is the number of color channels in every buffer this package handles.
const Channels = 3

var (
	ErrLength    = errors.New("buffer length does not match 3*height*width")
	ErrDimension = errors.New("unexpected image dimensions")
)

// Per-channel normalization constants, listed R, G, B.
var (
	Mean   = [Channels]float32{0.485, 0.456, 0.406}
	Stddev = [Channels]float32{0.229, 0.224, 0.225}
)

func checkLength(n, height, width int) error {
	if height <= 0 || width <= 0 || n != Channels*height*width {
		return fmt.Errorf("%w: got %d for %dx%d", ErrLength, n, width, height)
	}
	return nil
}

// ValidateSize rejects any image that is not size x size.
func ValidateSize(height, width, size int) error {
	if height != size || width != size {
		return fmt.Errorf("%w: %dx%d, want %dx%d", ErrDimension, width, height, size, size)
	}
	return nil
}

// InterleavedToPlanar converts an HWC byte buffer into a CHW float buffer.
func InterleavedToPlanar(src []byte, height, width int) ([]float32, error) {
	if err := checkLength(len(src), height, width); err != nil {
		return nil, err
	}

	stride := height * width
	dst := make([]float32, len(src))
	for i := 0; i < stride; i++ {
		for c := 0; c < Channels; c++ {
			dst[c*stride+i] = float32(src[i*Channels+c])
		}
	}
	return dst, nil
}

// PlanarToInterleaved converts a CHW float buffer back into HWC bytes.
// Values outside [0, 255] (and NaN) become 0 rather than being clamped to the
// nearest bound.
func PlanarToInterleaved(src []float32, height, width int) ([]byte, error) {
	if err := checkLength(len(src), height, width); err != nil {
		return nil, err
	}

	stride := height * width
	dst := make([]byte, len(src))
	for c := 0; c < Channels; c++ {
		plane := src[c*stride : (c+1)*stride]
		for i, f := range plane {
			if f < 0 || f > 255 || math.IsNaN(float64(f)) {
				f = 0
			}
			dst[i*Channels+c] = uint8(f)
		}
	}
	return dst, nil
}

// Normalize scales a CHW buffer in place. Plane c is paired with
// Mean[2-c] and Stddev[2-c]: the loader produces B, G, R planes.
func Normalize(planar []float32) error {
	if len(planar)%Channels != 0 {
		return fmt.Errorf("%w: %d values", ErrLength, len(planar))
	}

	stride := len(planar) / Channels
	for c := 0; c < Channels; c++ {
		mean := float64(Mean[Channels-1-c])
		std := float64(Stddev[Channels-1-c])
		plane := planar[c*stride : (c+1)*stride]
		for i, v := range plane {
			plane[i] = float32((float64(v)/255.0 - mean) / std)
		}
	}
	return nil
}
