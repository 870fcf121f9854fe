package pipeline

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
)

// fakeRunner records its input and answers with a canned output.
type fakeRunner struct {
	output []float32
	echo   bool
	err    error
	calls  int
	input  []float32
}

func (f *fakeRunner) Run(input []float32) ([]float32, error) {
	f.calls++
	f.input = append([]float32(nil), input...)
	if f.err != nil {
		return nil, f.err
	}
	if f.echo {
		return append([]float32(nil), input...), nil
	}
	return f.output, nil
}

var errFakeRun = errors.New("fake: session run failed")

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// writeTestPNG writes a size x size gradient and returns its path.
func writeTestPNG(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 5), B: uint8(x ^ y), A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "input.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return path
}
