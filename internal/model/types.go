package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Mode selects what the model output means.
type Mode string

const (
	// ModeClassify expects a [1, 1000] score vector.
	ModeClassify Mode = "classify"
	// ModeImage expects a [1, 3, H, W] image tensor.
	ModeImage Mode = "image"
)

// Metadata describes the model's inputs and outputs. It can be loaded from a
// JSON file; unset fields are filled from the mode's defaults.
type Metadata struct {
	Mode        Mode     `json:"mode"`
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
	Normalize   *bool    `json:"normalize"`
}

// DefaultMetadata returns the settings for the stock models of each mode.
// OutputName is left empty in classify mode; the engine takes the model's
// first output.
func DefaultMetadata(mode Mode) Metadata {
	normalize := true
	switch mode {
	case ModeImage:
		return Metadata{
			Mode:        ModeImage,
			InputName:   "inputImage",
			OutputName:  "outputImage",
			InputShape:  []int64{1, 3, 720, 720},
			OutputShape: []int64{1, 3, 720, 720},
			ImageSize:   720,
			Normalize:   &normalize,
		}
	default:
		return Metadata{
			Mode:        ModeClassify,
			InputName:   "data",
			InputShape:  []int64{1, 3, 224, 224},
			OutputShape: []int64{1, 1000},
			ImageSize:   224,
			Normalize:   &normalize,
		}
	}
}

// LoadMetadata reads a metadata file and fills unset fields from the
// defaults of its mode (or of fallback when the file names none).
func LoadMetadata(path string, fallback Mode) (Metadata, error) {
	metaFile, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if metadata.Mode == "" {
		metadata.Mode = fallback
	}
	return metadata.WithDefaults(), nil
}

// WithDefaults fills every zero field from DefaultMetadata(m.Mode).
func (m Metadata) WithDefaults() Metadata {
	def := DefaultMetadata(m.Mode)
	if m.Mode == "" {
		m.Mode = def.Mode
	}
	if m.InputName == "" {
		m.InputName = def.InputName
	}
	if m.OutputName == "" {
		m.OutputName = def.OutputName
	}
	if m.ImageSize == 0 {
		m.ImageSize = def.ImageSize
	}
	if len(m.InputShape) == 0 {
		m.InputShape = []int64{1, 3, int64(m.ImageSize), int64(m.ImageSize)}
	}
	if len(m.OutputShape) == 0 {
		if m.Mode == ModeImage {
			m.OutputShape = []int64{1, 3, int64(m.ImageSize), int64(m.ImageSize)}
		} else {
			m.OutputShape = def.OutputShape
		}
	}
	if m.Normalize == nil {
		m.Normalize = def.Normalize
	}
	return m
}

// Validate checks that the shapes agree with the mode and image size.
func (m Metadata) Validate() error {
	if m.Mode != ModeClassify && m.Mode != ModeImage {
		return fmt.Errorf("unknown mode %q", m.Mode)
	}
	if m.ImageSize != 224 && m.ImageSize != 720 {
		return fmt.Errorf("image size must be 224 or 720, got %d", m.ImageSize)
	}
	size := int64(m.ImageSize)
	want := []int64{1, 3, size, size}
	if !equalShape(m.InputShape, want) {
		return fmt.Errorf("input shape %v does not match %v", m.InputShape, want)
	}
	if m.Mode == ModeImage && !equalShape(m.OutputShape, want) {
		return fmt.Errorf("output shape %v does not match %v", m.OutputShape, want)
	}
	return nil
}

// ShouldNormalize reports whether the planar input is normalized.
func (m Metadata) ShouldNormalize() bool {
	return m.Normalize == nil || *m.Normalize
}

func equalShape(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Prediction is one ranked class.
type Prediction struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Score float32 `json:"score"`
}

// PredictionResponse is the JSON report written in classify mode.
type PredictionResponse struct {
	RunID       string       `json:"run_id"`
	Model       string       `json:"model"`
	Input       string       `json:"input"`
	Class       string       `json:"class"`
	Confidence  float32      `json:"confidence"`
	Predictions []Prediction `json:"predictions"`
}
