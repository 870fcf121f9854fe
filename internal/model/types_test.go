package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMetadata(t *testing.T) {
	tests := []struct {
		mode       Mode
		input      string
		output     string
		size       int
		outputSize int
	}{
		{ModeClassify, "data", "", 224, 2},
		{ModeImage, "inputImage", "outputImage", 720, 4},
	}
	for _, tt := range tests {
		m := DefaultMetadata(tt.mode)
		if m.InputName != tt.input || m.OutputName != tt.output || m.ImageSize != tt.size {
			t.Errorf("%s: got %+v", tt.mode, m)
		}
		if len(m.OutputShape) != tt.outputSize {
			t.Errorf("%s: output shape %v", tt.mode, m.OutputShape)
		}
		if !m.ShouldNormalize() {
			t.Errorf("%s: normalization disabled by default", tt.mode)
		}
		if err := m.Validate(); err != nil {
			t.Errorf("%s: Validate: %v", tt.mode, err)
		}
	}
}

func TestLoadMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_metadata.json")
	body := `{"output_name": "resnetv17_dense0_fwd", "normalize": false}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadMetadata(path, ModeClassify)
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if m.Mode != ModeClassify || m.InputName != "data" || m.OutputName != "resnetv17_dense0_fwd" {
		t.Errorf("got %+v", m)
	}
	if m.ShouldNormalize() {
		t.Error("normalize: false was not honoured")
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadMetadataImageSizeDrivesShapes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_metadata.json")
	if err := os.WriteFile(path, []byte(`{"mode": "image", "image_size": 224}`), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadMetadata(path, ModeClassify)
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	want := []int64{1, 3, 224, 224}
	if !equalShape(m.InputShape, want) || !equalShape(m.OutputShape, want) {
		t.Errorf("shapes %v %v, want %v", m.InputShape, m.OutputShape, want)
	}
}

func TestLoadMetadataErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadMetadata(filepath.Join(dir, "missing.json"), ModeClassify); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMetadata(bad, ModeClassify); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestValidate(t *testing.T) {
	bad := []Metadata{
		{Mode: "segment", ImageSize: 224, InputShape: []int64{1, 3, 224, 224}},
		{Mode: ModeClassify, ImageSize: 100, InputShape: []int64{1, 3, 100, 100}},
		{Mode: ModeClassify, ImageSize: 224, InputShape: []int64{1, 224, 224, 3}},
		{Mode: ModeImage, ImageSize: 720, InputShape: []int64{1, 3, 720, 720}, OutputShape: []int64{1, 1000}},
	}
	for _, m := range bad {
		if err := m.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", m)
		}
	}
}

func TestThreadCount(t *testing.T) {
	if got := threadCount(3); got != 3 {
		t.Errorf("threadCount(3) = %d", got)
	}
	if got := threadCount(0); got < 1 {
		t.Errorf("threadCount(0) = %d, want >= 1", got)
	}
	if got := threadCount(-2); got < 1 {
		t.Errorf("threadCount(-2) = %d, want >= 1", got)
	}
}
