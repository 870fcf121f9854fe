// Package pipeline runs one image through a model: decode, convert to a
// planar tensor, infer, then report scores or write the output image.
package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/Brownie44l1/ort-infer/internal/codec"
	"github.com/Brownie44l1/ort-infer/internal/labels"
	"github.com/Brownie44l1/ort-infer/internal/model"
	"github.com/Brownie44l1/ort-infer/internal/tensor"
	"github.com/Brownie44l1/ort-infer/internal/topk"
)

// Runner executes the model on a planar input tensor.
type Runner interface {
	Run(input []float32) ([]float32, error)
}

// Options configures a Session.
type Options struct {
	Metadata model.Metadata
	// Labels overrides Metadata.Classes and the embedded ImageNet table.
	Labels labels.Table
	// Fit resizes inputs of the wrong size instead of rejecting them.
	Fit bool
	// ModelPath is recorded in the JSON report.
	ModelPath string
	Stdout    io.Writer
	// LogOutput receives the run's diagnostics, prefixed with the run id.
	// Defaults to os.Stderr. Ignored when Logger is set.
	LogOutput io.Writer
	Logger    *log.Logger
}

// Session carries everything one pipeline run needs.
type Session struct {
	RunID    string
	runner   Runner
	metadata model.Metadata
	labels   labels.Table
	fit      bool
	model    string
	out      io.Writer
	logger   *log.Logger
}

// NewSession binds a runner to the run's settings.
func NewSession(runner Runner, opts Options) *Session {
	metadata := opts.Metadata.WithDefaults()

	table := opts.Labels
	if len(table) == 0 && len(metadata.Classes) > 0 {
		table = labels.Table(metadata.Classes)
	}
	if len(table) == 0 {
		table = labels.ImageNet()
	}

	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	runID := uuid.New().String()
	logger := opts.Logger
	if logger == nil {
		logOutput := opts.LogOutput
		if logOutput == nil {
			logOutput = os.Stderr
		}
		logger = log.New(logOutput, fmt.Sprintf("[%s] ", runID[:8]), log.LstdFlags)
	}

	return &Session{
		RunID:    runID,
		runner:   runner,
		metadata: metadata,
		labels:   table,
		fit:      opts.Fit,
		model:    opts.ModelPath,
		out:      out,
		logger:   logger,
	}
}

// Run executes the pipeline once. In classify mode outputPath is optional and
// receives a JSON report; in image mode it is required and receives the
// encoded output image.
func (s *Session) Run(inputPath, outputPath string) error {
	if s.metadata.Mode == model.ModeImage && outputPath == "" {
		return Fail(KindUsage, "run", nil, "image mode needs an output file")
	}

	input, err := s.load(inputPath)
	if err != nil {
		return err
	}

	output, err := s.infer(input)
	if err != nil {
		return err
	}

	if s.metadata.Mode == model.ModeImage {
		return s.writeImage(output, outputPath)
	}
	return s.classify(output, inputPath, outputPath)
}

// load decodes the input image and returns its normalized planar tensor.
func (s *Session) load(path string) ([]float32, error) {
	size := s.metadata.ImageSize
	img, err := codec.Decode(path, codec.DecodeOptions{Size: size, Fit: s.fit})
	if err != nil {
		if s.metadata.Mode == model.ModeImage {
			s.logger.Printf("please resize the image to %dx%d", size, size)
		}
		return nil, Fail(KindDecode, "read image file", err, "")
	}

	planar, err := tensor.InterleavedToPlanar(img.Pix, img.Height, img.Width)
	if err != nil {
		return nil, Fail(KindDecode, "convert", err, "")
	}
	if s.metadata.ShouldNormalize() {
		if err := tensor.Normalize(planar); err != nil {
			return nil, Fail(KindDecode, "normalize", err, "")
		}
	}

	s.logger.Printf("Preprocessed image: %d values (3 channels × %d × %d)", len(planar), img.Height, img.Width)
	return planar, nil
}

func (s *Session) infer(input []float32) ([]float32, error) {
	output, err := s.runner.Run(input)
	if err != nil {
		return nil, Fail(KindInference, "run model", err, "")
	}
	return output, nil
}

// classify prints the ten retained classes and optionally writes a report.
func (s *Session) classify(scores []float32, inputPath, reportPath string) error {
	if len(scores) < topk.K {
		return Fail(KindInference, "classify", nil, "model returned %d scores, need at least %d", len(scores), topk.K)
	}
	if len(scores) != len(s.labels) {
		s.logger.Printf("Model returned %d scores for %d labels", len(scores), len(s.labels))
	}

	result := topk.Select(scores)
	predictions := make([]model.Prediction, 0, topk.K)
	for _, e := range result.Entries() {
		label := s.labels.Name(e.Index)
		fmt.Fprintf(s.out, "class%d-%s: %f\n", e.Index, label, e.Score)
		predictions = append(predictions, model.Prediction{Index: e.Index, Label: label, Score: e.Score})
	}

	if reportPath == "" {
		return nil
	}

	top := result.Top()
	report := model.PredictionResponse{
		RunID:       s.RunID,
		Model:       s.model,
		Input:       inputPath,
		Class:       s.labels.Name(top.Index),
		Confidence:  top.Score,
		Predictions: predictions,
	}
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return Fail(KindEncode, "write report", err, "")
	}
	if err := os.WriteFile(reportPath, body, 0644); err != nil {
		return Fail(KindEncode, "write report", err, "write %s", reportPath)
	}
	s.logger.Printf("Report written to %s", reportPath)
	return nil
}

// writeImage converts the planar output back to BGR bytes and encodes it.
func (s *Session) writeImage(output []float32, path string) error {
	size := s.metadata.ImageSize
	pix, err := tensor.PlanarToInterleaved(output, size, size)
	if err != nil {
		return Fail(KindInference, "convert output", err, "")
	}

	img := &codec.Image{Pix: pix, Height: size, Width: size}
	if err := codec.Encode(img, path); err != nil {
		return Fail(KindEncode, "write image file", err, "")
	}
	s.logger.Printf("Image written to %s", path)
	return nil
}
