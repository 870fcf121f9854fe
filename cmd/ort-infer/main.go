package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/akamensky/argparse"

	"github.com/Brownie44l1/ort-infer/internal/labels"
	"github.com/Brownie44l1/ort-infer/internal/model"
	"github.com/Brownie44l1/ort-infer/internal/pipeline"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

type cliArgs struct {
	modelPath  string
	inputPath  string
	outputPath string
	mode       model.Mode
	metadata   string
	labels     string
	library    string
	device     string
	threads    int
	fit        bool
}

func parseArgs(args []string) (*cliArgs, string, error) {
	parser := argparse.NewParser("ort-infer", "Run an ONNX image model on a single image")
	modelPath := parser.StringPositional(&argparse.Options{Help: "Path to the ONNX model"})
	inputPath := parser.StringPositional(&argparse.Options{Help: "Input image"})
	outputPath := parser.StringPositional(&argparse.Options{Help: "Output image (image mode) or JSON report (classify mode)"})
	mode := parser.Selector("m", "mode", []string{string(model.ModeClassify), string(model.ModeImage)},
		&argparse.Options{Help: "Model output kind (default classify, or the metadata file's mode)"})
	metadata := parser.String("", "metadata", &argparse.Options{Help: "Model metadata JSON file"})
	labelsPath := parser.String("l", "labels", &argparse.Options{Help: "Newline-delimited class labels file"})
	library := parser.String("", "lib", &argparse.Options{Help: "Path to the onnxruntime shared library"})
	device := parser.Selector("d", "device", []string{model.DeviceCPU, model.DeviceCUDA},
		&argparse.Options{Help: "Execution provider", Default: model.DeviceCPU})
	threads := parser.Int("t", "threads", &argparse.Options{Help: "Intra-op threads, 0 uses physical cores", Default: 0})
	fit := parser.Flag("", "fit", &argparse.Options{Help: "Resize inputs of the wrong size instead of rejecting them"})

	if err := parser.Parse(args); err != nil {
		return nil, parser.Usage(err), err
	}

	a := &cliArgs{
		modelPath:  *modelPath,
		inputPath:  *inputPath,
		outputPath: *outputPath,
		mode:       model.Mode(*mode),
		metadata:   *metadata,
		labels:     *labelsPath,
		library:    *library,
		device:     *device,
		threads:    *threads,
		fit:        *fit,
	}
	if a.modelPath == "" || a.inputPath == "" {
		err := fmt.Errorf("usage: <model_path> <input_file> <output_file>")
		return nil, parser.Usage(err), err
	}
	return a, "", nil
}

// loadMetadata resolves the model metadata. An explicit --mode must agree
// with a mode named in the metadata file.
func loadMetadata(a *cliArgs) (model.Metadata, error) {
	mode := a.mode
	if mode == "" {
		mode = model.ModeClassify
	}
	if a.metadata == "" {
		return model.DefaultMetadata(mode), nil
	}
	metadata, err := model.LoadMetadata(a.metadata, mode)
	if err != nil {
		return model.Metadata{}, err
	}
	if a.mode != "" && metadata.Mode != a.mode {
		return model.Metadata{}, fmt.Errorf("--mode %s conflicts with mode %q in %s", a.mode, metadata.Mode, a.metadata)
	}
	return metadata, metadata.Validate()
}

func run(args []string, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)

	a, usage, err := parseArgs(args)
	if err != nil {
		fmt.Fprint(stderr, usage)
		return pipeline.KindUsage.ExitCode()
	}

	metadata, err := loadMetadata(a)
	if err != nil {
		log.Printf("Invalid metadata: %v", err)
		return pipeline.KindUsage.ExitCode()
	}
	if metadata.Mode == model.ModeImage && a.outputPath == "" {
		log.Printf("image mode needs <output_file>")
		return pipeline.KindUsage.ExitCode()
	}

	var table labels.Table
	if a.labels != "" {
		table, err = labels.FromFile(a.labels)
		if err != nil {
			log.Printf("Failed to load labels: %v", err)
			return pipeline.KindUsage.ExitCode()
		}
	}

	log.Printf("CPU: %s", model.CPUSummary())

	version, err := model.InitializeRuntime(a.library)
	if err != nil {
		log.Printf("Failed to init ONNX Runtime engine: %v", err)
		fmt.Fprintln(stderr, "fail")
		return pipeline.KindModel.ExitCode()
	}
	defer model.DestroyRuntime()
	fmt.Fprintf(stdout, "ONNX runtime version: %s\n", version)

	log.Printf("Loading model from: %s", a.modelPath)
	engine, err := model.NewEngine(model.Config{
		ModelPath: a.modelPath,
		Metadata:  metadata,
		Device:    a.device,
		Threads:   a.threads,
	})
	if err != nil {
		log.Printf("Failed to initialize model: %v", err)
		fmt.Fprintln(stderr, "fail")
		return pipeline.KindModel.ExitCode()
	}
	defer engine.Close()

	session := pipeline.NewSession(engine, pipeline.Options{
		Metadata:  engine.Metadata,
		Labels:    table,
		Fit:       a.fit,
		ModelPath: a.modelPath,
		Stdout:    stdout,
		LogOutput: stderr,
	})
	log.Printf("Run %s: %s mode, input %s", session.RunID, engine.Metadata.Mode, a.inputPath)

	if err := session.Run(a.inputPath, a.outputPath); err != nil {
		log.Printf("%s error: %v", pipeline.KindOf(err), err)
		fmt.Fprintln(stderr, "fail")
		return pipeline.ExitCode(err)
	}
	return 0
}
