package model

import (
	"fmt"
	"log"
	"runtime"

	"github.com/klauspost/cpuid/v2"
	ort "github.com/yalue/onnxruntime_go"
)

// Device names accepted by Config.Device.
const (
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// Config describes how to build an Engine.
type Config struct {
	ModelPath string
	Metadata  Metadata
	Device    string
	// Threads is the intra-op thread count; 0 uses the physical core count.
	Threads int
}

// InitializeRuntime loads the onnxruntime shared library (libraryPath, or the
// onnxruntime_go default when empty), initializes the environment and returns
// the runtime version. Pair it with DestroyRuntime.
func InitializeRuntime(libraryPath string) (string, error) {
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return "", fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return ort.GetVersion(), nil
}

// DestroyRuntime releases the environment created by InitializeRuntime.
func DestroyRuntime() {
	if err := ort.DestroyEnvironment(); err != nil {
		log.Printf("Failed to destroy ONNX environment: %v", err)
	}
}

// Engine owns one ONNX Runtime session with preallocated input and output
// tensors. It is bound to a single pipeline run and must be closed.
type Engine struct {
	session      *ort.AdvancedSession
	Metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewEngine creates the session. InitializeRuntime must have succeeded.
func NewEngine(cfg Config) (*Engine, error) {
	metadata := cfg.Metadata.WithDefaults()
	if metadata.OutputName == "" {
		name, err := firstOutputName(cfg.ModelPath)
		if err != nil {
			return nil, err
		}
		metadata.OutputName = name
	}
	log.Printf("Model input %q %v, output %q %v",
		metadata.InputName, metadata.InputShape, metadata.OutputName, metadata.OutputShape)

	options, err := newSessionOptions(cfg)
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor},
		options)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Engine{
		session:      session,
		Metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func firstOutputName(modelPath string) (string, error) {
	_, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return "", fmt.Errorf("failed to read model outputs: %w", err)
	}
	if len(outputs) == 0 {
		return "", fmt.Errorf("model %s has no outputs", modelPath)
	}
	return outputs[0].Name, nil
}

func newSessionOptions(cfg Config) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}

	threads := threadCount(cfg.Threads)
	if err := options.SetIntraOpNumThreads(threads); err != nil {
		options.Destroy()
		return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
	}

	switch cfg.Device {
	case "", DeviceCPU:
	case DeviceCUDA:
		cudaOptions, err := ort.NewCUDAProviderOptions()
		if err != nil {
			options.Destroy()
			return nil, fmt.Errorf("failed to create CUDA provider options: %w", err)
		}
		defer cudaOptions.Destroy()
		if err := options.AppendExecutionProviderCUDA(cudaOptions); err != nil {
			options.Destroy()
			return nil, fmt.Errorf("failed to enable CUDA: %w", err)
		}
	default:
		options.Destroy()
		return nil, fmt.Errorf("unknown device %q", cfg.Device)
	}

	log.Printf("Session: device=%s threads=%d", deviceName(cfg.Device), threads)
	return options, nil
}

func deviceName(device string) string {
	if device == "" {
		return DeviceCPU
	}
	return device
}

// threadCount resolves the intra-op thread count. Non-positive requests use
// the physical cores reported by cpuid, falling back to the logical count.
func threadCount(requested int) int {
	if requested > 0 {
		return requested
	}
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// CPUSummary describes the host CPU for startup diagnostics.
func CPUSummary() string {
	return fmt.Sprintf("%s (%d physical cores, AVX2=%v, AVX512F=%v)",
		cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores,
		cpuid.CPU.Supports(cpuid.AVX2), cpuid.CPU.Supports(cpuid.AVX512F))
}

// Run copies input into the session's input tensor, runs the model and
// returns a copy of the output tensor.
func (e *Engine) Run(input []float32) ([]float32, error) {
	data := e.inputTensor.GetData()
	if len(input) != len(data) {
		return nil, fmt.Errorf("input size mismatch: expected %d, got %d", len(data), len(input))
	}
	copy(data, input)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	outputData := e.outputTensor.GetData()
	result := make([]float32, len(outputData))
	copy(result, outputData)
	return result, nil
}

// Close releases the tensors and the session.
func (e *Engine) Close() {
	if e.inputTensor != nil {
		e.inputTensor.Destroy()
	}
	if e.outputTensor != nil {
		e.outputTensor.Destroy()
	}
	if e.session != nil {
		e.session.Destroy()
	}
}
