package classifier

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Model produces class probabilities for an image.
type Model interface {
	Predict(ctx context.Context, img image.Image) (Probabilities, error)
	Close() error
}

// Loader opens a model from a bundle directory.
type Loader func(bundleDir, sharedLibrary string) (Model, error)

var envMu sync.Mutex

type onnxModel struct {
	bundle  Bundle
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]

	mu sync.Mutex
}

// LoadONNX initializes the runtime and opens the bundle's session.
func LoadONNX(bundleDir, sharedLibrary string) (Model, error) {
	if bundleDir == "" {
		return nil, errors.New("bundle dir is empty")
	}
	if sharedLibrary == "" {
		return nil, errors.New("onnxruntime shared library not found; set classifier.shared_library or ONNXRUNTIME_SHARED_LIBRARY_PATH")
	}
	bundle, err := LoadBundle(bundleDir)
	if err != nil {
		return nil, err
	}
	modelPath := filepath.Join(bundleDir, ModelFile)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	envMu.Lock()
	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(sharedLibrary)
		if err := ort.InitializeEnvironment(); err != nil {
			envMu.Unlock()
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}
	envMu.Unlock()

	size := int64(bundle.InputSize)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(bundle.Labels))))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{bundle.InputName},
		[]string{bundle.OutputName},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return &onnxModel{bundle: bundle, session: session, input: input, output: output}, nil
}

func (m *onnxModel) Predict(ctx context.Context, img image.Image) (Probabilities, error) {
	pixels := m.bundle.Preprocess(img)
	if err := ctx.Err(); err != nil {
		return Probabilities{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.input.GetData(), pixels)
	if err := m.session.Run(); err != nil {
		return Probabilities{}, fmt.Errorf("onnx run: %w", err)
	}
	logits := append([]float32(nil), m.output.GetData()...)
	return m.bundle.Probabilities(logits)
}

func (m *onnxModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	if m.session != nil {
		errs = append(errs, m.session.Destroy())
		m.session = nil
	}
	if m.input != nil {
		errs = append(errs, m.input.Destroy())
		m.input = nil
	}
	if m.output != nil {
		errs = append(errs, m.output.Destroy())
		m.output = nil
	}
	return errors.Join(errs...)
}
