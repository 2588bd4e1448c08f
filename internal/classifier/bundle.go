package classifier

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"

	xdraw "golang.org/x/image/draw"
	"gopkg.in/yaml.v3"
)

const (
	// ModelFile is the ONNX graph inside a bundle directory.
	ModelFile = "model.onnx"
	// BundleFile describes preprocessing and label order.
	BundleFile = "bundle.yaml"
)

// Bundle is the parsed bundle.yaml.
type Bundle struct {
	InputSize  int       `yaml:"input_size"`
	Mean       []float32 `yaml:"mean"`
	Std        []float32 `yaml:"std"`
	Labels     []string  `yaml:"labels"`
	RealLabel  string    `yaml:"real_label"`
	AILabel    string    `yaml:"ai_label"`
	InputName  string    `yaml:"input_name"`
	OutputName string    `yaml:"output_name"`
}

// DefaultBundle matches a ViT-style image classifier export.
func DefaultBundle() Bundle {
	return Bundle{
		InputSize:  224,
		Mean:       []float32{0.5, 0.5, 0.5},
		Std:        []float32{0.5, 0.5, 0.5},
		Labels:     []string{"human", "artificial"},
		RealLabel:  "human",
		AILabel:    "artificial",
		InputName:  "pixel_values",
		OutputName: "logits",
	}
}

// LoadBundle reads bundle.yaml from dir, filling unset fields with defaults.
func LoadBundle(dir string) (Bundle, error) {
	bundle := DefaultBundle()
	data, err := os.ReadFile(filepath.Join(dir, BundleFile))
	if err != nil {
		return Bundle{}, fmt.Errorf("read bundle: %w", err)
	}
	var parsed Bundle
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Bundle{}, fmt.Errorf("parse bundle: %w", err)
	}
	if parsed.InputSize > 0 {
		bundle.InputSize = parsed.InputSize
	}
	if len(parsed.Mean) > 0 {
		bundle.Mean = parsed.Mean
	}
	if len(parsed.Std) > 0 {
		bundle.Std = parsed.Std
	}
	if len(parsed.Labels) > 0 {
		bundle.Labels = parsed.Labels
	}
	if parsed.RealLabel != "" {
		bundle.RealLabel = parsed.RealLabel
	}
	if parsed.AILabel != "" {
		bundle.AILabel = parsed.AILabel
	}
	if parsed.InputName != "" {
		bundle.InputName = parsed.InputName
	}
	if parsed.OutputName != "" {
		bundle.OutputName = parsed.OutputName
	}
	return bundle, bundle.Validate()
}

// Validate checks internal consistency.
func (b Bundle) Validate() error {
	if b.InputSize <= 0 {
		return errors.New("input_size must be positive")
	}
	if len(b.Mean) != 3 || len(b.Std) != 3 {
		return errors.New("mean and std must have three channels")
	}
	for _, s := range b.Std {
		if s == 0 {
			return errors.New("std must be non-zero")
		}
	}
	if !slices.Contains(b.Labels, b.RealLabel) {
		return fmt.Errorf("real_label %q not in labels", b.RealLabel)
	}
	if !slices.Contains(b.Labels, b.AILabel) {
		return fmt.Errorf("ai_label %q not in labels", b.AILabel)
	}
	return nil
}

// Preprocess resizes img to the bundle input size and returns a normalized
// NCHW float tensor.
func (b Bundle) Preprocess(img image.Image) []float32 {
	size := b.InputSize
	resized := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.BiLinear.Scale(resized, resized.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	plane := size * size
	out := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := resized.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float32(resized.Pix[i+c]) / 255
				out[c*plane+y*size+x] = (v - b.Mean[c]) / b.Std[c]
			}
		}
	}
	return out
}

// Probabilities maps raw outputs onto the real/AI label pair.
func (b Bundle) Probabilities(logits []float32) (Probabilities, error) {
	if len(logits) < len(b.Labels) {
		return Probabilities{}, fmt.Errorf("expected %d logits, got %d", len(b.Labels), len(logits))
	}
	probs := softmax(logits[:len(b.Labels)])
	var out Probabilities
	for i, label := range b.Labels {
		switch label {
		case b.RealLabel:
			out.Real = probs[i]
		case b.AILabel:
			out.AI = probs[i]
		}
	}
	return out, nil
}
