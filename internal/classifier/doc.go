// Package classifier runs a pretrained AI-image detector exported to ONNX.
//
// A bundle directory holds model.onnx and bundle.yaml (input size,
// normalization, label order). The Provider loads the bundle lazily on first
// use and serializes inference; when the bundle or runtime is missing it
// returns neutral or simulated probabilities instead of failing.
package classifier
