// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties, including container tags
//   - Format: container-level metadata (duration, size, tags)
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - TagReader: adapts Inspect into a metadata tag source for video evidence
package ffprobe
