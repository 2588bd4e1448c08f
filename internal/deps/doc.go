// Package deps probes the host for the optional analysis backends veritas can
// use: ffmpeg/ffprobe for video, the pigo face cascade, the ONNX Runtime
// classifier bundle, and error level analysis. Detect runs once at startup and
// the resulting Capabilities decide which stages run for real and which fall
// back to neutral or simulated readings.
package deps
