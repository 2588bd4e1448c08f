// Package config loads, normalizes, and validates veritas configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ONNXRUNTIME_SHARED_LIBRARY_PATH and VERITAS_FACE_CASCADE. The Config type
// centralizes every knob the engine and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
