// Package services defines shared utilities consumed by the engine stages and the
// command-line tooling.
//
// Key responsibilities:
//   - Context helpers that stamp stage names, evidence paths, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures into
//     the engine's taxonomy (unreadable input, missing dependency, transient stage
//     failure, total failure).
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
