// Package evidence defines the data model shared by the forensic engine and its
// signal extractors.
//
// Key types:
//   - Item: immutable input (path + kind) supplied by the caller
//   - FaceRegion: primary face rectangle in source pixel coordinates
//   - SignalReading: uniform output of every extractor
//   - VerdictResult: the single structured verdict returned per analysis
//
// The package has no dependencies on the extractors so every stage can share it
// without import cycles.
package evidence
