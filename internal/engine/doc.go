// Package engine orchestrates forensic analysis of one evidence item.
//
// Each Analyze call walks START → METADATA_CHECK and then either stops on a
// metadata hit or continues into content analysis. Images run face location,
// error level analysis, synthetic-generation checks, noise variance and the
// classifier, then combine them. Videos sample frames, run error level
// analysis per frame and aggregate the per-frame decisions.
//
// Analyze never returns an error and never panics. Stage failures are
// replaced by neutral readings; only a total failure yields an ERROR verdict.
package engine
