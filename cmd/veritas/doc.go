// Package main hosts the veritas CLI entrypoint and command graph.
//
// The Cobra-based command tree drives the forensic engine directly: single
// file analysis, bounded directory batches, ledger history, capability status,
// and configuration scaffolding. It centralizes configuration resolution and
// logger construction so subcommands only deal with presentation.
//
// Keep this package lean: analysis behavior belongs in internal/engine and its
// signal packages; commands here translate flags into engine calls and render
// the verdicts.
package main
