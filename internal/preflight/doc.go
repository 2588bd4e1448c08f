// Package preflight provides readiness checks for the filesystem paths and
// optional analysis backends veritas depends on.
//
// These checks run in two contexts:
//   - "veritas batch" calls RunAll before analyzing a directory so a broken
//     data directory fails fast instead of after hundreds of files.
//   - "veritas status" renders RunAll plus the capability report so an
//     operator can see which signals are measured and which are simulated.
package preflight
