// Package frames samples still frames from video evidence with ffmpeg.
//
// Each Sample call extracts into its own temporary directory; callers must
// Close the returned Set, which removes every extracted file.
package frames
