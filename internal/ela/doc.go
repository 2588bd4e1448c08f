// Package ela implements face-aware error level analysis.
//
// The image is re-encoded as JPEG in memory and compared pixel by pixel with
// the original. A spliced face carries a different compression history from
// its surroundings, so a large gap between the face error and the global
// error is read as tampering. High overall variance marks portrait shots with
// background blur, which widens the tolerated gap.
package ela
