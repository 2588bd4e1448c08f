// Package face locates the primary face in an image with the pure-Go pigo
// cascade detector. A missing cascade, no detection, or a detector panic all
// yield no region; callers fall back to whole-image analysis.
package face
