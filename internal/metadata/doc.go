// Package metadata scans embedded metadata for editing and generation tool
// fingerprints.
//
// Values are collected from EXIF (JPEG, TIFF, and PNG eXIf chunks), PNG text
// chunks, XMP packets, and, for video, container tags supplied by a
// TagReader. Any value containing a denylisted tool name is a conclusive
// finding; missing or unreadable metadata is treated as clean.
package metadata
