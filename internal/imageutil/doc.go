// Package imageutil holds the pixel plumbing shared by the image extractors:
// decoding (JPEG, PNG, GIF, WebP, BMP, TIFF), BT.601 luminance planes,
// bounded resampling, face crops, and population statistics.
package imageutil
