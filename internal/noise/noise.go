package noise

import (
	"image"
	"math"

	"veritas/internal/evidence"
	"veritas/internal/imageutil"
)

// Measure returns the Laplacian variance of the 8-bit grayscale rendition of
// img, restricted to crop when set. Borders are reflected without repeating
// the edge pixel.
func Measure(img image.Image, crop *evidence.FaceRegion) float64 {
	if img == nil {
		return 0
	}
	lum := imageutil.Luminance(img).Quantize()
	if crop != nil && !crop.Empty() {
		if region := lum.Region(*crop); !region.Empty() {
			lum = region
		}
	}
	return LaplacianVariance(lum)
}

// MeasureFile decodes path and measures it. Unreadable input yields 0.
func MeasureFile(path string, crop *evidence.FaceRegion) float64 {
	img, _, err := imageutil.Load(path)
	if err != nil {
		return 0
	}
	return Measure(img, crop)
}

// LaplacianVariance applies the [0 1 0; 1 -4 1; 0 1 0] kernel and returns the
// population variance of the response.
func LaplacianVariance(p *imageutil.Plane) float64 {
	if p.Empty() {
		return 0
	}
	w, h := p.Width, p.Height
	response := make([]float64, w*h)
	for y := 0; y < h; y++ {
		up, down := reflect101(y-1, h), reflect101(y+1, h)
		for x := 0; x < w; x++ {
			left, right := reflect101(x-1, w), reflect101(x+1, w)
			response[y*w+x] = p.At(x, up) + p.At(x, down) + p.At(left, y) + p.At(right, y) - 4*p.At(x, y)
		}
	}
	_, variance := imageutil.MeanVariance(response)
	return variance
}

// reflect101 mirrors an out-of-range index around the edge (gfedcb|abcdefgh|gfedcba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// Reading wraps a variance as a signal. It leans authentic above the mid
// texture band used by the ensemble; strength grows with distance from it.
func Reading(variance float64) evidence.SignalReading {
	const band = 150.0
	distance := evidence.Clamp(math.Abs(variance-band)/band, 0, 1)
	strength := evidence.Round(evidence.Lerp(50, 100, distance), 2)
	r := evidence.NotAuthentic(evidence.SignalNoise, strength)
	if variance > band {
		r = evidence.Authentic(evidence.SignalNoise, strength)
	}
	return r.With("variance", evidence.Round(variance, 2))
}
