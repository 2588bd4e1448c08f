package imageutil

import (
	"image"

	"veritas/internal/evidence"
)

// Plane is a single-channel float image in row-major order.
type Plane struct {
	Width  int
	Height int
	Pix    []float64
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height int) *Plane {
	return &Plane{Width: width, Height: height, Pix: make([]float64, width*height)}
}

// Luminance converts img to BT.601 luma in the 0..255 range.
func Luminance(img image.Image) *Plane {
	b := img.Bounds()
	p := NewPlane(b.Dx(), b.Dy())
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			p.Pix[y*p.Width+x] = luma(r, g, bl)
		}
	}
	return p
}

func luma(r, g, b uint32) float64 {
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
}

// At returns the value at (x, y).
func (p *Plane) At(x, y int) float64 {
	return p.Pix[y*p.Width+x]
}

// Set stores v at (x, y).
func (p *Plane) Set(x, y int, v float64) {
	p.Pix[y*p.Width+x] = v
}

// Empty reports whether the plane has no pixels.
func (p *Plane) Empty() bool {
	return p == nil || p.Width == 0 || p.Height == 0
}

// Sub copies the rectangle [x1,x2)×[y1,y2) clipped to the plane.
func (p *Plane) Sub(x1, y1, x2, y2 int) *Plane {
	x1, y1 = max(0, x1), max(0, y1)
	x2, y2 = min(p.Width, x2), min(p.Height, y2)
	if x2 <= x1 || y2 <= y1 {
		return NewPlane(0, 0)
	}
	out := NewPlane(x2-x1, y2-y1)
	for y := y1; y < y2; y++ {
		copy(out.Pix[(y-y1)*out.Width:(y-y1+1)*out.Width], p.Pix[y*p.Width+x1:y*p.Width+x2])
	}
	return out
}

// Region copies a face region out of the plane.
func (p *Plane) Region(r evidence.FaceRegion) *Plane {
	return p.Sub(r.X1, r.Y1, r.X2, r.Y2)
}

// MeanVariance returns the mean and population variance of the plane.
func (p *Plane) MeanVariance() (float64, float64) {
	if p.Empty() {
		return 0, 0
	}
	return MeanVariance(p.Pix)
}

// Gray8 returns the plane quantized to 8-bit grayscale bytes.
func (p *Plane) Gray8() []uint8 {
	out := make([]uint8, len(p.Pix))
	for i, v := range p.Pix {
		out[i] = clampByte(v)
	}
	return out
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

// Quantize rounds every value to the nearest 8-bit level in place, matching
// what an 8-bit grayscale decode would produce.
func (p *Plane) Quantize() *Plane {
	for i, v := range p.Pix {
		p.Pix[i] = float64(clampByte(v))
	}
	return p
}
