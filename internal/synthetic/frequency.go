package synthetic

import (
	"context"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"veritas/internal/imageutil"
	"veritas/internal/services"
)

const (
	blockSize      = 64
	blockStride    = 2 * blockSize
	analysisMaxDim = 1024
	peakFactor     = 2.2
	peakRatioLimit = 0.28
)

// FrequencyStats summarizes the block frequency scan.
type FrequencyStats struct {
	Blocks    int
	Peaks     int
	PeakRatio float64
}

type blockTransform struct {
	fft  *fourier.CmplxFFT
	grid [][]complex128
	line []complex128
	out  []complex128
}

func newBlockTransform() *blockTransform {
	grid := make([][]complex128, blockSize)
	for i := range grid {
		grid[i] = make([]complex128, blockSize)
	}
	return &blockTransform{
		fft:  fourier.NewCmplxFFT(blockSize),
		grid: grid,
		line: make([]complex128, blockSize),
		out:  make([]complex128, blockSize),
	}
}

// isPeak reports whether the block at (x0, y0) has a dominant spectral peak.
// The log-magnitude spectrum is used with the DC bin excluded; a flat block
// has a zero mean and is never a peak.
func (b *blockTransform) isPeak(lum *imageutil.Plane, x0, y0 int) bool {
	for y := 0; y < blockSize; y++ {
		row := b.grid[y]
		for x := 0; x < blockSize; x++ {
			row[x] = complex(lum.At(x0+x, y0+y), 0)
		}
		copy(row, b.fft.Coefficients(b.out, row))
	}
	for x := 0; x < blockSize; x++ {
		for y := 0; y < blockSize; y++ {
			b.line[y] = b.grid[y][x]
		}
		coeffs := b.fft.Coefficients(b.out, b.line)
		for y := 0; y < blockSize; y++ {
			b.grid[y][x] = coeffs[y]
		}
	}

	var sum, peak float64
	for y := 0; y < blockSize; y++ {
		for x := 0; x < blockSize; x++ {
			if x == 0 && y == 0 {
				continue
			}
			m := 20 * math.Log1p(cmplx.Abs(b.grid[y][x]))
			sum += m
			peak = max(peak, m)
		}
	}
	mean := sum / float64(blockSize*blockSize-1)
	if mean <= 1e-9 {
		return false
	}
	return peak > peakFactor*mean
}

// ScanFrequency samples 64×64 blocks on a two-block stride and counts peaks.
func ScanFrequency(ctx context.Context, lum *imageutil.Plane) (FrequencyStats, error) {
	var stats FrequencyStats
	if lum.Empty() {
		return stats, nil
	}
	transform := newBlockTransform()
	for y0 := 0; y0+blockSize <= lum.Height; y0 += blockStride {
		if err := ctx.Err(); err != nil {
			return stats, services.Wrap(services.ErrTimeout, "synthetic", "frequency scan", "", err)
		}
		for x0 := 0; x0+blockSize <= lum.Width; x0 += blockStride {
			stats.Blocks++
			if transform.isPeak(lum, x0, y0) {
				stats.Peaks++
			}
		}
	}
	if stats.Blocks > 0 {
		stats.PeakRatio = float64(stats.Peaks) / float64(stats.Blocks)
	}
	return stats, nil
}
