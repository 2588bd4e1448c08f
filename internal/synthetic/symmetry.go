package synthetic

import (
	"veritas/internal/imageutil"
)

const (
	occlusionMean     = 60.0
	occlusionVariance = 300.0
	symmetryMSELimit  = 350.0
)

// SymmetryStats describes the mirror comparison of a face crop.
type SymmetryStats struct {
	Checked  bool
	Occluded bool
	MSE      float64
}

// EyeBandOccluded reports a dark, flat band across the upper-middle of the
// face, the usual signature of sunglasses.
func EyeBandOccluded(face *imageutil.Plane) bool {
	w, h := face.Width, face.Height
	band := face.Sub(w/8, h/4, w-w/8, h/2)
	if band.Empty() {
		return false
	}
	mean, variance := band.MeanVariance()
	return mean < occlusionMean && variance < occlusionVariance
}

// MirrorMSE compares the left half of the face with the mirrored right half.
func MirrorMSE(face *imageutil.Plane) (float64, bool) {
	half := face.Width / 2
	if half == 0 || face.Height == 0 {
		return 0, false
	}
	var sum float64
	for y := 0; y < face.Height; y++ {
		for x := 0; x < half; x++ {
			d := face.At(x, y) - face.At(face.Width-1-x, y)
			sum += d * d
		}
	}
	return sum / float64(half*face.Height), true
}

// CheckSymmetry runs the occlusion gate and mirror comparison.
func CheckSymmetry(face *imageutil.Plane) SymmetryStats {
	if face.Empty() {
		return SymmetryStats{}
	}
	if EyeBandOccluded(face) {
		return SymmetryStats{Occluded: true}
	}
	mse, ok := MirrorMSE(face)
	return SymmetryStats{Checked: ok, MSE: mse}
}
