package synthetic

import (
	"context"
	"image"
	"log/slog"

	"veritas/internal/evidence"
	"veritas/internal/imageutil"
	"veritas/internal/logging"
	"veritas/internal/services"
)

// Analyzer runs the frequency and symmetry checks.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer builds an Analyzer.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	return &Analyzer{logger: logging.NewComponentLogger(logger, "synthetic")}
}

// Analyze returns a synthetic finding when either check fires, otherwise an
// authentic reading with strength 100.
func (a *Analyzer) Analyze(ctx context.Context, img image.Image, face *evidence.FaceRegion) (evidence.SignalReading, error) {
	if img == nil {
		return evidence.Neutral(evidence.SignalSynthetic, "no image"),
			services.Wrap(services.ErrInputUnreadable, "synthetic", "analyze", "nil image", nil)
	}

	lum := imageutil.Luminance(imageutil.Fit(img, analysisMaxDim))
	freq, err := ScanFrequency(ctx, lum)
	if err != nil {
		return evidence.Neutral(evidence.SignalSynthetic, "frequency scan interrupted"), err
	}

	var sym SymmetryStats
	if face != nil && !face.Empty() {
		sym = CheckSymmetry(imageutil.Luminance(imageutil.Crop(img, *face)))
	}

	reading := Decide(freq, sym)
	logging.WithContext(ctx, a.logger).Debug("synthetic analysis complete",
		logging.Int("blocks", freq.Blocks),
		logging.Float64("peak_ratio", evidence.Round(freq.PeakRatio, 4)),
		logging.Bool("symmetry_checked", sym.Checked),
		logging.Bool("eye_occluded", sym.Occluded),
		logging.Float64("symmetry_mse", evidence.Round(sym.MSE, 2)),
	)
	return reading, nil
}

// Decide combines both checks. Strengths are derived from how far past the
// threshold the measurement lies.
func Decide(freq FrequencyStats, sym SymmetryStats) evidence.SignalReading {
	var reading evidence.SignalReading
	switch {
	case freq.PeakRatio > peakRatioLimit:
		strength := evidence.Lerp(90, 96, (freq.PeakRatio-peakRatioLimit)/(1-peakRatioLimit))
		reading = evidence.NotAuthentic(evidence.SignalSynthetic, evidence.Round(strength, 2)).
			With("finding", "frequency_peaks")
	case sym.Checked && sym.MSE < symmetryMSELimit:
		strength := evidence.Lerp(94, 98, 1-sym.MSE/symmetryMSELimit)
		reading = evidence.NotAuthentic(evidence.SignalSynthetic, evidence.Round(strength, 2)).
			With("finding", "face_symmetry")
	default:
		reading = evidence.Authentic(evidence.SignalSynthetic, 100).
			With("finding", "none")
	}
	reading = reading.
		With("blocks", freq.Blocks).
		With("peak_ratio", evidence.Round(freq.PeakRatio, 4))
	switch {
	case sym.Occluded:
		reading = reading.With("symmetry", "skipped_occluded")
	case sym.Checked:
		reading = reading.With("symmetry_mse", evidence.Round(sym.MSE, 2))
	default:
		reading = reading.With("symmetry", "no_face")
	}
	return reading
}
