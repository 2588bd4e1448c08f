package ela

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"log/slog"

	"veritas/internal/evidence"
	"veritas/internal/imageutil"
	"veritas/internal/logging"
	"veritas/internal/services"
)

const (
	defaultQuality = 90

	portraitVariance  = 100.0
	portraitDelta     = 18.0
	standardDelta     = 12.0
	globalAvgLimit    = 40.0
	varianceLimit     = 150.0
	simulatedStrength = 88.0
	simulatedCeiling  = 96.0
)

// Stats summarizes an error map.
type Stats struct {
	GlobalAvg  float64
	Variance   float64
	HasFace    bool
	FaceError  float64
	Delta      float64
	IsPortrait bool
}

// Options configures an Analyzer.
type Options struct {
	Quality   int
	Available bool
	Random    evidence.Random
	Logger    *slog.Logger
}

// Analyzer runs error level analysis.
type Analyzer struct {
	quality   int
	available bool
	random    evidence.Random
	logger    *slog.Logger
}

// NewAnalyzer builds an analyzer. When opts.Available is false every call
// returns a simulated reading.
func NewAnalyzer(opts Options) *Analyzer {
	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}
	return &Analyzer{
		quality:   quality,
		available: opts.Available,
		random:    opts.Random,
		logger:    logging.NewComponentLogger(opts.Logger, "ela"),
	}
}

// Available reports whether real measurements are taken.
func (a *Analyzer) Available() bool {
	return a.available
}

// Analyze measures img and classifies the result.
func (a *Analyzer) Analyze(ctx context.Context, img image.Image, face *evidence.FaceRegion) (evidence.SignalReading, error) {
	if !a.available {
		return a.Simulate(), nil
	}
	stats, err := a.Measure(ctx, img, face)
	if err != nil {
		return evidence.Neutral(evidence.SignalErrorLevel, "error level analysis failed"), err
	}
	reading := Decide(stats)
	logging.WithContext(ctx, a.logger).Debug("error level analysis complete",
		logging.Float64("global_avg", evidence.Round(stats.GlobalAvg, 3)),
		logging.Float64("variance", evidence.Round(stats.Variance, 3)),
		logging.Bool("has_face", stats.HasFace),
		logging.Float64("delta", evidence.Round(stats.Delta, 3)),
		logging.Bool("supports_authentic", reading.SupportsAuthentic),
	)
	return reading, nil
}

// Simulate returns a tagged reading drawn from the plausible authentic range.
func (a *Analyzer) Simulate() evidence.SignalReading {
	strength := evidence.Sample(a.random, simulatedStrength, simulatedCeiling)
	return evidence.Authentic(evidence.SignalErrorLevel, evidence.Round(strength, 2)).
		Simulate().
		With("reason", "error level analysis unavailable")
}

// Measure re-encodes img in memory and computes error map statistics.
func (a *Analyzer) Measure(ctx context.Context, img image.Image, face *evidence.FaceRegion) (Stats, error) {
	if img == nil {
		return Stats{}, services.Wrap(services.ErrInputUnreadable, "ela", "measure", "nil image", nil)
	}
	original := imageutil.ToRGBA(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, original, &jpeg.Options{Quality: a.quality}); err != nil {
		return Stats{}, services.Wrap(services.ErrStageFailure, "ela", "re-encode", "", err)
	}
	decoded, err := jpeg.Decode(&buf)
	if err != nil {
		return Stats{}, services.Wrap(services.ErrStageFailure, "ela", "decode re-encoded", "", err)
	}
	resaved := imageutil.ToRGBA(decoded)

	errMap, err := errorMap(ctx, original, resaved)
	if err != nil {
		return Stats{}, err
	}
	return Summarize(errMap, face), nil
}

// errorMap averages the absolute per-channel difference of two same-sized images.
func errorMap(ctx context.Context, a, b *image.RGBA) (*imageutil.Plane, error) {
	w, h := a.Rect.Dx(), a.Rect.Dy()
	out := imageutil.NewPlane(w, h)
	for y := 0; y < h; y++ {
		if y%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, services.Wrap(services.ErrTimeout, "ela", "error map", "", err)
			}
		}
		ra := a.Pix[y*a.Stride : y*a.Stride+w*4]
		rb := b.Pix[y*b.Stride : y*b.Stride+w*4]
		for x := 0; x < w; x++ {
			i := x * 4
			sum := absDiff(ra[i], rb[i]) + absDiff(ra[i+1], rb[i+1]) + absDiff(ra[i+2], rb[i+2])
			out.Pix[y*w+x] = float64(sum) / 3
		}
	}
	return out, nil
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// Summarize reduces an error map to Stats.
func Summarize(errMap *imageutil.Plane, face *evidence.FaceRegion) Stats {
	var stats Stats
	stats.GlobalAvg, stats.Variance = errMap.MeanVariance()
	stats.IsPortrait = stats.Variance > portraitVariance
	if face != nil && !face.Empty() {
		region := errMap.Region(*face)
		if !region.Empty() {
			stats.HasFace = true
			stats.FaceError, _ = region.MeanVariance()
			stats.Delta = abs(stats.FaceError - stats.GlobalAvg)
		}
	}
	return stats
}

// Decide maps error map statistics onto a reading. Strengths inside each
// band are derived from the measured quantity so identical input yields an
// identical reading.
func Decide(stats Stats) evidence.SignalReading {
	threshold := standardDelta
	if stats.IsPortrait {
		threshold = portraitDelta
	}

	var reading evidence.SignalReading
	switch {
	case stats.HasFace && stats.Delta > threshold:
		reading = evidence.NotAuthentic(evidence.SignalErrorLevel, min(99, 85+stats.Delta*2)).
			With("finding", "face_inconsistency")
	case stats.GlobalAvg > globalAvgLimit:
		reading = evidence.NotAuthentic(evidence.SignalErrorLevel,
			evidence.Lerp(85, 92, (stats.GlobalAvg-globalAvgLimit)/globalAvgLimit)).
			With("finding", "high_global_error")
	case stats.Variance > varianceLimit:
		reading = evidence.NotAuthentic(evidence.SignalErrorLevel,
			evidence.Lerp(88, 95, (stats.Variance-varianceLimit)/varianceLimit)).
			With("finding", "high_error_variance")
	default:
		reading = evidence.Authentic(evidence.SignalErrorLevel,
			evidence.Lerp(92, 98, 1-stats.Variance/varianceLimit)).
			With("finding", "consistent")
	}
	reading.Strength = evidence.Round(reading.Strength, 2)
	reading = reading.
		With("global_avg", evidence.Round(stats.GlobalAvg, 3)).
		With("variance", evidence.Round(stats.Variance, 3)).
		With("is_portrait", stats.IsPortrait)
	if stats.HasFace {
		reading = reading.
			With("face_error", evidence.Round(stats.FaceError, 3)).
			With("delta", evidence.Round(stats.Delta, 3)).
			With("delta_threshold", threshold)
	}
	return reading
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
