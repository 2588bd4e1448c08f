package engine

import (
	"context"
	"image"
	"log/slog"

	"veritas/internal/classifier"
	"veritas/internal/ensemble"
	"veritas/internal/evidence"
	"veritas/internal/imageutil"
	"veritas/internal/logging"
	"veritas/internal/metadata"
	"veritas/internal/noise"
)

const (
	noteSynthetic = "Generative up-sampling or symmetry artifacts detected."
	noteELA       = "Compression history is inconsistent across the image."
)

func (e *Engine) analyzeImage(ctx context.Context, logger *slog.Logger, item evidence.Item, meta evidence.SignalReading) evidence.VerdictResult {
	img, format, err := imageutil.Load(item.Path)
	if err != nil {
		logging.ErrorWithContext(logger, "image decode failed",
			"image_unreadable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "confirm the file is a supported image format"),
		)
		return evidence.ErrorResult()
	}
	logger.Debug("image decoded",
		logging.String("format", format),
		logging.Int("width", img.Bounds().Dx()),
		logging.Int("height", img.Bounds().Dy()),
	)

	region := e.locate(ctx, logger, img)
	signals := map[string]evidence.SignalReading{StageMetadata: meta}

	signals[StageELA] = e.errorLevel(ctx, StageELA, img, region)
	signals[StageSynthetic] = e.runStage(ctx, StageSynthetic, evidence.SignalSynthetic, func(ctx context.Context) (evidence.SignalReading, error) {
		return e.synthetic.Analyze(ctx, img, region)
	})
	var rawVariance float64
	signals[StageNoise] = e.runStage(ctx, StageNoise, evidence.SignalNoise, func(context.Context) (evidence.SignalReading, error) {
		rawVariance = noise.Measure(img, region)
		return noise.Reading(rawVariance), nil
	})

	probs := classifier.Neutral()
	signals[StageClassifier] = e.runStage(ctx, StageClassifier, evidence.SignalClassifier, func(ctx context.Context) (evidence.SignalReading, error) {
		var reading evidence.SignalReading
		probs, reading = e.classifier.Classify(ctx, img)
		return reading, nil
	})

	verdict := ensemble.Evaluate(ensemble.Inputs{
		RealProbability: probs.Real,
		AIProbability:   probs.AI,
		EXIFTagCount:    metadata.EXIFTagCount(meta),
		NoiseVariance:   noiseInput(signals[StageNoise], rawVariance),
		FaceDetected:    region != nil,
	})
	signals[string(evidence.SignalEnsemble)] = verdict.Reading

	return decideImage(signals, verdict)
}

// decideImage applies the image policy: a measured synthetic finding wins,
// then a measured error level finding, then the ensemble score.
func decideImage(signals map[string]evidence.SignalReading, verdict ensemble.Result) evidence.VerdictResult {
	if synth := signals[StageSynthetic]; conclusive(synth) {
		return fromReading(synth, signals, noteSynthetic)
	}
	if errLevel := signals[StageELA]; conclusive(errLevel) {
		return fromReading(errLevel, signals, noteELA)
	}
	return evidence.VerdictResult{
		Verdict:    verdict.Verdict,
		Confidence: verdict.Confidence,
		Score:      verdict.Score,
		Signals:    signals,
		Simulated:  anySimulated(signals),
		Note:       ensemble.Note,
	}
}

// conclusive reports a measured negative finding. Simulated and degraded
// readings never decide a verdict on their own.
func conclusive(r evidence.SignalReading) bool {
	return r.Kind != "" && !r.SupportsAuthentic && !r.Degraded
}

// noiseInput feeds the ensemble the unrounded variance; the reading's
// evidence copy is rounded for display and can cross a threshold.
func noiseInput(r evidence.SignalReading, raw float64) float64 {
	if r.Degraded {
		return 0
	}
	return raw
}

func (e *Engine) locate(ctx context.Context, logger *slog.Logger, img image.Image) *evidence.FaceRegion {
	if ctx.Err() != nil {
		return nil
	}
	region := e.locator.Locate(img)
	if region != nil {
		logger.Debug("face located",
			logging.String(logging.FieldStage, StageFace),
			logging.Int("x1", region.X1),
			logging.Int("y1", region.Y1),
			logging.Int("x2", region.X2),
			logging.Int("y2", region.Y2),
		)
	}
	return region
}

// errorLevel runs ELA, honouring the capability gate: a disabled analyzer
// yields a simulated reading when simulation is on and a neutral one otherwise.
func (e *Engine) errorLevel(ctx context.Context, stage string, img image.Image, region *evidence.FaceRegion) evidence.SignalReading {
	if !e.ela.Available() && !e.simulate {
		return evidence.Neutral(evidence.SignalErrorLevel, "error level analysis disabled")
	}
	return e.runStage(ctx, stage, evidence.SignalErrorLevel, func(ctx context.Context) (evidence.SignalReading, error) {
		return e.ela.Analyze(ctx, img, region)
	})
}
