package engine

import (
	"context"
	"log/slog"

	"veritas/internal/evidence"
	"veritas/internal/imageutil"
	"veritas/internal/logging"
	"veritas/internal/media/frames"
)

const noteVideo = "Video verdict aggregated from per-frame error level analysis."

// Aggregate maps per-frame decisions onto a video verdict. The video is
// authentic only when the authentic fraction strictly exceeds ratio; the
// confidence is that fraction, or its complement, truncated to a whole percent.
func Aggregate(authentic, total int, ratio float64) (evidence.Verdict, float64, float64) {
	if total <= 0 {
		return evidence.VerdictError, 0, 0
	}
	fraction := float64(authentic) / float64(total)
	if fraction > ratio {
		return evidence.VerdictLikelyReal, float64(int(fraction * 100)), fraction
	}
	return evidence.VerdictLikelyAIGenerated, float64(int((1 - fraction) * 100)), fraction
}

func (e *Engine) analyzeVideo(ctx context.Context, logger *slog.Logger, item evidence.Item, meta evidence.SignalReading) evidence.VerdictResult {
	signals := map[string]evidence.SignalReading{StageMetadata: meta}
	e.transition(logger, StateContentAnalysis, StateSampleFrames)

	var readings []evidence.SignalReading
	switch {
	case e.caps.FrameExtraction:
		set, err := e.sampleFrames(ctx, item.Path)
		if err != nil {
			logging.ErrorWithContext(logger, "frame sampling failed",
				"frames_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "confirm ffmpeg can decode this file"),
			)
			return evidence.ErrorResult()
		}
		defer func() {
			if err := set.Close(); err != nil {
				logger.Debug("frame cleanup failed", logging.Error(err))
			}
		}()
		e.transition(logger, StateSampleFrames, StatePerFrameELA)
		readings = e.frameReadings(ctx, logger, set)
	case e.simulate:
		logging.WarnWithContext(logger, "ffmpeg unavailable; simulating frame readings",
			"frames_simulated",
			logging.String(logging.FieldErrorHint, "install ffmpeg or set media.ffmpeg"),
			logging.String(logging.FieldImpact, "video verdict is simulated"),
		)
		e.transition(logger, StateSampleFrames, StatePerFrameELA)
		for range e.frameCount {
			readings = append(readings, e.ela.Simulate())
		}
	default:
		logging.WarnWithContext(logger, "ffmpeg unavailable; video left undecided",
			"frames_unavailable",
			logging.String(logging.FieldErrorHint, "install ffmpeg or set media.ffmpeg"),
			logging.String(logging.FieldImpact, "video verdict is UNCERTAIN"),
		)
		return undecidedVideo(signals, "frame extraction unavailable")
	}

	if len(readings) == 0 {
		logging.ErrorWithContext(logger, "no frames could be analyzed",
			"frames_empty",
			logging.String(logging.FieldErrorHint, "confirm the extracted frames decode"),
		)
		return evidence.ErrorResult()
	}

	e.transition(logger, StatePerFrameELA, StateAggregate)
	authentic, measured := 0, 0
	strengths := make([]float64, 0, len(readings))
	simulated := false
	for _, r := range readings {
		strengths = append(strengths, r.Strength)
		if !votes(r) {
			continue
		}
		measured++
		if r.SupportsAuthentic {
			authentic++
		}
		simulated = simulated || r.Simulated
	}
	if measured == 0 {
		logging.WarnWithContext(logger, "no frame produced an error level reading",
			"frames_unmeasured",
			logging.Int("frames_extracted", len(readings)),
			logging.String(logging.FieldErrorHint, "enable ela or check the frame_ela stage logs"),
			logging.String(logging.FieldImpact, "video verdict is UNCERTAIN"),
		)
		return undecidedVideo(signals, "no frame was measured")
	}
	verdict, confidence, fraction := Aggregate(authentic, measured, e.authenticRatio)

	summary := evidence.Authentic(evidence.SignalFrames, confidence)
	if verdict != evidence.VerdictLikelyReal {
		summary = evidence.NotAuthentic(evidence.SignalFrames, confidence)
	}
	summary = summary.
		With("frames_analyzed", len(readings)).
		With("frames_measured", measured).
		With("frames_authentic", authentic).
		With("authentic_fraction", evidence.Round(fraction, 3)).
		With("frame_strengths", strengths)
	if simulated {
		summary = summary.Simulate()
	}
	signals[string(evidence.SignalFrames)] = summary

	return evidence.VerdictResult{
		Verdict:    verdict,
		Confidence: confidence,
		Score:      evidence.Round(fraction, 3),
		Signals:    signals,
		Simulated:  anySimulated(signals),
		Note:       noteVideo,
	}
}

// votes reports whether a frame reading may count towards the aggregate.
// Neutral substitutes are degraded without being simulated and carry no vote.
func votes(r evidence.SignalReading) bool {
	return !r.Degraded || r.Simulated
}

func undecidedVideo(signals map[string]evidence.SignalReading, reason string) evidence.VerdictResult {
	signals[string(evidence.SignalFrames)] = evidence.Neutral(evidence.SignalFrames, reason)
	return evidence.VerdictResult{
		Verdict:    evidence.VerdictUncertain,
		Confidence: 50,
		Score:      0.5,
		Signals:    signals,
		Simulated:  anySimulated(signals),
		Note:       noteVideo,
	}
}

func (e *Engine) sampleFrames(ctx context.Context, path string) (*frames.Set, error) {
	sampleCtx := ctx
	if e.stageTimeout > 0 {
		var cancel context.CancelFunc
		sampleCtx, cancel = context.WithTimeout(ctx, e.stageTimeout)
		defer cancel()
	}
	return e.sampler.Sample(sampleCtx, path, e.frameCount)
}

func (e *Engine) frameReadings(ctx context.Context, logger *slog.Logger, set *frames.Set) []evidence.SignalReading {
	readings := make([]evidence.SignalReading, 0, len(set.Frames))
	for _, frame := range set.Frames {
		img, _, err := imageutil.Load(frame.Path)
		if err != nil {
			logger.Debug("frame decode failed; skipping",
				logging.Int("frame_index", frame.Index),
				logging.Error(err),
			)
			continue
		}
		region := e.locate(ctx, logger, img)
		readings = append(readings, e.errorLevel(ctx, StageFrameELA, img, region))
	}
	return readings
}
