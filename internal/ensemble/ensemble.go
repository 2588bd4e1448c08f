// Package ensemble folds the classifier probability, EXIF presence, and noise
// variance into one authenticity score and maps it onto a verdict.
package ensemble

import (
	"math"

	"veritas/internal/evidence"
)

// Note accompanies every ensemble verdict.
const Note = "Ensemble AI analysis. Portrait photos & edited images may resemble AI."

const (
	prior            = 0.5
	classifierWeight = 0.35
	exifBonus        = 0.25
	exifPenalty      = -0.15
	exifMinTags      = 5
	noiseHigh        = 300.0
	noiseMid         = 150.0
	noiseHighBonus   = 0.25
	noiseMidBonus    = 0.10
	noisePenalty     = -0.20
	realThreshold    = 0.75
	aiThreshold      = 0.30
)

// Inputs are the measurements the ensemble consumes.
type Inputs struct {
	RealProbability float64
	AIProbability   float64
	EXIFTagCount    int
	NoiseVariance   float64
	FaceDetected    bool
}

// EXIFPresent reports whether enough EXIF tags exist to count as camera metadata.
func (in Inputs) EXIFPresent() bool {
	return in.EXIFTagCount > exifMinTags
}

// Score returns the clamped authenticity score in [0,1].
func Score(in Inputs) float64 {
	score := prior
	score += (in.RealProbability - in.AIProbability) * classifierWeight
	if in.EXIFPresent() {
		score += exifBonus
	} else {
		score += exifPenalty
	}
	switch {
	case in.NoiseVariance > noiseHigh:
		score += noiseHighBonus
	case in.NoiseVariance > noiseMid:
		score += noiseMidBonus
	default:
		score += noisePenalty
	}
	return evidence.Clamp(score, 0, 1)
}

// Decide maps a score onto a verdict and confidence. Confidence is
// (1 - |score - 0.5|) × 100 rounded to two places.
func Decide(score float64) (evidence.Verdict, float64) {
	var verdict evidence.Verdict
	switch {
	case score >= realThreshold:
		verdict = evidence.VerdictLikelyReal
	case score <= aiThreshold:
		verdict = evidence.VerdictLikelyAIGenerated
	default:
		verdict = evidence.VerdictUncertain
	}
	return verdict, evidence.Round((1-math.Abs(score-prior))*100, 2)
}

// Result is the ensemble outcome.
type Result struct {
	Verdict    evidence.Verdict
	Confidence float64
	Score      float64
	Reading    evidence.SignalReading
}

// Evaluate scores in and builds the ensemble reading.
func Evaluate(in Inputs) Result {
	score := Score(in)
	verdict, confidence := Decide(score)
	reading := evidence.Authentic(evidence.SignalEnsemble, confidence)
	if score < prior {
		reading = evidence.NotAuthentic(evidence.SignalEnsemble, confidence)
	}
	reading = reading.
		With("sdxl_ai_probability", evidence.Round(in.AIProbability*100, 2)).
		With("exif_present", in.EXIFPresent()).
		With("noise_variance", evidence.Round(in.NoiseVariance, 2)).
		With("face_detected", in.FaceDetected)
	return Result{
		Verdict:    verdict,
		Confidence: confidence,
		Score:      evidence.Round(score, 3),
		Reading:    reading,
	}
}
