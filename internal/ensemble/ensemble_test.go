package ensemble

import (
	"math"
	"testing"

	"veritas/internal/evidence"
)

func TestScoreContributions(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
		want float64
	}{
		{"neutral classifier, no exif, flat noise", Inputs{RealProbability: 0.5, AIProbability: 0.5, NoiseVariance: 10}, 0.15},
		{"neutral classifier, exif, high noise", Inputs{RealProbability: 0.5, AIProbability: 0.5, EXIFTagCount: 6, NoiseVariance: 301}, 1.0},
		{"five tags is not present", Inputs{RealProbability: 0.5, AIProbability: 0.5, EXIFTagCount: 5, NoiseVariance: 200}, 0.45},
		{"mid noise", Inputs{RealProbability: 0.5, AIProbability: 0.5, EXIFTagCount: 8, NoiseVariance: 151}, 0.85},
		{"confident real", Inputs{RealProbability: 0.9, AIProbability: 0.1, EXIFTagCount: 0, NoiseVariance: 400}, 0.88},
		{"confident ai clamps to zero", Inputs{RealProbability: 0, AIProbability: 1, NoiseVariance: 0}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(tc.in); math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("Score=%v want %v", got, tc.want)
			}
		})
	}
}

func TestDecideThresholds(t *testing.T) {
	tests := []struct {
		score      float64
		verdict    evidence.Verdict
		confidence float64
	}{
		{0.75, evidence.VerdictLikelyReal, 75},
		{1.0, evidence.VerdictLikelyReal, 50},
		{0.7499, evidence.VerdictUncertain, 75.01},
		{0.5, evidence.VerdictUncertain, 100},
		{0.30, evidence.VerdictLikelyAIGenerated, 80},
		{0.3001, evidence.VerdictUncertain, 80.01},
		{0, evidence.VerdictLikelyAIGenerated, 50},
	}
	for _, tc := range tests {
		verdict, confidence := Decide(tc.score)
		if verdict != tc.verdict {
			t.Fatalf("Decide(%v) verdict=%s want %s", tc.score, verdict, tc.verdict)
		}
		if math.Abs(confidence-tc.confidence) > 1e-9 {
			t.Fatalf("Decide(%v) confidence=%v want %v", tc.score, confidence, tc.confidence)
		}
	}
}

func TestScoreAlwaysInUnitInterval(t *testing.T) {
	for _, authentic := range []float64{0, 0.25, 0.5, 0.75, 1} {
		for _, tags := range []int{0, 6} {
			for _, noise := range []float64{0, 200, 1e6} {
				in := Inputs{RealProbability: authentic, AIProbability: 1 - authentic, EXIFTagCount: tags, NoiseVariance: noise}
				score := Score(in)
				if score < 0 || score > 1 {
					t.Fatalf("score %v out of range for %+v", score, in)
				}
				_, confidence := Decide(score)
				if confidence < 0 || confidence > 100 {
					t.Fatalf("confidence %v out of range for %+v", confidence, in)
				}
			}
		}
	}
}

func TestScoreMonotonicInRealProbability(t *testing.T) {
	prev := -1.0
	for step := 0; step <= 20; step++ {
		realProb := float64(step) / 20
		score := Score(Inputs{RealProbability: realProb, AIProbability: 1 - realProb, EXIFTagCount: 0, NoiseVariance: 200})
		if score <= prev {
			t.Fatalf("score not increasing at real=%v: %v <= %v", realProb, score, prev)
		}
		prev = score
	}
}

func TestEvaluateRoundsAndRecordsSignals(t *testing.T) {
	result := Evaluate(Inputs{RealProbability: 0.61234, AIProbability: 0.38766, EXIFTagCount: 9, NoiseVariance: 512.3456, FaceDetected: true})
	// 0.5 + 0.22468*0.35 + 0.25 + 0.25 clamps to 1.
	if result.Score != 1 || result.Verdict != evidence.VerdictLikelyReal || result.Confidence != 50 {
		t.Fatalf("unexpected result %+v", result)
	}
	ev := result.Reading.Evidence
	if ev["sdxl_ai_probability"] != 38.77 {
		t.Fatalf("unexpected ai probability %v", ev["sdxl_ai_probability"])
	}
	if ev["noise_variance"] != 512.35 {
		t.Fatalf("unexpected noise %v", ev["noise_variance"])
	}
	if ev["exif_present"] != true || ev["face_detected"] != true {
		t.Fatalf("unexpected flags %v", ev)
	}
	if !result.Reading.SupportsAuthentic {
		t.Fatal("expected authentic-leaning ensemble reading")
	}
}
