package classifier

import "math"

// Probabilities are the real and AI class probabilities.
type Probabilities struct {
	Real float64
	AI   float64
}

// Neutral is used when no classifier output exists.
func Neutral() Probabilities {
	return Probabilities{Real: 0.5, AI: 0.5}
}

func softmax(logits []float32) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	peak := math.Inf(-1)
	for _, v := range logits {
		peak = math.Max(peak, float64(v))
	}
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(float64(v) - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
