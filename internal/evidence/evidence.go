package evidence

import (
	"math"
	"path/filepath"
	"strings"
)

// Kind identifies the declared type of an evidence file.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
}

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".m4v":  {},
	".mov":  {},
	".mkv":  {},
	".avi":  {},
	".webm": {},
	".wmv":  {},
	".mpg":  {},
	".mpeg": {},
	".3gp":  {},
}

// ParseKind normalizes a user-provided kind string.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindImage:
		return KindImage, true
	case KindVideo:
		return KindVideo, true
	default:
		return "", false
	}
}

// KindFromPath infers the evidence kind from the file extension. Anything that is
// not a known still-image extension is treated as video.
func KindFromPath(path string) Kind {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(path)))
	if _, ok := imageExtensions[ext]; ok {
		return KindImage
	}
	return KindVideo
}

// Supported reports whether path carries a known image or video extension.
// Directory scans use it to skip unrelated files.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(path)))
	if _, ok := imageExtensions[ext]; ok {
		return true
	}
	_, ok := videoExtensions[ext]
	return ok
}

// Item is the immutable analysis input.
type Item struct {
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
}

// FaceRegion is a face rectangle in source-image pixel coordinates. X2/Y2 are exclusive.
type FaceRegion struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns the horizontal extent of the region.
func (r FaceRegion) Width() int { return r.X2 - r.X1 }

// Height returns the vertical extent of the region.
func (r FaceRegion) Height() int { return r.Y2 - r.Y1 }

// Empty reports whether the region covers no pixels.
func (r FaceRegion) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// SignalKind tags the extractor that produced a reading.
type SignalKind string

const (
	SignalMetadata   SignalKind = "metadata"
	SignalErrorLevel SignalKind = "ela"
	SignalSynthetic  SignalKind = "synthetic"
	SignalNoise      SignalKind = "noise"
	SignalClassifier SignalKind = "classifier"
	SignalEnsemble   SignalKind = "ensemble"
	SignalFrames     SignalKind = "frames"
)

// SignalReading is the uniform output of every extractor. Strength is the
// confidence in this reading, not the final score.
type SignalReading struct {
	Kind              SignalKind     `json:"kind"`
	SupportsAuthentic bool           `json:"supports_authentic"`
	Strength          float64        `json:"strength"`
	Simulated         bool           `json:"simulated,omitempty"`
	Degraded          bool           `json:"degraded,omitempty"`
	Evidence          map[string]any `json:"evidence,omitempty"`
}

// Authentic builds a reading that supports authenticity.
func Authentic(kind SignalKind, strength float64) SignalReading {
	return SignalReading{Kind: kind, SupportsAuthentic: true, Strength: ClampStrength(strength), Evidence: map[string]any{}}
}

// NotAuthentic builds a reading that argues against authenticity.
func NotAuthentic(kind SignalKind, strength float64) SignalReading {
	return SignalReading{Kind: kind, SupportsAuthentic: false, Strength: ClampStrength(strength), Evidence: map[string]any{}}
}

// Neutral is substituted when a stage could not run. It never argues against
// authenticity and is marked degraded so callers can tell it apart from a measurement.
func Neutral(kind SignalKind, reason string) SignalReading {
	r := Authentic(kind, 50)
	r.Degraded = true
	if reason != "" {
		r.Evidence["reason"] = reason
	}
	return r
}

// With attaches an evidence value and returns the reading for chaining.
func (r SignalReading) With(key string, value any) SignalReading {
	if r.Evidence == nil {
		r.Evidence = map[string]any{}
	}
	r.Evidence[key] = value
	return r
}

// Verdict is the categorical engine output.
type Verdict string

const (
	VerdictLikelyReal        Verdict = "LIKELY_REAL"
	VerdictLikelyAIGenerated Verdict = "LIKELY_AI_GENERATED"
	VerdictUncertain         Verdict = "UNCERTAIN"
	VerdictError             Verdict = "ERROR"
)

// VerdictResult is produced once per analysis and owned by the caller afterwards.
type VerdictResult struct {
	Verdict    Verdict                  `json:"verdict"`
	Confidence float64                  `json:"confidence"`
	Score      float64                  `json:"score"`
	Signals    map[string]SignalReading `json:"signals,omitempty"`
	Simulated  bool                     `json:"simulated,omitempty"`
	Note       string                   `json:"note,omitempty"`
}

// ErrorResult is returned on total failure.
func ErrorResult() VerdictResult {
	return VerdictResult{Verdict: VerdictError, Confidence: 0, Score: 0}
}

// IsAuthentic maps the verdict onto the collaborator's boolean. Uncertain and
// error verdicts have no boolean answer.
func (v VerdictResult) IsAuthentic() *bool {
	var value bool
	switch v.Verdict {
	case VerdictLikelyReal:
		value = true
	case VerdictLikelyAIGenerated:
		value = false
	default:
		return nil
	}
	return &value
}

// ConfidenceScore returns the integer confidence the collaborator persists.
func (v VerdictResult) ConfidenceScore() int {
	return int(math.Round(v.Confidence))
}

// ClampStrength bounds a strength value to [0,100].
func ClampStrength(value float64) float64 {
	return Clamp(value, 0, 100)
}

// Clamp bounds value to [lo,hi]. NaN collapses to lo.
func Clamp(value, lo, hi float64) float64 {
	if math.IsNaN(value) || value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Round rounds value to the given number of decimal places.
func Round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}

// Lerp maps t in [0,1] onto [lo,hi], clamping t first.
func Lerp(lo, hi, t float64) float64 {
	return lo + (hi-lo)*Clamp(t, 0, 1)
}

// Random is the source used for simulated readings. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

// Sample draws uniformly from [lo,hi]. A nil source returns the midpoint.
func Sample(r Random, lo, hi float64) float64 {
	if r == nil {
		return (lo + hi) / 2
	}
	return lo + (hi-lo)*r.Float64()
}

// Simulate marks a reading as produced without a real measurement.
func (r SignalReading) Simulate() SignalReading {
	r.Simulated = true
	r.Degraded = true
	return r
}
