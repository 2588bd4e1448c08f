package face

import (
	"fmt"
	"image"
	"log/slog"
	"os"

	pigo "github.com/esimov/pigo/core"

	"veritas/internal/evidence"
	"veritas/internal/imageutil"
	"veritas/internal/logging"
	"veritas/internal/services"
)

// detectionMaxDim bounds the image size handed to the cascade.
const detectionMaxDim = 1024

// Detection is a candidate face centred at (Col, Row) with side Scale.
type Detection struct {
	Row   int
	Col   int
	Scale int
	Q     float32
}

// Detector finds faces in an 8-bit grayscale buffer.
type Detector interface {
	Detect(pixels []uint8, rows, cols, minSize int) []Detection
}

// Locator returns the primary face region of an image.
type Locator struct {
	detector  Detector
	minSize   int
	threshold float32
	logger    *slog.Logger
}

// Options configures a Locator.
type Options struct {
	CascadePath      string
	MinSize          int
	QualityThreshold float64
	Logger           *slog.Logger
}

// NewLocator loads the cascade at opts.CascadePath. An empty path produces a
// locator that never finds a face.
func NewLocator(opts Options) (*Locator, error) {
	l := &Locator{
		minSize:   max(opts.MinSize, 20),
		threshold: float32(opts.QualityThreshold),
		logger:    logging.NewComponentLogger(opts.Logger, "face"),
	}
	if opts.CascadePath == "" {
		return l, nil
	}
	data, err := os.ReadFile(opts.CascadePath)
	if err != nil {
		return l, services.Wrap(services.ErrDependencyUnavailable, "face", "read cascade", opts.CascadePath, err)
	}
	detector, err := newPigoDetector(data)
	if err != nil {
		return l, services.Wrap(services.ErrDependencyUnavailable, "face", "unpack cascade", opts.CascadePath, err)
	}
	l.detector = detector
	return l, nil
}

// NewLocatorWithDetector wires a custom detector.
func NewLocatorWithDetector(detector Detector, minSize int, threshold float64) *Locator {
	return &Locator{
		detector:  detector,
		minSize:   max(minSize, 1),
		threshold: float32(threshold),
		logger:    logging.NewNop(),
	}
}

// Available reports whether a detector is loaded.
func (l *Locator) Available() bool {
	return l != nil && l.detector != nil
}

// Locate returns the highest-quality face clipped to image bounds, or nil.
func (l *Locator) Locate(img image.Image) (region *evidence.FaceRegion) {
	if !l.Available() || img == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Debug("face detector panicked", logging.String("panic", fmt.Sprint(r)))
			region = nil
		}
	}()

	bounds := img.Bounds()
	scaled := imageutil.Fit(img, detectionMaxDim)
	sb := scaled.Bounds()
	factor := float64(bounds.Dx()) / float64(sb.Dx())

	gray := imageutil.Luminance(scaled).Gray8()
	minSize := max(1, int(float64(l.minSize)/factor))
	detections := l.detector.Detect(gray, sb.Dy(), sb.Dx(), minSize)

	var best *Detection
	for i := range detections {
		d := detections[i]
		if d.Q <= l.threshold || d.Scale <= 0 {
			continue
		}
		if best == nil || d.Q > best.Q {
			best = &d
		}
	}
	if best == nil {
		return nil
	}
	return clip(best, factor, bounds.Dx(), bounds.Dy())
}

func clip(d *Detection, factor float64, width, height int) *evidence.FaceRegion {
	half := float64(d.Scale) / 2
	r := evidence.FaceRegion{
		X1: int((float64(d.Col) - half) * factor),
		Y1: int((float64(d.Row) - half) * factor),
		X2: int((float64(d.Col) + half) * factor),
		Y2: int((float64(d.Row) + half) * factor),
	}
	r.X1, r.Y1 = max(0, r.X1), max(0, r.Y1)
	r.X2, r.Y2 = min(width, r.X2), min(height, r.Y2)
	if r.Empty() {
		return nil
	}
	return &r
}

type pigoDetector struct {
	classifier *pigo.Pigo
}

func newPigoDetector(cascade []byte) (detector *pigoDetector, err error) {
	defer func() {
		if r := recover(); r != nil {
			detector, err = nil, fmt.Errorf("malformed cascade: %v", r)
		}
	}()
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, err
	}
	return &pigoDetector{classifier: classifier}, nil
}

func (p *pigoDetector) Detect(pixels []uint8, rows, cols, minSize int) []Detection {
	params := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     max(rows, cols),
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}
	raw := p.classifier.RunCascade(params, 0.0)
	raw = p.classifier.ClusterDetections(raw, 0.2)
	out := make([]Detection, 0, len(raw))
	for _, d := range raw {
		out = append(out, Detection{Row: d.Row, Col: d.Col, Scale: d.Scale, Q: d.Q})
	}
	return out
}
