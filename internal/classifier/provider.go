package classifier

import (
	"context"
	"image"
	"log/slog"
	"sync"

	"veritas/internal/evidence"
	"veritas/internal/logging"
	"veritas/internal/services"
)

const (
	simulatedFloor   = 0.35
	simulatedCeiling = 0.65
)

// Options configures a Provider.
type Options struct {
	BundleDir     string
	SharedLibrary string
	// Available is false when the capability check found no bundle or runtime.
	Available bool
	// SimulateMissing draws a random probability instead of a neutral 0.5.
	SimulateMissing bool
	Random          evidence.Random
	Logger          *slog.Logger
	Loader          Loader
}

// Provider owns the process-wide classifier. The model is loaded on first
// use; a failed load is remembered and later calls fall back immediately.
type Provider struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	loaded  bool
	model   Model
	loadErr error
}

// NewProvider builds a provider without touching the runtime.
func NewProvider(opts Options) *Provider {
	if opts.Loader == nil {
		opts.Loader = LoadONNX
	}
	return &Provider{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "classifier"),
	}
}

func (p *Provider) acquire(ctx context.Context) (Model, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.model, p.loadErr
	}
	p.loaded = true
	if !p.opts.Available {
		p.loadErr = services.Wrap(services.ErrDependencyUnavailable, "classifier", "load", "model bundle or onnxruntime not found", nil)
		return nil, p.loadErr
	}
	model, err := p.opts.Loader(p.opts.BundleDir, p.opts.SharedLibrary)
	if err != nil {
		p.loadErr = services.Wrap(services.ErrDependencyUnavailable, "classifier", "load", p.opts.BundleDir, err)
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "classifier load failed",
			"classifier_load_failed",
			logging.String(logging.FieldErrorHint, "check classifier.bundle_dir and classifier.shared_library"),
			logging.Error(err),
		)
		return nil, p.loadErr
	}
	p.model = model
	logging.WithContext(ctx, p.logger).Info("classifier loaded", logging.String("bundle_dir", p.opts.BundleDir))
	return model, nil
}

// Ready reports whether a model is loaded, loading it if needed.
func (p *Provider) Ready(ctx context.Context) bool {
	model, err := p.acquire(ctx)
	return err == nil && model != nil
}

// Classify returns class probabilities plus a classifier reading. It never
// fails: missing models yield simulated or neutral probabilities, and
// inference errors yield neutral probabilities.
func (p *Provider) Classify(ctx context.Context, img image.Image) (Probabilities, evidence.SignalReading) {
	model, err := p.acquire(ctx)
	if err != nil {
		return p.fallback()
	}
	probs, err := model.Predict(ctx, img)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "classifier inference failed",
			"classifier_inference_failed",
			logging.Error(err),
		)
		return Neutral(), evidence.Neutral(evidence.SignalClassifier, "classifier inference failed")
	}
	return probs, reading(probs)
}

func (p *Provider) fallback() (Probabilities, evidence.SignalReading) {
	if !p.opts.SimulateMissing {
		return Neutral(), evidence.Neutral(evidence.SignalClassifier, "classifier unavailable")
	}
	ai := evidence.Round(evidence.Sample(p.opts.Random, simulatedFloor, simulatedCeiling), 4)
	probs := Probabilities{Real: 1 - ai, AI: ai}
	return probs, reading(probs).Simulate().With("reason", "classifier unavailable")
}

func reading(probs Probabilities) evidence.SignalReading {
	var r evidence.SignalReading
	if probs.Real >= probs.AI {
		r = evidence.Authentic(evidence.SignalClassifier, probs.Real*100)
	} else {
		r = evidence.NotAuthentic(evidence.SignalClassifier, probs.AI*100)
	}
	return r.
		With("ai_probability", evidence.Round(probs.AI, 4)).
		With("real_probability", evidence.Round(probs.Real, 4))
}

// Close releases the loaded model.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == nil {
		return nil
	}
	err := p.model.Close()
	p.model = nil
	p.loaded = false
	p.loadErr = nil
	return err
}
