package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"veritas/internal/classifier"
	"veritas/internal/config"
	"veritas/internal/deps"
	"veritas/internal/ela"
	"veritas/internal/evidence"
	"veritas/internal/face"
	"veritas/internal/logging"
	"veritas/internal/media/ffprobe"
	"veritas/internal/media/frames"
	"veritas/internal/metadata"
	"veritas/internal/services"
	"veritas/internal/stageexec"
	"veritas/internal/synthetic"
)

// Version identifies the decision policy recorded alongside stored verdicts.
const Version = "1.0.0"

// State names a step of the per-call state machine.
type State string

const (
	StateStart           State = "START"
	StateMetadataCheck   State = "METADATA_CHECK"
	StateContentAnalysis State = "CONTENT_ANALYSIS"
	StateSampleFrames    State = "SAMPLE_FRAMES"
	StatePerFrameELA     State = "PER_FRAME_ELA"
	StateAggregate       State = "AGGREGATE"
	StateDone            State = "DONE"
)

// Stage names used in logs and metrics.
const (
	StageMetadata     = "metadata"
	StageFace         = "face"
	StageELA          = "ela"
	StageSynthetic    = "synthetic"
	StageNoise        = "noise"
	StageClassifier   = "classifier"
	StageSampleFrames = "sample_frames"
	StageFrameELA     = "frame_ela"
)

// Observer receives per-stage and per-call measurements.
type Observer interface {
	stageexec.Observer
	ObserveVerdict(kind evidence.Kind, verdict evidence.Verdict, elapsed time.Duration)
}

// Engine analyzes evidence items. It is safe for concurrent use.
type Engine struct {
	caps   deps.Capabilities
	logger *slog.Logger

	scanner    *metadata.Scanner
	locator    *face.Locator
	ela        *ela.Analyzer
	synthetic  *synthetic.Analyzer
	classifier *classifier.Provider
	sampler    *frames.Sampler

	random         evidence.Random
	observer       Observer
	stageLevels    logging.StageLevels
	stageTimeout   time.Duration
	frameCount     int
	authenticRatio float64
	simulate       bool
	ownsClassifier bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRandom pins the source used for simulated readings.
func WithRandom(r evidence.Random) Option {
	return func(e *Engine) {
		if r != nil {
			e.random = &lockedRandom{src: r}
		}
	}
}

// WithCapabilities overrides host capability detection.
func WithCapabilities(caps deps.Capabilities) Option {
	return func(e *Engine) {
		e.caps = caps
	}
}

// WithClassifier injects a shared classifier provider. The engine does not
// close injected providers.
func WithClassifier(p *classifier.Provider) Option {
	return func(e *Engine) {
		e.classifier = p
	}
}

// WithLocator injects a face locator.
func WithLocator(l *face.Locator) Option {
	return func(e *Engine) {
		e.locator = l
	}
}

// WithObserver attaches a metrics sink.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// New builds an engine from configuration. Capabilities are detected once
// here unless overridden.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "engine", "new", "config is required", nil)
	}
	e := &Engine{
		caps:           deps.Detect(cfg),
		logger:         logging.NewNop(),
		stageTimeout:   cfg.StageTimeout(),
		frameCount:     cfg.Engine.VideoFrames,
		authenticRatio: cfg.Engine.VideoAuthenticRatio,
		simulate:       cfg.Engine.SimulateMissing,
	}
	stageLevels, err := logging.ParseStageLevels(cfg.Logging.StageOverrides)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "engine", "new", "invalid logging.stage_overrides", err)
	}
	e.stageLevels = stageLevels
	for _, opt := range opts {
		opt(e)
	}
	if e.random == nil {
		e.random = &lockedRandom{src: NewRandom(cfg.Engine.SimulationSeed)}
	}
	if e.frameCount <= 0 {
		e.frameCount = frames.DefaultCount
	}
	e.logger = logging.NewComponentLogger(e.logger, "engine")

	var scannerOpts []metadata.Option
	scannerOpts = append(scannerOpts, metadata.WithLogger(e.logger))
	if e.caps.ContainerProbe {
		scannerOpts = append(scannerOpts, metadata.WithTagReader(ffprobe.TagReader(e.caps.FFprobe)))
	}
	e.scanner = metadata.NewScanner(cfg.Metadata.ExtraTools, scannerOpts...)

	if e.locator == nil {
		cascade := ""
		if e.caps.FaceDetector {
			cascade = e.caps.CascadePath
		}
		locator, err := face.NewLocator(face.Options{
			CascadePath:      cascade,
			MinSize:          cfg.Face.MinSize,
			QualityThreshold: cfg.Face.QualityThreshold,
			Logger:           e.logger,
		})
		if err != nil {
			logging.WarnWithContext(e.logger, "face detector unavailable",
				"face_detector_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check face.cascade_path"),
				logging.String(logging.FieldImpact, "analysis runs on the whole image only"),
			)
		}
		e.locator = locator
	}

	e.ela = ela.NewAnalyzer(ela.Options{
		Quality:   cfg.ELA.Quality,
		Available: e.caps.ErrorLevel,
		Random:    e.random,
		Logger:    e.logger,
	})
	e.synthetic = synthetic.NewAnalyzer(e.logger)

	if e.classifier == nil {
		e.classifier = classifier.NewProvider(classifier.Options{
			BundleDir:       cfg.Classifier.BundleDir,
			SharedLibrary:   e.caps.SharedLibrary,
			Available:       e.caps.Classifier,
			SimulateMissing: e.simulate,
			Random:          e.random,
			Logger:          e.logger,
		})
		e.ownsClassifier = true
	}

	e.sampler = frames.NewSampler(frames.Options{
		FFmpeg:         e.caps.FFmpeg,
		FFprobe:        e.caps.FFprobe,
		ScratchDir:     cfg.Paths.ScratchDir,
		ProbeAvailable: e.caps.ContainerProbe,
		Logger:         e.logger,
	})

	if missing := e.caps.Missing(); len(missing) > 0 {
		mode := "neutral readings"
		if e.simulate {
			mode = "simulated readings"
		}
		e.logger.Info("optional capabilities missing",
			logging.Any("missing", missing),
			logging.String("fallback", mode),
		)
	}
	return e, nil
}

// Capabilities returns the capability set the engine was built with.
func (e *Engine) Capabilities() deps.Capabilities {
	return e.caps
}

// Close releases the classifier when the engine created it.
func (e *Engine) Close() error {
	if e.ownsClassifier && e.classifier != nil {
		return e.classifier.Close()
	}
	return nil
}

// Analyze produces exactly one verdict for item.
func (e *Engine) Analyze(ctx context.Context, item evidence.Item) (result evidence.VerdictResult) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	ctx = services.WithEvidencePath(ctx, item.Path)
	logger := logging.WithContext(ctx, e.logger)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "analysis aborted",
				"analysis_panic",
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldErrorHint, "report this input; the engine crashed"),
			)
			result = evidence.ErrorResult()
		}
		if e.observer != nil {
			e.observer.ObserveVerdict(item.Kind, result.Verdict, time.Since(start))
		}
		logger.Info("analysis complete",
			logging.String(logging.FieldEventType, "analysis_complete"),
			logging.String("verdict", string(result.Verdict)),
			logging.Float64("confidence", result.Confidence),
			logging.Float64("score", result.Score),
			logging.Bool("simulated", result.Simulated),
			logging.Duration("elapsed", time.Since(start)),
		)
	}()

	e.transition(logger, StateStart, StateMetadataCheck)
	if item.Kind == "" {
		item.Kind = evidence.KindFromPath(item.Path)
	}
	if info, err := os.Stat(item.Path); err != nil || info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is a directory", item.Path)
		}
		logging.ErrorWithContext(logger, "evidence unreadable",
			"evidence_unreadable",
			logging.Error(services.Wrap(services.ErrInputUnreadable, "engine", "stat", item.Path, err)),
			logging.String(logging.FieldErrorHint, "check the evidence path"),
		)
		return evidence.ErrorResult()
	}

	meta := e.runStage(ctx, StageMetadata, evidence.SignalMetadata, func(ctx context.Context) (evidence.SignalReading, error) {
		return e.scanner.Scan(ctx, item), nil
	})
	if !meta.SupportsAuthentic {
		e.transition(logger, StateMetadataCheck, StateDone)
		return fromReading(meta, map[string]evidence.SignalReading{StageMetadata: meta},
			"Editing or generation software recorded in file metadata.")
	}

	e.transition(logger, StateMetadataCheck, StateContentAnalysis)
	switch item.Kind {
	case evidence.KindVideo:
		result = e.analyzeVideo(ctx, logger, item, meta)
	default:
		result = e.analyzeImage(ctx, logger, item, meta)
	}
	e.transition(logger, StateContentAnalysis, StateDone)
	return result
}

func (e *Engine) runStage(ctx context.Context, name string, kind evidence.SignalKind, fn stageexec.Func) evidence.SignalReading {
	var observer stageexec.Observer
	if e.observer != nil {
		observer = e.observer
	}
	return stageexec.Run(ctx, stageexec.Options{
		Logger:    e.stageLevels.ForStage(e.logger, name),
		StageName: name,
		Kind:      kind,
		Timeout:   e.stageTimeout,
		Observer:  observer,
		Run:       fn,
	})
}

func (e *Engine) transition(logger *slog.Logger, from, to State) {
	logger.Debug("state transition",
		logging.String(logging.FieldEventType, "state_transition"),
		logging.String("from", string(from)),
		logging.String("to", string(to)),
	)
}

// fromReading turns a conclusive negative reading into a verdict. The score
// mirrors the reading's strength onto the synthetic end of the scale.
func fromReading(r evidence.SignalReading, signals map[string]evidence.SignalReading, note string) evidence.VerdictResult {
	return evidence.VerdictResult{
		Verdict:    evidence.VerdictLikelyAIGenerated,
		Confidence: evidence.Round(r.Strength, 2),
		Score:      evidence.Round(evidence.Clamp(1-r.Strength/100, 0, 1), 3),
		Signals:    signals,
		Simulated:  anySimulated(signals),
		Note:       note,
	}
}

func anySimulated(signals map[string]evidence.SignalReading) bool {
	for _, r := range signals {
		if r.Simulated {
			return true
		}
	}
	return false
}
