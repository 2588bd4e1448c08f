package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"veritas/internal/evidence"
	"veritas/internal/logging"
	"veritas/internal/services"
)

// Func is one analysis stage.
type Func func(ctx context.Context) (evidence.SignalReading, error)

// Outcome labels how a stage finished.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeSimulated Outcome = "simulated"
	OutcomeRecovered Outcome = "recovered"
	OutcomePanicked  Outcome = "panicked"
)

// Observer receives stage timings.
type Observer interface {
	ObserveStage(stage string, elapsed time.Duration, outcome Outcome)
}

// Options controls a single stage execution.
type Options struct {
	Logger    *slog.Logger
	StageName string
	Kind      evidence.SignalKind
	Timeout   time.Duration
	Observer  Observer
	Run       Func
}

// Run executes a stage under its own timeout. Errors and panics are absorbed:
// the caller always gets a reading, neutral when the stage could not finish.
func Run(ctx context.Context, opts Options) (reading evidence.SignalReading) {
	stageCtx := services.WithStage(ctx, opts.StageName)
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(stageCtx, opts.Timeout)
		defer cancel()
	}
	logger := logging.WithContext(stageCtx, opts.Logger)
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	start := time.Now()
	outcome := OutcomeOK
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomePanicked
			reading = evidence.Neutral(opts.Kind, "stage panicked")
			logging.WarnWithContext(logger, "stage panicked",
				"stage_panic",
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldErrorHint, "report this input; the stage crashed"),
			)
		}
		if opts.Observer != nil {
			opts.Observer.ObserveStage(opts.StageName, time.Since(start), outcome)
		}
	}()

	if opts.Run == nil {
		outcome = OutcomeRecovered
		return evidence.Neutral(opts.Kind, "stage not configured")
	}
	result, err := opts.Run(stageCtx)
	if err == nil && stageCtx.Err() != nil {
		err = stageCtx.Err()
	}
	if err != nil {
		outcome = OutcomeRecovered
		hint := "check logs for details"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, services.ErrTimeout) {
			hint = "raise engine.stage_timeout_seconds or analyze a smaller file"
		}
		logging.WarnWithContext(logger, "stage failed; using neutral reading",
			"stage_recovered",
			logging.ErrorKind(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.Error(err),
		)
		return evidence.Neutral(opts.Kind, services.Classify(err))
	}
	if result.Kind == "" {
		result.Kind = opts.Kind
	}
	if result.Simulated {
		outcome = OutcomeSimulated
	}
	logger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Reading(result),
		logging.Duration("elapsed", time.Since(start)),
	)
	return result
}
