package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"veritas/internal/engine"
	"veritas/internal/evidence"
	"veritas/internal/fileutil"
	"veritas/internal/ledger"
	"veritas/internal/logging"
	"veritas/internal/services"
)

// analysisReport is the CLI view of one verdict.
type analysisReport struct {
	RequestID       string                 `json:"request_id"`
	Path            string                 `json:"path"`
	Kind            evidence.Kind          `json:"kind"`
	SHA256          string                 `json:"sha256,omitempty"`
	SizeBytes       int64                  `json:"size_bytes,omitempty"`
	IsAuthentic     *bool                  `json:"is_authentic"`
	ConfidenceScore int                    `json:"confidence_score"`
	Reused          bool                   `json:"reused,omitempty"`
	ElapsedMS       int64                  `json:"elapsed_ms"`
	Result          evidence.VerdictResult `json:"result"`
}

type analyzer struct {
	engine *engine.Engine
	store  *ledger.Store
	logger *slog.Logger
	reuse  bool
}

// run analyzes item, consulting and updating the ledger when one is open.
// Only ledger failures are returned; analysis failures are carried by the
// ERROR verdict.
func (a *analyzer) run(ctx context.Context, item evidence.Item) (analysisReport, error) {
	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	ctx = services.WithEvidencePath(ctx, item.Path)
	logger := logging.WithContext(ctx, a.logger)

	report := analysisReport{RequestID: requestID, Path: item.Path, Kind: item.Kind}

	digest, size, err := fileutil.Digest(item.Path)
	if err != nil {
		logging.WarnWithContext(logger, "evidence digest unavailable",
			"digest_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "ledger reuse skipped for this file"),
		)
	} else {
		report.SHA256 = digest
		report.SizeBytes = size
	}

	if a.reuse && a.store != nil && report.SHA256 != "" {
		prior, err := a.store.FindLatestByDigest(ctx, report.SHA256)
		if err != nil {
			return report, err
		}
		if prior != nil {
			result, err := prior.Result()
			if err != nil {
				return report, err
			}
			logger.Info("reusing ledger verdict",
				logging.String(logging.FieldEventType, "ledger_reuse"),
				logging.String("prior_request_id", prior.RequestID),
				logging.String("verdict", string(result.Verdict)),
			)
			report.RequestID = prior.RequestID
			report.Reused = true
			report.ElapsedMS = prior.Duration.Milliseconds()
			return report.withResult(result), nil
		}
	}

	if a.store != nil {
		subject := ledger.Subject{Item: item, Digest: report.SHA256, SizeBytes: report.SizeBytes}
		if _, err := a.store.Begin(ctx, requestID, subject); err != nil {
			return report, err
		}
	}

	start := time.Now()
	result := a.engine.Analyze(ctx, item)
	elapsed := time.Since(start)
	report.ElapsedMS = elapsed.Milliseconds()

	if a.store != nil {
		if err := a.store.Complete(ctx, requestID, result, elapsed); err != nil {
			if failErr := a.store.Fail(ctx, requestID, err.Error()); failErr != nil {
				logging.WarnWithContext(logger, "ledger fail update failed",
					"ledger_fail_update_failed",
					logging.Error(failErr),
				)
			}
			return report, err
		}
	}
	return report.withResult(result), nil
}

func (r analysisReport) withResult(result evidence.VerdictResult) analysisReport {
	r.Result = result
	r.IsAuthentic = result.IsAuthentic()
	r.ConfidenceScore = result.ConfidenceScore()
	return r
}
