package services

import "context"

type contextKey string

const (
	stageKey        contextKey = "stage"
	requestIDKey    contextKey = "request_id"
	evidencePathKey contextKey = "evidence_path"
)

// WithStage annotates context with the engine stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithEvidencePath annotates context with the evidence file under analysis.
func WithEvidencePath(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, evidencePathKey, path)
}

// EvidencePathFromContext returns the evidence path if present.
func EvidencePathFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(evidencePathKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
