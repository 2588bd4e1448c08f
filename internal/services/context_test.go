package services_test

import (
	"context"
	"testing"

	"veritas/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "ela")
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithEvidencePath(ctx, "/uploads/a.jpg")

	if stage, ok := services.StageFromContext(ctx); !ok || stage != "ela" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if path, ok := services.EvidencePathFromContext(ctx); !ok || path != "/uploads/a.jpg" {
		t.Fatalf("unexpected evidence path: %v %v", path, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected blank stage to be ignored")
	}
	ctx = services.WithRequestID(ctx, "")
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected blank request id to be ignored")
	}
}
