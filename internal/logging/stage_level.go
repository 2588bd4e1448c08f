package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// StageLevels maps analysis stage names to their minimum log level.
type StageLevels map[string]slog.Level

// ParseLevel converts a configured level name. Unlike the global level, an
// unknown override name is an error rather than a silent fallback to info.
func ParseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", value)
	}
}

// ParseStageLevels validates per-stage overrides. Blank values are skipped.
func ParseStageLevels(overrides map[string]string) (StageLevels, error) {
	levels := make(StageLevels, len(overrides))
	for stage, value := range overrides {
		if strings.TrimSpace(value) == "" {
			continue
		}
		level, err := ParseLevel(value)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage, err)
		}
		levels[strings.ToLower(strings.TrimSpace(stage))] = level
	}
	return levels, nil
}

// Lowest returns the most verbose level among the overrides and base.
func (s StageLevels) Lowest(base slog.Level) slog.Level {
	lowest := base
	for _, level := range s {
		lowest = min(lowest, level)
	}
	return lowest
}

// ForStage returns logger with the stage's level applied. A stage may be
// quieter or, when the root handler was opened up for it, more verbose than
// the global level.
func (s StageLevels) ForStage(logger *slog.Logger, stage string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	level, ok := s[stage]
	if !ok {
		return logger
	}
	if floor, ok := logger.Handler().(*floorHandler); ok {
		return slog.New(&floorHandler{next: floor.next, floor: level})
	}
	return slog.New(&floorHandler{next: logger.Handler(), floor: level})
}

// floorHandler drops records below floor. The wrapped handler is opened to
// the most verbose stage level so a stage floor can sit below the global one.
type floorHandler struct {
	next  slog.Handler
	floor slog.Level
}

func (h *floorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.floor && h.next.Enabled(ctx, level)
}

func (h *floorHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.floor {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *floorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &floorHandler{next: h.next.WithAttrs(attrs), floor: h.floor}
}

func (h *floorHandler) WithGroup(name string) slog.Handler {
	return &floorHandler{next: h.next.WithGroup(name), floor: h.floor}
}
