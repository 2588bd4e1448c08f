package frames

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"veritas/internal/logging"
	"veritas/internal/media/ffprobe"
	"veritas/internal/services"
)

// DefaultCount is the number of frames sampled per video.
const DefaultCount = 5

// Frame is one extracted still.
type Frame struct {
	Index     int
	Timestamp float64
	Path      string
}

// Set holds the frames extracted by one Sample call.
type Set struct {
	Dir      string
	Duration float64
	Frames   []Frame
}

// Close removes the extraction directory.
func (s *Set) Close() error {
	if s == nil || s.Dir == "" {
		return nil
	}
	err := os.RemoveAll(s.Dir)
	s.Dir = ""
	return err
}

// Options configures a Sampler.
type Options struct {
	FFmpeg     string
	FFprobe    string
	ScratchDir string
	// ProbeAvailable is false when ffprobe is missing; only the first frame is taken then.
	ProbeAvailable bool
	Logger         *slog.Logger
}

// Sampler extracts evenly spaced frames.
type Sampler struct {
	ffmpeg     string
	ffprobe    string
	scratchDir string
	probe      bool
	logger     *slog.Logger
}

// NewSampler builds a sampler.
func NewSampler(opts Options) *Sampler {
	ffmpeg := strings.TrimSpace(opts.FFmpeg)
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &Sampler{
		ffmpeg:     ffmpeg,
		ffprobe:    opts.FFprobe,
		scratchDir: opts.ScratchDir,
		probe:      opts.ProbeAvailable,
		logger:     logging.NewComponentLogger(opts.Logger, "frames"),
	}
}

// Timestamps returns count offsets at the midpoints of equal slices of the
// video. Unknown durations yield a single offset at zero.
func Timestamps(duration float64, count int) []float64 {
	if count <= 0 {
		count = DefaultCount
	}
	if duration <= 0 {
		return []float64{0}
	}
	out := make([]float64, count)
	for i := range out {
		out[i] = duration * (float64(i) + 0.5) / float64(count)
	}
	return out
}

// Sample extracts up to count frames from path. Frames that fail to extract
// are skipped; an error is returned only when none could be extracted.
func (s *Sampler) Sample(ctx context.Context, path string, count int) (*Set, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, services.Wrap(services.ErrInputUnreadable, "frames", "stat", path, err)
	}
	if s.scratchDir != "" {
		if err := os.MkdirAll(s.scratchDir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "frames", "scratch dir", s.scratchDir, err)
		}
	}
	dir, err := os.MkdirTemp(s.scratchDir, "frames-")
	if err != nil {
		return nil, services.Wrap(services.ErrStageFailure, "frames", "temp dir", "", err)
	}
	set := &Set{Dir: dir}

	logger := logging.WithContext(ctx, s.logger)
	if s.probe {
		result, err := ffprobe.Inspect(ctx, s.ffprobe, path)
		if err != nil {
			logging.WarnWithContext(logger, "ffprobe failed; sampling first frame only",
				"frames_probe_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "video verdict based on a single frame"),
			)
		} else {
			set.Duration = result.DurationSeconds()
		}
	}

	var lastErr error
	for i, ts := range Timestamps(set.Duration, count) {
		if err := ctx.Err(); err != nil {
			set.Close()
			return nil, services.Wrap(services.ErrTimeout, "frames", "extract", "", err)
		}
		target := filepath.Join(dir, fmt.Sprintf("frame_%02d.png", i))
		if err := s.extract(ctx, path, ts, target); err != nil {
			lastErr = err
			logger.Debug("frame extraction failed",
				logging.Int("frame_index", i),
				logging.Float64("timestamp", ts),
				logging.Error(err),
			)
			continue
		}
		set.Frames = append(set.Frames, Frame{Index: i, Timestamp: ts, Path: target})
	}
	if len(set.Frames) == 0 {
		set.Close()
		if lastErr == nil {
			lastErr = errors.New("no frames requested")
		}
		return nil, services.Wrap(services.ErrStageFailure, "frames", "extract", "no frames extracted", lastErr)
	}
	logger.Debug("frames sampled",
		logging.Int("frame_count", len(set.Frames)),
		logging.Float64("duration_seconds", set.Duration),
	)
	return set, nil
}

func (s *Sampler) extract(ctx context.Context, path string, ts float64, target string) error {
	args := []string{
		"-v", "error",
		"-nostdin",
		"-y",
		"-ss", strconv.FormatFloat(ts, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		target,
	}
	cmd := exec.CommandContext(ctx, s.ffmpeg, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "frames", "ffmpeg", strings.TrimSpace(string(output)), err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "frames", "ffmpeg", "no output written", err)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "frames", "ffmpeg", "empty output", nil)
	}
	return nil
}
