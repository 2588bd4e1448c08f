package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"veritas/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Optional backends are pointed at locations that do not exist so tests are
// independent of the host; options opt back in.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfgVal.Classifier.BundleDir = filepath.Join(base, "models")
	cfgVal.Classifier.SharedLibrary = filepath.Join(base, "missing", "libonnxruntime.so")
	cfgVal.Face.CascadePath = ""
	cfgVal.Media.FFmpeg = filepath.Join(base, "missing", "ffmpeg")
	cfgVal.Media.FFprobe = filepath.Join(base, "missing", "ffprobe")
	cfgVal.Engine.SimulationSeed = 7

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSimulation toggles simulated readings for missing capabilities.
func WithSimulation(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Engine.SimulateMissing = enabled
	}
}

// WithStubbedBinaries writes stub executables for the provided names into a
// private bin directory and points the media config at them. If names is
// empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		for _, name := range names {
			path := WriteScript(b.t, filepath.Join(b.baseDir, "bin"), name, "exit 0\n")
			b.assign(name, path)
		}
	}
}

// WithScript installs a shell script as the named media tool.
func WithScript(name, body string) ConfigOption {
	return func(b *configBuilder) {
		path := WriteScript(b.t, filepath.Join(b.baseDir, "bin"), name, body)
		b.assign(name, path)
	}
}

func (b *configBuilder) assign(name, path string) {
	switch name {
	case "ffmpeg":
		b.cfg.Media.FFmpeg = path
	case "ffprobe":
		b.cfg.Media.FFprobe = path
	}
}

// WriteScript writes an executable /bin/sh script and returns its path.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
