package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
	ScratchDir string `toml:"scratch_dir"`
}

// Logging controls log format and verbosity.
type Logging struct {
	Format         string            `toml:"format"`
	Level          string            `toml:"level"`
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Engine contains knobs shared by every analysis run.
type Engine struct {
	StageTimeoutSeconds int     `toml:"stage_timeout_seconds"`
	SimulateMissing     bool    `toml:"simulate_missing"`
	SimulationSeed      uint64  `toml:"simulation_seed"`
	VideoFrames         int     `toml:"video_frames"`
	VideoAuthenticRatio float64 `toml:"video_authentic_ratio"`
}

// Metadata configures the editing-tool fingerprint scanner.
type Metadata struct {
	ExtraTools []string `toml:"extra_tools"`
}

// Face configures the cascade face locator.
type Face struct {
	CascadePath      string  `toml:"cascade_path"`
	MinSize          int     `toml:"min_size"`
	QualityThreshold float64 `toml:"quality_threshold"`
}

// ELA configures error level analysis.
type ELA struct {
	Enabled bool `toml:"enabled"`
	Quality int  `toml:"quality"`
}

// Classifier configures the pretrained ONNX classifier bundle.
type Classifier struct {
	Enabled       bool   `toml:"enabled"`
	BundleDir     string `toml:"bundle_dir"`
	SharedLibrary string `toml:"shared_library"`
}

// Media configures the external media tools.
type Media struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Ledger configures the sqlite analysis ledger.
type Ledger struct {
	Enabled bool `toml:"enabled"`
}

// Batch configures directory batch runs.
type Batch struct {
	Workers int `toml:"workers"`
}

// Config encapsulates all configuration values for veritas.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Logging    Logging    `toml:"logging"`
	Engine     Engine     `toml:"engine"`
	Metadata   Metadata   `toml:"metadata"`
	Face       Face       `toml:"face"`
	ELA        ELA        `toml:"ela"`
	Classifier Classifier `toml:"classifier"`
	Media      Media      `toml:"media"`
	Ledger     Ledger     `toml:"ledger"`
	Batch      Batch      `toml:"batch"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/veritas/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("veritas.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, log, and scratch directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.ScratchDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StageTimeout returns the per-stage analysis deadline.
func (c *Config) StageTimeout() time.Duration {
	return time.Duration(c.Engine.StageTimeoutSeconds) * time.Second
}

// LedgerPath returns the sqlite database location inside the data directory.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "ledger.db")
}

// BatchLockPath returns the lock file guarding concurrent batch runs.
func (c *Config) BatchLockPath() string {
	return filepath.Join(c.Paths.DataDir, "batch.lock")
}

// FFmpegBinary returns the ffmpeg executable used for frame extraction.
func (c *Config) FFmpegBinary() string {
	if c.Media.FFmpeg == "" {
		return defaultFFmpeg
	}
	return c.Media.FFmpeg
}

// FFprobeBinary returns the ffprobe executable used for container inspection.
func (c *Config) FFprobeBinary() string {
	if c.Media.FFprobe == "" {
		return defaultFFprobe
	}
	return c.Media.FFprobe
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
