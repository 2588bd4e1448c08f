package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeFace(); err != nil {
		return err
	}
	if err := c.normalizeClassifier(); err != nil {
		return err
	}
	c.normalizeMetadata()
	c.normalizeMedia()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFace() error {
	c.Face.CascadePath = strings.TrimSpace(c.Face.CascadePath)
	if c.Face.CascadePath == "" {
		if value, ok := os.LookupEnv("VERITAS_FACE_CASCADE"); ok {
			c.Face.CascadePath = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Face.CascadePath, err = expandPath(c.Face.CascadePath); err != nil {
		return fmt.Errorf("face.cascade_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeClassifier() error {
	var err error
	if c.Classifier.BundleDir, err = expandPath(strings.TrimSpace(c.Classifier.BundleDir)); err != nil {
		return fmt.Errorf("classifier.bundle_dir: %w", err)
	}
	c.Classifier.SharedLibrary = strings.TrimSpace(c.Classifier.SharedLibrary)
	if c.Classifier.SharedLibrary == "" {
		if value, ok := os.LookupEnv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); ok {
			c.Classifier.SharedLibrary = strings.TrimSpace(value)
		}
	}
	if c.Classifier.SharedLibrary, err = expandPath(c.Classifier.SharedLibrary); err != nil {
		return fmt.Errorf("classifier.shared_library: %w", err)
	}
	return nil
}

func (c *Config) normalizeMetadata() {
	tools := make([]string, 0, len(c.Metadata.ExtraTools))
	seen := make(map[string]struct{}, len(c.Metadata.ExtraTools))
	for _, tool := range c.Metadata.ExtraTools {
		tool = strings.ToLower(strings.TrimSpace(tool))
		if tool == "" {
			continue
		}
		if _, ok := seen[tool]; ok {
			continue
		}
		seen[tool] = struct{}{}
		tools = append(tools, tool)
	}
	c.Metadata.ExtraTools = tools
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpeg = strings.TrimSpace(c.Media.FFmpeg)
	if c.Media.FFmpeg == "" {
		c.Media.FFmpeg = defaultFFmpeg
	}
	c.Media.FFprobe = strings.TrimSpace(c.Media.FFprobe)
	if c.Media.FFprobe == "" {
		c.Media.FFprobe = defaultFFprobe
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	for stage, level := range c.Logging.StageOverrides {
		level = strings.ToLower(strings.TrimSpace(level))
		if level == "" {
			delete(c.Logging.StageOverrides, stage)
			continue
		}
		c.Logging.StageOverrides[stage] = level
	}
}
