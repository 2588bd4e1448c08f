package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateFace(); err != nil {
		return err
	}
	if err := c.validateELA(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Batch.Workers < 1 {
		return errors.New("batch.workers must be >= 1")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.StageTimeoutSeconds <= 0 {
		return errors.New("engine.stage_timeout_seconds must be positive")
	}
	if c.Engine.VideoFrames <= 0 {
		return errors.New("engine.video_frames must be positive")
	}
	if c.Engine.VideoAuthenticRatio < 0 || c.Engine.VideoAuthenticRatio >= 1 {
		return fmt.Errorf("engine.video_authentic_ratio must be in [0,1), got %v", c.Engine.VideoAuthenticRatio)
	}
	return nil
}

func (c *Config) validateFace() error {
	if c.Face.MinSize <= 0 {
		return errors.New("face.min_size must be positive")
	}
	if c.Face.QualityThreshold < 0 {
		return errors.New("face.quality_threshold must be >= 0")
	}
	return nil
}

func (c *Config) validateELA() error {
	if c.ELA.Quality < 1 || c.ELA.Quality > 100 {
		return fmt.Errorf("ela.quality must be between 1 and 100, got %d", c.ELA.Quality)
	}
	return nil
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

func (c *Config) validateLogging() error {
	if !logLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	for stage, level := range c.Logging.StageOverrides {
		if !logLevels[level] {
			return fmt.Errorf("logging.stage_overrides.%s: unknown level %q", stage, level)
		}
	}
	return nil
}
