package config

const (
	defaultDataDir             = "~/.local/share/veritas"
	defaultLogDir              = "~/.local/share/veritas/logs"
	defaultScratchDir          = "~/.cache/veritas"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultStageTimeoutSeconds = 30
	defaultVideoFrames         = 5
	defaultVideoAuthenticRatio = 0.6
	defaultFaceMinSize         = 40
	defaultFaceQuality         = 5.0
	defaultELAQuality          = 90
	defaultClassifierBundleDir = "~/.local/share/veritas/models/ai-image-detector"
	defaultFFmpeg              = "ffmpeg"
	defaultFFprobe             = "ffprobe"
	defaultBatchWorkers        = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			ScratchDir: defaultScratchDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Engine: Engine{
			StageTimeoutSeconds: defaultStageTimeoutSeconds,
			SimulateMissing:     true,
			VideoFrames:         defaultVideoFrames,
			VideoAuthenticRatio: defaultVideoAuthenticRatio,
		},
		Face: Face{
			MinSize:          defaultFaceMinSize,
			QualityThreshold: defaultFaceQuality,
		},
		ELA: ELA{
			Enabled: true,
			Quality: defaultELAQuality,
		},
		Classifier: Classifier{
			Enabled:   true,
			BundleDir: defaultClassifierBundleDir,
		},
		Media: Media{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
		},
		Ledger: Ledger{
			Enabled: true,
		},
		Batch: Batch{
			Workers: defaultBatchWorkers,
		},
	}
}
