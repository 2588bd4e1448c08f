package deps

import (
	"os"
	"path/filepath"
	"strings"

	"veritas/internal/classifier"
	"veritas/internal/config"
)

// Capabilities records which optional analysis backends are usable. It is
// evaluated once at startup; missing capabilities switch the engine to
// neutral or simulated readings instead of failing.
type Capabilities struct {
	FaceDetector    bool
	Classifier      bool
	FrameExtraction bool
	ContainerProbe  bool
	ErrorLevel      bool

	CascadePath   string
	SharedLibrary string
	FFmpeg        string
	FFprobe       string

	Statuses []Status
}

// Detect inspects the configuration and host to build the capability set.
func Detect(cfg *config.Config) Capabilities {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	caps := Capabilities{
		ErrorLevel: cfg.ELA.Enabled,
		FFmpeg:     cfg.FFmpegBinary(),
		FFprobe:    cfg.FFprobeBinary(),
	}

	binaries := CheckBinaries([]Requirement{
		{Name: "FFmpeg", Command: caps.FFmpeg, Description: "Extracts video frames", Optional: true},
		{Name: "FFprobe", Command: caps.FFprobe, Description: "Inspects video containers", Optional: true},
	})
	caps.FrameExtraction = binaries[0].Available
	caps.ContainerProbe = binaries[1].Available
	caps.Statuses = append(caps.Statuses, binaries...)

	cascade := CheckFile("Face cascade", cfg.Face.CascadePath, "pigo facefinder cascade")
	caps.FaceDetector = cascade.Available
	if cascade.Available {
		caps.CascadePath = cfg.Face.CascadePath
	}
	caps.Statuses = append(caps.Statuses, cascade)

	caps.Classifier, caps.SharedLibrary = detectClassifier(cfg, &caps.Statuses)

	ela := Status{Name: "Error level analysis", Description: "JPEG re-encode comparison", Optional: true, Available: cfg.ELA.Enabled}
	if !cfg.ELA.Enabled {
		ela.Detail = "disabled in configuration"
	}
	caps.Statuses = append(caps.Statuses, ela)
	return caps
}

func detectClassifier(cfg *config.Config, statuses *[]Status) (bool, string) {
	if !cfg.Classifier.Enabled {
		*statuses = append(*statuses, Status{
			Name:        "Classifier",
			Description: "Pretrained AI image detector",
			Optional:    true,
			Detail:      "disabled in configuration",
		})
		return false, ""
	}
	bundleDir := cfg.Classifier.BundleDir
	model := CheckFile("Classifier model", filepath.Join(bundleDir, classifier.ModelFile), "Pretrained AI image detector")
	manifest := CheckFile("Classifier bundle", filepath.Join(bundleDir, classifier.BundleFile), "Classifier preprocessing manifest")
	library := ResolveSharedLibrary(cfg.Classifier.SharedLibrary, bundleDir)
	runtimeStatus := CheckFile("ONNX Runtime", library, "Shared library for model inference")
	if library == "" {
		runtimeStatus.Detail = "shared library not found; set classifier.shared_library"
	}
	*statuses = append(*statuses, model, manifest, runtimeStatus)
	ok := model.Available && manifest.Available && runtimeStatus.Available
	if !ok {
		return false, ""
	}
	return true, library
}

// ResolveSharedLibrary returns the ONNX Runtime library to load, preferring the
// configured path, then ONNXRUNTIME_SHARED_LIBRARY_PATH, then well-known
// locations next to the bundle and in system library directories.
func ResolveSharedLibrary(configured, bundleDir string) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured
	}
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}
	names := []string{
		"libonnxruntime.so",
		"onnxruntime.so",
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"onnxruntime.dll",
	}
	dirs := []string{"/usr/local/lib", "/usr/lib", "/opt/homebrew/lib"}
	if bundleDir != "" {
		dirs = append([]string{bundleDir, filepath.Join(bundleDir, "lib")}, dirs...)
	}
	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

// Missing lists the names of required capabilities the engine will simulate or neutralize.
func (c Capabilities) Missing() []string {
	var missing []string
	if !c.FaceDetector {
		missing = append(missing, "face_detector")
	}
	if !c.Classifier {
		missing = append(missing, "classifier")
	}
	if !c.FrameExtraction {
		missing = append(missing, "frame_extraction")
	}
	if !c.ContainerProbe {
		missing = append(missing, "container_probe")
	}
	if !c.ErrorLevel {
		missing = append(missing, "error_level")
	}
	return missing
}
