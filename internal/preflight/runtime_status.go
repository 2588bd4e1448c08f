package preflight

import (
	"fmt"

	"veritas/internal/deps"
)

// Capability modes shown by status UIs.
const (
	ModeMeasured  = "measured"
	ModeSimulated = "simulated"
	ModeNeutral   = "neutral"
	ModeWholeImg  = "whole image"
)

// CapabilityRow is one line of the capability report.
type CapabilityRow struct {
	Signal string
	Live   bool
	Mode   string
	Detail string
}

// CapabilityReport summarizes how each signal will be produced with caps.
func CapabilityReport(caps deps.Capabilities, simulate bool) []CapabilityRow {
	fallback := ModeNeutral
	if simulate {
		fallback = ModeSimulated
	}
	row := func(signal string, live bool, missingMode, detail string) CapabilityRow {
		mode := ModeMeasured
		if !live {
			mode = missingMode
		}
		return CapabilityRow{Signal: signal, Live: live, Mode: mode, Detail: detail}
	}
	return []CapabilityRow{
		{Signal: "Metadata scan", Live: true, Mode: ModeMeasured, Detail: containerDetail(caps)},
		row("Face locator", caps.FaceDetector, ModeWholeImg, caps.CascadePath),
		row("Error level analysis", caps.ErrorLevel, fallback, "JPEG re-encode comparison"),
		{Signal: "Synthetic generation", Live: true, Mode: ModeMeasured, Detail: "block FFT + face symmetry"},
		{Signal: "Noise variance", Live: true, Mode: ModeMeasured, Detail: "Laplacian variance"},
		row("Classifier", caps.Classifier, fallback, caps.SharedLibrary),
		row("Video frames", caps.FrameExtraction, fallback, caps.FFmpeg),
	}
}

func containerDetail(caps deps.Capabilities) string {
	if caps.ContainerProbe {
		return fmt.Sprintf("EXIF/PNG/XMP + container tags via %s", caps.FFprobe)
	}
	return "EXIF/PNG/XMP (container tags unavailable)"
}
