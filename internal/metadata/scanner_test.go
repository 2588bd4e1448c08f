package metadata_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"veritas/internal/evidence"
	"veritas/internal/metadata"
	"veritas/internal/testsupport"
)

func imageItem(path string) evidence.Item {
	return evidence.Item{Path: path, Kind: evidence.KindImage}
}

func TestScanFlagsEditingSoftwareInEXIF(t *testing.T) {
	tags := append(testsupport.CameraEXIF(), testsupport.EXIFTag{Tag: testsupport.TagSoftware, Value: "Adobe Photoshop 25.1 (Windows)"})
	tags = slices.DeleteFunc(tags, func(tag testsupport.EXIFTag) bool {
		return tag.Tag == testsupport.TagSoftware && tag.Value != "Adobe Photoshop 25.1 (Windows)"
	})
	path := testsupport.WriteJPEG(t, filepath.Join(t.TempDir(), "edited.jpg"), testsupport.Gradient(32, 32), 90, tags...)

	reading := metadata.NewScanner(nil).Scan(context.Background(), imageItem(path))
	if reading.SupportsAuthentic {
		t.Fatalf("expected not-authentic reading, got %+v", reading)
	}
	if reading.Strength < 95 || reading.Strength > 99 {
		t.Fatalf("strength %v outside [95,99]", reading.Strength)
	}
	if reading.Evidence["matched_source"] != "exif" {
		t.Fatalf("expected exif source, got %v", reading.Evidence["matched_source"])
	}
}

func TestScanCleanCameraEXIF(t *testing.T) {
	path := testsupport.WriteJPEG(t, filepath.Join(t.TempDir(), "camera.jpg"), testsupport.Gradient(32, 32), 90, testsupport.CameraEXIF()...)

	reading := metadata.NewScanner(nil).Scan(context.Background(), imageItem(path))
	if !reading.SupportsAuthentic || reading.Strength != 100 {
		t.Fatalf("expected clean authentic reading, got %+v", reading)
	}
	if got := metadata.EXIFTagCount(reading); got != len(testsupport.CameraEXIF()) {
		t.Fatalf("expected %d exif tags, got %d", len(testsupport.CameraEXIF()), got)
	}
}

func TestScanTreatsMissingMetadataAsClean(t *testing.T) {
	dir := t.TempDir()
	plain := testsupport.WriteJPEG(t, filepath.Join(dir, "plain.jpg"), testsupport.Gradient(16, 16), 90)
	garbage := filepath.Join(dir, "garbage.jpg")
	if err := os.WriteFile(garbage, []byte("definitely not a jpeg"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	scanner := metadata.NewScanner(nil)
	for _, path := range []string{plain, garbage, filepath.Join(dir, "missing.jpg")} {
		reading := scanner.Scan(context.Background(), imageItem(path))
		if !reading.SupportsAuthentic || reading.Strength != 100 {
			t.Fatalf("%s: expected clean reading, got %+v", filepath.Base(path), reading)
		}
		if metadata.EXIFTagCount(reading) != 0 {
			t.Fatalf("%s: expected zero exif tags", filepath.Base(path))
		}
	}
}

func TestScanReadsPNGTextChunks(t *testing.T) {
	path := testsupport.WritePNG(t, filepath.Join(t.TempDir(), "gen.png"), testsupport.Gradient(16, 16), map[string]string{
		"parameters": "a portrait, Steps: 30, Model: Stable Diffusion XL",
		"Software":   "ComfyUI",
	})

	reading := metadata.NewScanner(nil).Scan(context.Background(), imageItem(path))
	if reading.SupportsAuthentic {
		t.Fatalf("expected hit in png text, got %+v", reading)
	}
	hits, _ := reading.Evidence["matched_tools"].([]string)
	if len(hits) != 2 {
		t.Fatalf("expected two distinct tools, got %v", hits)
	}
	if reading.Strength != 96 {
		t.Fatalf("expected strength 96 for two hits, got %v", reading.Strength)
	}
}

func TestScanMatchesCaseInsensitively(t *testing.T) {
	path := testsupport.WritePNG(t, filepath.Join(t.TempDir(), "x.png"), testsupport.Gradient(8, 8), map[string]string{
		"Comment": "made with MIDJOURNEY v6",
	})
	if reading := metadata.NewScanner(nil).Scan(context.Background(), imageItem(path)); reading.SupportsAuthentic {
		t.Fatalf("expected case-insensitive hit, got %+v", reading)
	}
}

func TestScanHonoursExtraTools(t *testing.T) {
	path := testsupport.WritePNG(t, filepath.Join(t.TempDir(), "k.png"), testsupport.Gradient(8, 8), map[string]string{
		"Software": "Krita 5.2",
	})
	if reading := metadata.NewScanner(nil).Scan(context.Background(), imageItem(path)); !reading.SupportsAuthentic {
		t.Fatalf("expected default denylist to ignore krita, got %+v", reading)
	}
	if reading := metadata.NewScanner([]string{" KRITA "}).Scan(context.Background(), imageItem(path)); reading.SupportsAuthentic {
		t.Fatalf("expected configured tool to match, got %+v", reading)
	}
}

func TestScanDetectsXMPCreatorTool(t *testing.T) {
	path := testsupport.WriteJPEG(t, filepath.Join(t.TempDir(), "xmp.jpg"), testsupport.Gradient(16, 16), 90)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	packet := `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:Description xmp:CreatorTool="Canva"/></x:xmpmeta>`
	data = append(data, packet...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	reading := metadata.NewScanner(nil).Scan(context.Background(), imageItem(path))
	if reading.SupportsAuthentic || reading.Evidence["matched_source"] != "xmp" {
		t.Fatalf("expected xmp hit, got %+v", reading)
	}
}

func TestScanPNGXMPMatchesSoftwarePropertiesOnly(t *testing.T) {
	const camera = `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description xmlns:photoshop="http://ns.adobe.com/photoshop/1.0/" xmlns:xmp="http://ns.adobe.com/xap/1.0/" ` +
		`photoshop:City="Paris" xmp:CreatorTool="Canon EOS R5"/></rdf:RDF></x:xmpmeta>`
	path := testsupport.WritePNG(t, filepath.Join(t.TempDir(), "camera.png"), testsupport.Gradient(8, 8), map[string]string{
		"XML:com.adobe.xmp": camera,
	})
	reading := metadata.NewScanner(nil).Scan(context.Background(), imageItem(path))
	if !reading.SupportsAuthentic {
		t.Fatalf("namespace and city values must not match the denylist, got %+v", reading)
	}

	edited := strings.Replace(camera, "Canon EOS R5", "Adobe Photoshop 25.0 (Macintosh)", 1)
	path = testsupport.WritePNG(t, filepath.Join(t.TempDir(), "edited.png"), testsupport.Gradient(8, 8), map[string]string{
		"XML:com.adobe.xmp": edited,
	})
	reading = metadata.NewScanner(nil).Scan(context.Background(), imageItem(path))
	if reading.SupportsAuthentic {
		t.Fatalf("expected creator tool hit, got %+v", reading)
	}
	if reading.Evidence["matched_source"] != "xmp" || reading.Evidence["matched_field"] != "xmp:CreatorTool" {
		t.Fatalf("unexpected match attribution: %+v", reading.Evidence)
	}
}

func TestScanVideoUsesContainerTags(t *testing.T) {
	reader := func(ctx context.Context, path string) (map[string]string, error) {
		return map[string]string{"encoder": "Lavf60.3.100", "comment": "Generated by Stable Diffusion video"}, nil
	}
	item := evidence.Item{Path: "/clips/a.mp4", Kind: evidence.KindVideo}
	reading := metadata.NewScanner(nil, metadata.WithTagReader(reader)).Scan(context.Background(), item)
	if reading.SupportsAuthentic {
		t.Fatalf("expected container tag hit, got %+v", reading)
	}

	failing := func(ctx context.Context, path string) (map[string]string, error) {
		return nil, errors.New("ffprobe exploded")
	}
	reading = metadata.NewScanner(nil, metadata.WithTagReader(failing)).Scan(context.Background(), item)
	if !reading.SupportsAuthentic || reading.Strength != 100 {
		t.Fatalf("expected tag reader failure to be clean, got %+v", reading)
	}
}
