package testsupport

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// EXIF tag identifiers used by fixtures.
const (
	TagImageDescription uint16 = 0x010E
	TagMake             uint16 = 0x010F
	TagModel            uint16 = 0x0110
	TagSoftware         uint16 = 0x0131
	TagDateTime         uint16 = 0x0132
	TagArtist           uint16 = 0x013B
	TagCopyright        uint16 = 0x8298
)

// EXIFTag is an ASCII IFD0 entry.
type EXIFTag struct {
	Tag   uint16
	Value string
}

// CameraEXIF returns a plausible camera tag set with more than five entries.
func CameraEXIF() []EXIFTag {
	return []EXIFTag{
		{TagImageDescription, "street scene"},
		{TagMake, "FUJIFILM"},
		{TagModel, "X-T4"},
		{TagSoftware, "Digital Camera X-T4 Ver2.00"},
		{TagDateTime, "2024:05:17 14:02:11"},
		{TagArtist, "field photographer"},
		{TagCopyright, "none"},
	}
}

// Solid returns a uniformly coloured image.
func Solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// Gradient returns a smooth diagonal gradient.
func Gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(60 + 120*(x+y)/(w+h))
			img.Set(x, y, color.RGBA{R: v, G: v, B: uint8(min(255, int(v)+20)), A: 255})
		}
	}
	return img
}

// Noisy returns a mid-grey image with independent gaussian noise per pixel.
func Noisy(w, h int, seed uint64, sigma float64) *image.RGBA {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := clamp8(128 + rng.NormFloat64()*sigma)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// Stripes returns a periodic sinusoidal grating with the given period in pixels.
func Stripes(w, h, period int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := clamp8(128 + 100*math.Sin(2*math.Pi*float64(x)/float64(period)))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func clamp8(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// WriteJPEG encodes img at the given quality and embeds the EXIF tags, if any.
func WriteJPEG(t testing.TB, path string, img image.Image, quality int, tags ...EXIFTag) string {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	data := buf.Bytes()
	if len(tags) > 0 {
		data = injectEXIF(data, tags)
	}
	writeBytes(t, path, data)
	return path
}

// WritePNG encodes img and appends tEXt chunks for every text entry.
func WritePNG(t testing.TB, path string, img image.Image, text map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	data := buf.Bytes()
	if len(text) > 0 {
		iend := len(data) - 12
		var chunks bytes.Buffer
		keys := make([]string, 0, len(text))
		for key := range text {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			chunks.Write(pngChunk("tEXt", append(append([]byte(key), 0), text[key]...)))
		}
		data = append(append(append([]byte{}, data[:iend]...), chunks.Bytes()...), data[iend:]...)
	}
	writeBytes(t, path, data)
	return path
}

func pngChunk(kind string, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+12)
	out = binary.BigEndian.AppendUint32(out, uint32(len(payload)))
	out = append(out, kind...)
	out = append(out, payload...)
	crc := crc32.ChecksumIEEE(append([]byte(kind), payload...))
	return binary.BigEndian.AppendUint32(out, crc)
}

func injectEXIF(jpegData []byte, tags []EXIFTag) []byte {
	payload := append([]byte("Exif\x00\x00"), buildTIFF(tags)...)
	segment := []byte{0xFF, 0xE1}
	segment = binary.BigEndian.AppendUint16(segment, uint16(len(payload)+2))
	segment = append(segment, payload...)
	out := make([]byte, 0, len(jpegData)+len(segment))
	out = append(out, jpegData[:2]...)
	out = append(out, segment...)
	return append(out, jpegData[2:]...)
}

// buildTIFF lays out a little-endian TIFF header with a single IFD of ASCII entries.
func buildTIFF(tags []EXIFTag) []byte {
	sorted := slices.Clone(tags)
	slices.SortFunc(sorted, func(a, b EXIFTag) int { return int(a.Tag) - int(b.Tag) })

	le := binary.LittleEndian
	ifdSize := 2 + 12*len(sorted) + 4
	dataOffset := 8 + ifdSize
	var head, data []byte
	head = append(head, 'I', 'I')
	head = le.AppendUint16(head, 42)
	head = le.AppendUint32(head, 8)
	head = le.AppendUint16(head, uint16(len(sorted)))
	for _, tag := range sorted {
		value := append([]byte(tag.Value), 0)
		head = le.AppendUint16(head, tag.Tag)
		head = le.AppendUint16(head, 2) // ASCII
		head = le.AppendUint32(head, uint32(len(value)))
		if len(value) <= 4 {
			inline := make([]byte, 4)
			copy(inline, value)
			head = append(head, inline...)
			continue
		}
		head = le.AppendUint32(head, uint32(dataOffset+len(data)))
		data = append(data, value...)
		if len(data)%2 == 1 {
			data = append(data, 0)
		}
	}
	head = le.AppendUint32(head, 0)
	return append(head, data...)
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
