package metadata

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"veritas/internal/evidence"
	"veritas/internal/logging"
	"veritas/internal/services"
)

// Source names where a metadata value came from.
type Source string

const (
	SourceEXIF      Source = "exif"
	SourcePNGText   Source = "png_text"
	SourceXMP       Source = "xmp"
	SourceContainer Source = "container"
)

// Field is one collected metadata value.
type Field struct {
	Source Source
	Name   string
	Value  string
}

// TagReader returns container-level tags for a video file.
type TagReader func(ctx context.Context, path string) (map[string]string, error)

// EvidenceEXIFCount is the evidence key carrying the number of EXIF tags found.
const EvidenceEXIFCount = "exif_tag_count"

const maxScanBytes = 64 << 20

// Scanner checks evidence metadata against a tool denylist.
type Scanner struct {
	tools  []string
	tags   TagReader
	logger *slog.Logger
}

// Option customizes a Scanner.
type Option func(*Scanner)

// WithTagReader enables container tag scanning for video evidence.
func WithTagReader(reader TagReader) Option {
	return func(s *Scanner) { s.tags = reader }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) { s.logger = logger }
}

// NewScanner builds a scanner using the built-in denylist plus extraTools.
func NewScanner(extraTools []string, opts ...Option) *Scanner {
	s := &Scanner{tools: mergeTools(extraTools)}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "metadata")
	return s
}

// Tools returns the effective denylist.
func (s *Scanner) Tools() []string {
	return append([]string(nil), s.tools...)
}

// collected is everything read from one item. exifTags counts IFD0 entries.
type collected struct {
	fields   []Field
	exifTags int
}

// Scan reads metadata for item and returns a not-authentic reading on any
// tool hit. Absent or unreadable metadata is clean.
func (s *Scanner) Scan(ctx context.Context, item evidence.Item) evidence.SignalReading {
	found, err := s.collect(ctx, item)
	if err != nil {
		logging.WithContext(ctx, s.logger).Debug("metadata unreadable; treating as clean",
			logging.String("path", item.Path),
			logging.ErrorKind(err),
			logging.Error(err),
		)
	}
	return s.evaluate(found)
}

func (s *Scanner) evaluate(found collected) evidence.SignalReading {
	var hits []string
	var hitField Field
	for _, field := range found.fields {
		matched := match(s.tools, field.Value)
		if len(matched) == 0 {
			continue
		}
		if len(hits) == 0 {
			hitField = field
		}
		for _, tool := range matched {
			if !slices.Contains(hits, tool) {
				hits = append(hits, tool)
			}
		}
	}

	if len(hits) == 0 {
		return evidence.Authentic(evidence.SignalMetadata, 100).
			With(EvidenceEXIFCount, found.exifTags).
			With("fields_scanned", len(found.fields))
	}
	strength := min(99, 95+float64(len(hits)-1))
	return evidence.NotAuthentic(evidence.SignalMetadata, strength).
		With(EvidenceEXIFCount, found.exifTags).
		With("fields_scanned", len(found.fields)).
		With("matched_tools", hits).
		With("matched_source", string(hitField.Source)).
		With("matched_field", hitField.Name)
}

func (s *Scanner) collect(ctx context.Context, item evidence.Item) (collected, error) {
	if item.Kind == evidence.KindVideo {
		fields, err := s.collectContainer(ctx, item.Path)
		return collected{fields: fields}, err
	}
	return collectImage(item.Path)
}

func (s *Scanner) collectContainer(ctx context.Context, path string) ([]Field, error) {
	if s.tags == nil {
		return nil, nil
	}
	tags, err := s.tags(ctx, path)
	if err != nil {
		return nil, services.Wrap(services.ErrDependencyUnavailable, "metadata", "read container tags", path, err)
	}
	fields := make([]Field, 0, len(tags))
	for name, value := range tags {
		fields = append(fields, Field{Source: SourceContainer, Name: name, Value: value})
	}
	slices.SortFunc(fields, func(a, b Field) int { return strings.Compare(a.Name, b.Name) })
	return fields, nil
}

func collectImage(path string) (collected, error) {
	var found collected
	file, err := os.Open(path)
	if err != nil {
		return found, services.Wrap(services.ErrInputUnreadable, "metadata", "open", path, err)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxScanBytes))
	if err != nil {
		return found, services.Wrap(services.ErrInputUnreadable, "metadata", "read", path, err)
	}

	var firstErr error
	if bytes.HasPrefix(data, pngSignature) {
		text, exifBlock, err := readPNGChunks(bytes.NewReader(data))
		if err != nil {
			firstErr = services.Wrap(services.ErrInputUnreadable, "metadata", "png chunks", path, err)
		}
		found.fields = append(found.fields, text...)
		if len(exifBlock) > 0 {
			exifFields, count, _ := readEXIF(bytes.NewReader(exifBlock))
			found.fields = append(found.fields, exifFields...)
			found.exifTags = count
		}
	} else {
		exifFields, count, err := readEXIF(bytes.NewReader(data))
		if err != nil {
			firstErr = services.Wrap(services.ErrInputUnreadable, "metadata", "exif", path, err)
		}
		found.fields = append(found.fields, exifFields...)
		found.exifTags = count
		found.fields = append(found.fields, findXMP(data)...)
	}
	return found, firstErr
}

// EXIFTagCount extracts the EXIF tag count recorded on a metadata reading.
func EXIFTagCount(reading evidence.SignalReading) int {
	if n, ok := reading.Evidence[EvidenceEXIFCount].(int); ok {
		return n
	}
	return 0
}
