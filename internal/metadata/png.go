package metadata

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

const maxChunkBytes = 16 << 20

// readPNGChunks collects tEXt, zTXt, and iTXt values plus any eXIf block.
// An XMP text chunk contributes its software properties rather than the packet.
func readPNGChunks(r io.Reader) ([]Field, []byte, error) {
	br := bufio.NewReader(r)
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(br, sig); err != nil || !bytes.Equal(sig, pngSignature) {
		return nil, nil, errors.New("not a png stream")
	}

	var fields []Field
	var exifBlock []byte
	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(br, header); err != nil {
			if errors.Is(err, io.EOF) {
				return fields, exifBlock, nil
			}
			return fields, exifBlock, fmt.Errorf("read chunk header: %w", err)
		}
		length := binary.BigEndian.Uint32(header[:4])
		kind := string(header[4:8])
		if length > maxChunkBytes {
			return fields, exifBlock, fmt.Errorf("chunk %s too large (%d bytes)", kind, length)
		}
		switch kind {
		case "tEXt", "zTXt", "iTXt", "eXIf":
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return fields, exifBlock, fmt.Errorf("read %s: %w", kind, err)
			}
			if kind == "eXIf" {
				exifBlock = data
			} else if field, ok := decodeTextChunk(kind, data); ok {
				if field.Name == pngXMPKeyword {
					fields = append(fields, parseXMP([]byte(field.Value))...)
				} else {
					fields = append(fields, field)
				}
			}
		case "IEND":
			return fields, exifBlock, nil
		default:
			if _, err := br.Discard(int(length)); err != nil {
				return fields, exifBlock, fmt.Errorf("skip %s: %w", kind, err)
			}
		}
		if _, err := br.Discard(4); err != nil {
			return fields, exifBlock, fmt.Errorf("skip crc: %w", err)
		}
	}
}

func decodeTextChunk(kind string, data []byte) (Field, bool) {
	keyword, rest, ok := bytes.Cut(data, []byte{0})
	if !ok {
		return Field{}, false
	}
	field := Field{Source: SourcePNGText, Name: string(keyword)}
	switch kind {
	case "tEXt":
		field.Value = string(rest)
	case "zTXt":
		if len(rest) < 1 {
			return Field{}, false
		}
		text, err := inflate(rest[1:])
		if err != nil {
			return Field{}, false
		}
		field.Value = text
	case "iTXt":
		if len(rest) < 2 {
			return Field{}, false
		}
		compressed := rest[0] == 1
		rest = rest[2:]
		_, rest, ok = bytes.Cut(rest, []byte{0}) // language tag
		if !ok {
			return Field{}, false
		}
		_, rest, ok = bytes.Cut(rest, []byte{0}) // translated keyword
		if !ok {
			return Field{}, false
		}
		if compressed {
			text, err := inflate(rest)
			if err != nil {
				return Field{}, false
			}
			field.Value = text
		} else {
			field.Value = string(rest)
		}
	}
	return field, true
}

func inflate(data []byte) (string, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxChunkBytes))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
