package metadata

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// pngXMPKeyword is the iTXt keyword PNG writers use for an XMP packet.
const pngXMPKeyword = "XML:com.adobe.xmp"

var (
	xmpOpen  = []byte("<x:xmpmeta")
	xmpClose = []byte("</x:xmpmeta>")
)

// softwareProperties maps the local names of XMP properties that record the
// producing application to the name reported in evidence. Only these values
// are matched against the denylist; namespace declarations and unrelated
// properties such as photoshop:City are ignored.
var softwareProperties = map[string]string{
	"CreatorTool":   "xmp:CreatorTool",
	"softwareAgent": "stEvt:softwareAgent",
	"Software":      "tiff:Software",
}

// findXMP extracts the software fields of the first XMP packet embedded in
// data.
func findXMP(data []byte) []Field {
	start := bytes.Index(data, xmpOpen)
	if start < 0 {
		return nil
	}
	end := bytes.Index(data[start:], xmpClose)
	if end < 0 {
		return nil
	}
	return parseXMP(data[start : start+end+len(xmpClose)])
}

// parseXMP walks an XMP packet and returns the software properties written
// either as attributes or as element text. A malformed packet yields the
// fields read before the error.
func parseXMP(packet []byte) []Field {
	dec := xml.NewDecoder(bytes.NewReader(packet))
	dec.Strict = false

	var fields []Field
	var text strings.Builder
	capture := ""
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) && capture != "" {
				fields = appendXMP(fields, capture, text.String())
			}
			return fields
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if capture != "" {
				depth++
				continue
			}
			for _, attr := range t.Attr {
				if name, ok := softwareProperties[attr.Name.Local]; ok {
					fields = appendXMP(fields, name, attr.Value)
				}
			}
			if name, ok := softwareProperties[t.Name.Local]; ok {
				capture, depth = name, 0
				text.Reset()
			}
		case xml.CharData:
			if capture != "" {
				text.Write(t)
				text.WriteByte(' ')
			}
		case xml.EndElement:
			if capture == "" {
				continue
			}
			if depth > 0 {
				depth--
				continue
			}
			fields = appendXMP(fields, capture, text.String())
			capture = ""
		}
	}
}

func appendXMP(fields []Field, name, value string) []Field {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return fields
	}
	return append(fields, Field{Source: SourceXMP, Name: name, Value: value})
}
