package metadata

import (
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

type exifWalker struct {
	fields []Field
}

func (w *exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	value := ""
	if tag.Format() == tiff.StringVal {
		if s, err := tag.StringVal(); err == nil {
			value = s
		}
	} else {
		value = tag.String()
	}
	w.fields = append(w.fields, Field{
		Source: SourceEXIF,
		Name:   string(name),
		Value:  strings.TrimRight(strings.TrimSpace(value), "\x00"),
	})
	return nil
}

// readEXIF decodes EXIF from a JPEG, TIFF, or raw TIFF-structured block.
// Every named tag in every directory becomes a field, but the returned count
// covers IFD0 entries only; Exif and GPS sub-directory tags are not counted.
// Missing EXIF yields no fields and no error.
func readEXIF(r io.Reader) ([]Field, int, error) {
	x, err := exif.Decode(r)
	if err != nil {
		if exif.IsCriticalError(err) {
			return nil, 0, nil
		}
		if x == nil {
			return nil, 0, nil
		}
	}
	ifd0 := 0
	if x.Tiff != nil && len(x.Tiff.Dirs) > 0 {
		ifd0 = len(x.Tiff.Dirs[0].Tags)
	}
	walker := &exifWalker{}
	if err := x.Walk(walker); err != nil {
		return walker.fields, ifd0, err
	}
	return walker.fields, ifd0, nil
}
