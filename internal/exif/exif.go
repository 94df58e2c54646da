// internal/exif/exif.go
package exif

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// KeyPrefix is prepended to every tag name in the map returned by Read
const KeyPrefix = "exif:"

// Read decodes the EXIF block of r and flattens every tag into a string
// map keyed "exif:<TagName>". Rationals are rendered "n/d, n/d, ...".
// Images without EXIF yield an empty map and an error describing why.
func Read(r io.Reader) (map[string]string, error) {
	tags := make(map[string]string)

	x, err := exif.Decode(r)
	if x == nil {
		if err == nil {
			err = fmt.Errorf("no exif data")
		}
		return tags, err
	}
	// Non-critical errors still leave usable fields behind.
	if err != nil && exif.IsCriticalError(err) {
		return tags, err
	}

	if err := x.Walk(walker(tags)); err != nil {
		return tags, fmt.Errorf("failed to walk exif tags: %w", err)
	}
	return tags, nil
}

type walker map[string]string

func (w walker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if v, ok := formatTag(tag); ok {
		w[KeyPrefix+string(name)] = v
	}
	return nil
}

func formatTag(tag *tiff.Tag) (string, bool) {
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return "", false
		}
		return strings.TrimRight(s, "\x00 "), true
	case tiff.RatVal:
		parts := make([]string, 0, tag.Count)
		for i := 0; i < int(tag.Count); i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return "", false
			}
			parts = append(parts, strconv.FormatInt(num, 10)+"/"+strconv.FormatInt(den, 10))
		}
		return strings.Join(parts, ", "), true
	case tiff.IntVal:
		parts := make([]string, 0, tag.Count)
		for i := 0; i < int(tag.Count); i++ {
			n, err := tag.Int(i)
			if err != nil {
				return "", false
			}
			parts = append(parts, strconv.Itoa(n))
		}
		return strings.Join(parts, ", "), true
	case tiff.FloatVal:
		parts := make([]string, 0, tag.Count)
		for i := 0; i < int(tag.Count); i++ {
			f, err := tag.Float(i)
			if err != nil {
				return "", false
			}
			parts = append(parts, strconv.FormatFloat(f, 'f', -1, 64))
		}
		return strings.Join(parts, ", "), true
	default:
		// Undefined blobs (maker notes, thumbnails) are not useful as text.
		return "", false
	}
}
