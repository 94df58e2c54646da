package metadata

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bstardust/photo-frame-formatter/internal/geo"
	"github.com/bstardust/photo-frame-formatter/internal/logger"
)

// ExifTimeLayout is the EXIF DateTimeOriginal layout
const ExifTimeLayout = "2006:01:02 15:04:05"

// Field is a recognized metadata key
type Field int

const (
	FieldUnknown Field = iota
	FieldOrientation
	FieldGPSLatitude
	FieldGPSLatitudeRef
	FieldGPSLongitude
	FieldGPSLongitudeRef
	FieldCapturedAt
)

var fieldKeys = map[string]Field{
	"exif:orientation":      FieldOrientation,
	"exif:gpslatitude":      FieldGPSLatitude,
	"exif:gpslatituderef":   FieldGPSLatitudeRef,
	"exif:gpslongitude":     FieldGPSLongitude,
	"exif:gpslongituderef":  FieldGPSLongitudeRef,
	"exif:datetimeoriginal": FieldCapturedAt,
}

// ParseField matches key case-insensitively. Anything unrecognized is FieldUnknown.
func ParseField(key string) Field {
	return fieldKeys[strings.ToLower(strings.TrimSpace(key))]
}

func (f Field) String() string {
	for k, v := range fieldKeys {
		if v == f {
			return k
		}
	}
	return "unknown"
}

// Orientation is the clockwise rotation needed to display a photo upright
type Orientation int

const (
	Identity Orientation = iota
	Rotate90
	Rotate180
	Rotate270
)

// OrientationFromCode maps EXIF orientation codes 6, 3 and 8. Every other
// value, including garbage, means no rotation.
func OrientationFromCode(code string) Orientation {
	switch strings.TrimSpace(code) {
	case "6":
		return Rotate90
	case "3":
		return Rotate180
	case "8":
		return Rotate270
	default:
		return Identity
	}
}

// Degrees returns the clockwise rotation in degrees
func (o Orientation) Degrees() int {
	switch o {
	case Rotate90:
		return 90
	case Rotate180:
		return 180
	case Rotate270:
		return 270
	default:
		return 0
	}
}

func (o Orientation) String() string {
	if o == Identity {
		return "identity"
	}
	return "rotate" + strconv.Itoa(o.Degrees())
}

// PhotoMetadata is the normalized metadata of one photo. GPS is nil unless
// both coordinates were present and valid.
type PhotoMetadata struct {
	Orientation Orientation
	GPS         *geo.Point
	CapturedAt  *time.Time
}

// HasGPS reports whether a location is known
func (m PhotoMetadata) HasGPS() bool {
	return m.GPS != nil
}

// Fill copies GPS and capture time from other where m has none
func (m *PhotoMetadata) Fill(other PhotoMetadata) {
	if m.GPS == nil && other.GPS != nil {
		p := *other.GPS
		m.GPS = &p
	}
	if m.CapturedAt == nil && other.CapturedAt != nil {
		t := *other.CapturedAt
		m.CapturedAt = &t
	}
}

// Extractor normalizes a raw key/value metadata mapping
type Extractor struct {
	TimeLayout string
	Location   *time.Location
}

// NewExtractor creates an extractor parsing timestamps with layout in loc
func NewExtractor(layout string, loc *time.Location) *Extractor {
	if layout == "" {
		layout = ExifTimeLayout
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Extractor{
		TimeLayout: layout,
		Location:   loc,
	}
}

// Extract never fails: unknown keys are ignored and unusable values leave
// the matching field absent.
func (e *Extractor) Extract(raw map[string]string) PhotoMetadata {
	fields := make(map[Field]string)
	for k, v := range raw {
		if f := ParseField(k); f != FieldUnknown {
			fields[f] = v
		}
	}

	var md PhotoMetadata
	if code, ok := fields[FieldOrientation]; ok {
		md.Orientation = OrientationFromCode(code)
	}

	if p, err := gpsFromFields(fields); err == nil {
		md.GPS = p
	} else if !errors.Is(err, errPartialGPS) {
		logger.Debug("Ignoring GPS data: %v", err)
	}

	if v, ok := fields[FieldCapturedAt]; ok {
		t, err := time.ParseInLocation(e.TimeLayout, strings.TrimSpace(v), e.Location)
		if err != nil {
			logger.Warn("Unparseable capture time %q: %v", v, err)
		} else {
			md.CapturedAt = &t
		}
	}

	return md
}

var errPartialGPS = errors.New("partial gps data")

func gpsFromFields(fields map[Field]string) (*geo.Point, error) {
	lat, okLat := fields[FieldGPSLatitude]
	latRef, okLatRef := fields[FieldGPSLatitudeRef]
	lon, okLon := fields[FieldGPSLongitude]
	lonRef, okLonRef := fields[FieldGPSLongitudeRef]
	if !okLat || !okLatRef || !okLon || !okLonRef {
		return nil, errPartialGPS
	}

	latitude, err := geo.ParseDMS(lat, latRef)
	if err != nil {
		return nil, err
	}
	longitude, err := geo.ParseDMS(lon, lonRef)
	if err != nil {
		return nil, err
	}
	p, err := geo.NewPoint(latitude, longitude)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
