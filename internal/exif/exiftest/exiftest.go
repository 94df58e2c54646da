// Package exiftest builds small EXIF blocks and JPEGs carrying them, for tests
// that need real metadata without binary fixtures.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image"
	"sort"

	"github.com/disintegration/imaging"
)

const (
	tagOrientation      = 0x0112
	tagExifIFDPointer   = 0x8769
	tagGPSIFDPointer    = 0x8825
	tagDateTimeOriginal = 0x9003
	tagGPSLatitudeRef   = 0x0001
	tagGPSLatitude      = 0x0002
	tagGPSLongitudeRef  = 0x0003
	tagGPSLongitude     = 0x0004

	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

// Rational is a numerator/denominator pair
type Rational [2]uint32

// GPS holds the four GPS tags in their EXIF encoding
type GPS struct {
	Latitude     [3]Rational
	LatitudeRef  string
	Longitude    [3]Rational
	LongitudeRef string
}

// Tags selects what goes into the EXIF block. Zero values are omitted.
type Tags struct {
	Orientation      uint16
	DateTimeOriginal string
	GPS              *GPS
}

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

var le = binary.LittleEndian

func ascii(tag uint16, s string) entry {
	data := append([]byte(s), 0)
	return entry{tag: tag, typ: typeASCII, count: uint32(len(data)), data: data}
}

func short(tag uint16, v uint16) entry {
	data := make([]byte, 2)
	le.PutUint16(data, v)
	return entry{tag: tag, typ: typeShort, count: 1, data: data}
}

func long(tag uint16, v uint32) entry {
	data := make([]byte, 4)
	le.PutUint32(data, v)
	return entry{tag: tag, typ: typeLong, count: 1, data: data}
}

func rationals(tag uint16, rs [3]Rational) entry {
	data := make([]byte, 0, 24)
	for _, r := range rs {
		data = le.AppendUint32(data, r[0])
		data = le.AppendUint32(data, r[1])
	}
	return entry{tag: tag, typ: typeRational, count: 3, data: data}
}

func ifdSize(entries []entry) uint32 {
	n := uint32(2 + 12*len(entries) + 4)
	for _, e := range entries {
		if len(e.data) > 4 {
			n += uint32(len(e.data) + len(e.data)%2)
		}
	}
	return n
}

// writeIFD appends one directory at offset, which must equal buf.Len()
func writeIFD(buf *bytes.Buffer, offset uint32, entries []entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	dataOffset := offset + uint32(2+12*len(entries)+4)
	var data bytes.Buffer

	binary.Write(buf, le, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(buf, le, e.tag)
		binary.Write(buf, le, e.typ)
		binary.Write(buf, le, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			buf.Write(v)
			continue
		}
		binary.Write(buf, le, dataOffset+uint32(data.Len()))
		data.Write(e.data)
		if len(e.data)%2 == 1 {
			data.WriteByte(0)
		}
	}
	binary.Write(buf, le, uint32(0))
	buf.Write(data.Bytes())
}

// TIFF encodes tags as a little-endian TIFF structure, the payload of an
// EXIF APP1 segment.
func TIFF(t Tags) []byte {
	var ifd0, exifIFD, gpsIFD []entry

	if t.Orientation != 0 {
		ifd0 = append(ifd0, short(tagOrientation, t.Orientation))
	}
	if t.DateTimeOriginal != "" {
		exifIFD = append(exifIFD, ascii(tagDateTimeOriginal, t.DateTimeOriginal))
	}
	if t.GPS != nil {
		if t.GPS.LatitudeRef != "" {
			gpsIFD = append(gpsIFD, ascii(tagGPSLatitudeRef, t.GPS.LatitudeRef))
		}
		if t.GPS.Latitude[0][1] != 0 {
			gpsIFD = append(gpsIFD, rationals(tagGPSLatitude, t.GPS.Latitude))
		}
		if t.GPS.LongitudeRef != "" {
			gpsIFD = append(gpsIFD, ascii(tagGPSLongitudeRef, t.GPS.LongitudeRef))
		}
		if t.GPS.Longitude[0][1] != 0 {
			gpsIFD = append(gpsIFD, rationals(tagGPSLongitude, t.GPS.Longitude))
		}
	}

	// Pointer entries are fixed size, so sub directory offsets are known
	// before anything is written.
	if len(exifIFD) > 0 {
		ifd0 = append(ifd0, long(tagExifIFDPointer, 0))
	}
	if len(gpsIFD) > 0 {
		ifd0 = append(ifd0, long(tagGPSIFDPointer, 0))
	}
	offset := uint32(8)
	next := offset + ifdSize(ifd0)
	exifOffset := next
	if len(exifIFD) > 0 {
		next += ifdSize(exifIFD)
	}
	gpsOffset := next
	for i := range ifd0 {
		switch ifd0[i].tag {
		case tagExifIFDPointer:
			ifd0[i] = long(tagExifIFDPointer, exifOffset)
		case tagGPSIFDPointer:
			ifd0[i] = long(tagGPSIFDPointer, gpsOffset)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, le, uint16(42))
	binary.Write(&buf, le, offset)
	writeIFD(&buf, offset, ifd0)
	if len(exifIFD) > 0 {
		writeIFD(&buf, exifOffset, exifIFD)
	}
	if len(gpsIFD) > 0 {
		writeIFD(&buf, gpsOffset, gpsIFD)
	}
	return buf.Bytes()
}

// InsertEXIF splices an APP1 EXIF segment right after the JPEG SOI marker
func InsertEXIF(jpegData []byte, t Tags) []byte {
	payload := append([]byte("Exif\x00\x00"), TIFF(t)...)

	out := make([]byte, 0, len(jpegData)+len(payload)+4)
	out = append(out, jpegData[:2]...)
	out = append(out, 0xFF, 0xE1)
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	out = append(out, jpegData[2:]...)
	return out
}

// JPEG encodes img and attaches the given EXIF tags
func JPEG(img image.Image, t Tags) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return nil, err
	}
	return InsertEXIF(buf.Bytes(), t), nil
}

// Image returns a w x h test image whose left half is red and right half blue
func Image(w, h int) *image.NRGBA {
	img := imaging.New(w, h, image.Black.C)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.Pix[img.PixOffset(x, y)+0] = 0xff
			} else {
				img.Pix[img.PixOffset(x, y)+2] = 0xff
			}
		}
	}
	return img
}
