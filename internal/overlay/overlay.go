// Package overlay builds frame captions and renders them onto images.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DateLayout renders e.g. "May 01 '20, 14:30"
const DateLayout = "Jan 02 '06, 15:04"

// Style is the immutable rendering configuration of a Composer
type Style struct {
	FontSize    float64
	Fill        color.Color
	Stroke      color.Color
	StrokeWidth float64
	// FontData holds a TrueType or OpenType font. Empty means Go Regular.
	FontData   []byte
	DateLayout string
}

// DefaultStyle is white 24pt text with a thin black outline
func DefaultStyle() Style {
	return Style{
		FontSize:    24,
		Fill:        color.White,
		Stroke:      color.Black,
		StrokeWidth: 0.5,
		DateLayout:  DateLayout,
	}
}

// LoadFont reads a font file into the style
func (s Style) LoadFont(path string) (Style, error) {
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read font %s: %w", path, err)
	}
	s.FontData = data
	return s, nil
}

// Caption is "<date> @ <place>". Either part may be missing; with neither
// the caption is empty and nothing should be drawn.
func Caption(capturedAt *time.Time, place, layout string) string {
	if layout == "" {
		layout = DateLayout
	}

	var text string
	if capturedAt != nil {
		text = capturedAt.Format(layout)
	}
	if place != "" {
		text += " @ " + place
	}
	return text
}

// Composer draws captions. It is safe for concurrent use.
type Composer struct {
	style Style
	font  *opentype.Font
}

// NewComposer parses the style's font
func NewComposer(style Style) (*Composer, error) {
	data := style.FontData
	if len(data) == 0 {
		data = goregular.TTF
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	if style.FontSize <= 0 {
		style.FontSize = DefaultStyle().FontSize
	}
	if style.DateLayout == "" {
		style.DateLayout = DateLayout
	}
	return &Composer{style: style, font: f}, nil
}

// Style returns the composer's configuration
func (c *Composer) Style() Style {
	return c.style
}

// Caption formats a caption with the composer's date layout
func (c *Composer) Caption(capturedAt *time.Time, place string) string {
	return Caption(capturedAt, place, c.style.DateLayout)
}

// Draw returns a copy of img with text centered horizontally, its baseline
// one font size below the top edge. The stroke is drawn first at offsets
// around the anchor, then the fill on top.
func (c *Composer) Draw(img image.Image, text string) (*image.NRGBA, error) {
	dst := imaging.Clone(img)
	if text == "" {
		return dst, nil
	}

	// Faces cache glyphs and are not safe for concurrent use.
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    c.style.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	d := &font.Drawer{Dst: dst, Face: face}
	width := d.MeasureString(text)
	origin := fixed.Point26_6{
		X: fixed.I(dst.Bounds().Dx()/2) - width/2,
		Y: fixed.I(int(c.style.FontSize)),
	}

	if c.style.Stroke != nil && c.style.StrokeWidth > 0 {
		s := fixed.Int26_6(c.style.StrokeWidth * 64)
		if s < 1 {
			s = 1
		}
		d.Src = image.NewUniform(c.style.Stroke)
		for _, off := range [][2]fixed.Int26_6{{-s, -s}, {0, -s}, {s, -s}, {-s, 0}, {s, 0}, {-s, s}, {0, s}, {s, s}} {
			d.Dot = fixed.Point26_6{X: origin.X + off[0], Y: origin.Y + off[1]}
			d.DrawString(text)
		}
	}

	fill := c.style.Fill
	if fill == nil {
		fill = color.White
	}
	d.Src = image.NewUniform(fill)
	d.Dot = origin
	d.DrawString(text)

	return dst, nil
}
