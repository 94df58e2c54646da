package overlay

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaption(t *testing.T) {
	at := time.Date(2020, 5, 1, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, "May 01 '20, 14:30", Caption(&at, "", ""))
	assert.Equal(t, "May 01 '20, 14:30 @ Mission District, San Francisco", Caption(&at, "Mission District, San Francisco", DateLayout))
	assert.Equal(t, " @ Mission District", Caption(nil, "Mission District", ""))
	assert.Equal(t, "", Caption(nil, "", ""))
	assert.Equal(t, "2020-05-01", Caption(&at, "", "2006-01-02"))
}

func gray(w, h int) *image.NRGBA {
	return imaging.New(w, h, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
}

func countChanged(img *image.NRGBA, rect image.Rectangle) int {
	n := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if img.NRGBAAt(x, y) != (color.NRGBA{R: 128, G: 128, B: 128, A: 255}) {
				n++
			}
		}
	}
	return n
}

func TestDraw(t *testing.T) {
	c, err := NewComposer(DefaultStyle())
	require.NoError(t, err)

	src := gray(300, 120)
	out, err := c.Draw(src, "May 01 '20, 14:30")
	require.NoError(t, err)

	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Greater(t, countChanged(out, image.Rect(0, 0, 300, 32)), 50)
	assert.Zero(t, countChanged(out, image.Rect(0, 40, 300, 120)))
	assert.Zero(t, countChanged(src, src.Bounds()), "source must not be modified")

	left := countChanged(out, image.Rect(0, 0, 150, 32))
	right := countChanged(out, image.Rect(150, 0, 300, 32))
	assert.InDelta(t, left, right, float64(left+right)/3, "text should be roughly centered")
}

func TestDraw_EmptyText(t *testing.T) {
	c, err := NewComposer(DefaultStyle())
	require.NoError(t, err)

	out, err := c.Draw(gray(50, 50), "")
	require.NoError(t, err)
	assert.Zero(t, countChanged(out, out.Bounds()))
}

func TestNewComposer_BadFont(t *testing.T) {
	style := DefaultStyle()
	style.FontData = []byte("not a font")
	_, err := NewComposer(style)
	assert.Error(t, err)

	_, err = DefaultStyle().LoadFont("/does/not/exist.ttf")
	assert.Error(t, err)
}
