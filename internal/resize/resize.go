// Package resize computes frame-sized target dimensions.
package resize

import (
	"errors"
	"fmt"
)

var ErrInvalidDimensions = errors.New("invalid dimensions")

// Target is a positive width and height
type Target struct {
	Width  int
	Height int
}

// Plan fits originalW x originalH into maxW x maxH preserving aspect ratio.
//
// The ratio comparison is done by cross multiplication so it is exact. An
// image relatively wider than the box is bound by width, anything else by
// height. Images smaller than the box are scaled up so one side always
// equals its maximum. Results are truncated toward zero and never below 1.
func Plan(originalW, originalH, maxW, maxH int) (Target, error) {
	if originalW <= 0 || originalH <= 0 || maxW <= 0 || maxH <= 0 {
		return Target{}, fmt.Errorf("%w: %dx%d into %dx%d", ErrInvalidDimensions, originalW, originalH, maxW, maxH)
	}

	ow, oh := int64(originalW), int64(originalH)
	mw, mh := int64(maxW), int64(maxH)

	var t Target
	if ow*mh > mw*oh {
		t = Target{Width: maxW, Height: int(mw * oh / ow)}
	} else {
		t = Target{Width: int(mh * ow / oh), Height: maxH}
	}

	if t.Width < 1 {
		t.Width = 1
	}
	if t.Height < 1 {
		t.Height = 1
	}
	return t, nil
}

// Fits reports whether the target lies within the box
func (t Target) Fits(maxW, maxH int) bool {
	return t.Width <= maxW && t.Height <= maxH
}
