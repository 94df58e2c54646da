// Package source enumerates photos from local trees and remote feeds behind
// one Adapter interface so the pipeline treats them identically.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/bstardust/photo-frame-formatter/internal/metadata"
	"github.com/bstardust/photo-frame-formatter/pkg/common"
)

// OutputExt is appended to every derived output name
const OutputExt = ".jpg"

// ErrVideoEntry marks feed entries that are videos rather than photos
var ErrVideoEntry = errors.New("video entry")

// SourceImage is a decoded photo ready for processing
type SourceImage struct {
	ID         string
	Image      image.Image
	Metadata   metadata.PhotoMetadata
	OutputName string
}

// Entry is one enumerated item. Enumeration is cheap; the expensive decode
// or download happens in Load so it can run on a bounded worker.
type Entry struct {
	ID         string
	OutputName string
	// SkipReason is set for items that must not be processed at all
	SkipReason string

	load func(ctx context.Context) (*SourceImage, error)
}

// NewEntry creates an entry whose photo is produced by load
func NewEntry(id, outputName string, load func(ctx context.Context) (*SourceImage, error)) Entry {
	return Entry{ID: id, OutputName: outputName, load: load}
}

// FailedEntry reports an item that could not even be enumerated properly
func FailedEntry(id string, kind common.Kind, err error) Entry {
	return Entry{ID: id, load: func(context.Context) (*SourceImage, error) {
		return nil, common.NewItemError(kind, id, err)
	}}
}

// SkippedEntry reports an item that is intentionally ignored
func SkippedEntry(id, reason string) Entry {
	return Entry{ID: id, SkipReason: reason}
}

// Skipped reports whether the entry should not be loaded
func (e Entry) Skipped() bool {
	return e.SkipReason != ""
}

// Load produces the photo. The returned image carries the entry's current
// OutputName so callers may rename entries before loading.
func (e Entry) Load(ctx context.Context) (*SourceImage, error) {
	if e.Skipped() {
		return nil, fmt.Errorf("%s: skipped: %s", e.ID, e.SkipReason)
	}
	if e.load == nil {
		return nil, common.NewItemError(common.KindSourceRead, e.ID, errors.New("entry has no loader"))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	img.ID = e.ID
	img.OutputName = e.OutputName
	return img, nil
}

// Adapter enumerates the items of one photo source
type Adapter interface {
	// Name identifies the source in logs
	Name() string
	// Enumerate calls yield once per item in a single pass. A yield error
	// stops enumeration and is returned. Per-item problems are reported
	// as failed or skipped entries, not as an Enumerate error.
	Enumerate(ctx context.Context, yield func(Entry) error) error
}

var nameStripper = strings.NewReplacer("/", "", "\\", "", ".", "", " ", "")

// SanitizeName turns a source path into a flat file name by dropping path
// separators, dots and spaces and appending the output extension.
func SanitizeName(path string) string {
	return nameStripper.Replace(path) + OutputExt
}
