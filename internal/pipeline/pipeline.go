// Package pipeline turns enumerated source photos into frame-ready JPEGs.
// One bad item never stops a batch.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/bstardust/photo-frame-formatter/internal/logger"
	"github.com/bstardust/photo-frame-formatter/internal/metadata"
	"github.com/bstardust/photo-frame-formatter/internal/output"
	"github.com/bstardust/photo-frame-formatter/internal/overlay"
	"github.com/bstardust/photo-frame-formatter/internal/progress"
	"github.com/bstardust/photo-frame-formatter/internal/resize"
	"github.com/bstardust/photo-frame-formatter/internal/source"
	"github.com/bstardust/photo-frame-formatter/internal/worker"
	"github.com/bstardust/photo-frame-formatter/pkg/common"
	"github.com/bstardust/photo-frame-formatter/pkg/models"
	"github.com/bstardust/photo-frame-formatter/pkg/s3client"
	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

// Geocoder resolves a place name; "" means unknown
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) string
}

// Options controls frame geometry and output
type Options struct {
	MaxWidth  int
	MaxHeight int
	// Overlay enables captions. Without it frames carry no text at all.
	Overlay     bool
	Quality     int
	ItemTimeout time.Duration
}

// Pipeline processes every entry of one source
type Pipeline struct {
	source   source.Adapter
	sink     output.Sink
	geocoder Geocoder
	composer *overlay.Composer
	pool     *worker.Pool
	progress *progress.Reporter
	opts     Options
}

// New creates a pipeline. geocoder may be nil to skip place lookups.
func New(src source.Adapter, sink output.Sink, geocoder Geocoder, composer *overlay.Composer,
	pool *worker.Pool, reporter *progress.Reporter, opts Options) *Pipeline {
	if opts.Quality <= 0 {
		opts.Quality = 90
	}
	return &Pipeline{
		source:   src,
		sink:     sink,
		geocoder: geocoder,
		composer: composer,
		pool:     pool,
		progress: reporter,
		opts:     opts,
	}
}

// Run enumerates the source and processes items on the worker pool. The
// report is always returned; the error is set only when enumeration itself
// failed or ctx ended.
func (p *Pipeline) Run(ctx context.Context) (models.Report, error) {
	p.progress.Start()
	names := newNameRegistry()

	enumErr := p.source.Enumerate(ctx, func(e source.Entry) error {
		p.progress.Enqueue()

		if e.Skipped() {
			logger.Info("Skipping %s: %s", e.ID, e.SkipReason)
			p.progress.Skip(e.ID, e.SkipReason)
			return nil
		}

		e.OutputName = names.claim(e.OutputName)
		if err := p.pool.Submit(ctx, func() { p.runItem(ctx, e) }); err != nil {
			p.progress.Error(e.ID, common.NewItemError(common.KindCanceled, e.ID, err))
			return err
		}
		return nil
	})

	// Wait for all items to complete
	p.pool.Wait()
	report := p.progress.Finish()

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if enumErr != nil {
		return report, fmt.Errorf("failed to enumerate %s: %w", p.source.Name(), enumErr)
	}
	return report, nil
}

func (p *Pipeline) runItem(ctx context.Context, e source.Entry) {
	if p.opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.ItemTimeout)
		defer cancel()
	}

	hash, err := p.process(ctx, e)
	if err != nil {
		logger.Error("Failed to process %s: %v", e.ID, err)
		p.progress.Error(e.ID, err)
		return
	}

	logger.Debug("Saved %s as %s", e.ID, e.OutputName)
	p.progress.Complete(e.ID, e.OutputName, hash)
}

// process runs one item through every step. The returned error always
// carries a failure kind. A panic in a loader or image step fails only
// this item.
func (p *Pipeline) process(ctx context.Context, e source.Entry) (hash *goimagehash.ImageHash, err error) {
	kind := common.KindSourceRead
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("Recovered panic for %s: %v\n%s", e.ID, r, debug.Stack())
			hash, err = nil, common.NewItemError(kind, e.ID, fmt.Errorf("panic: %v", r))
		}
	}()

	img, err := e.Load(ctx)
	if err != nil {
		return nil, common.NewItemError(common.KindSourceRead, e.ID, err)
	}
	kind = common.KindEncodeOrSave

	frame, err := p.Frame(ctx, img)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(p.opts.Quality)); err != nil {
		return nil, common.NewItemError(common.KindEncodeOrSave, e.ID, fmt.Errorf("failed to encode: %w", err))
	}

	hash, err = goimagehash.AverageHash(frame)
	if err != nil {
		logger.Debug("Could not hash %s: %v", e.ID, err)
		hash = nil
	}

	if err := ctx.Err(); err != nil {
		return nil, common.NewItemError(common.KindCanceled, e.ID, err)
	}
	contentType := s3client.DetectContentType(img.OutputName)
	if err := p.sink.Put(ctx, img.OutputName, bytes.NewReader(buf.Bytes()), int64(buf.Len()), contentType); err != nil {
		return nil, common.NewItemError(common.KindEncodeOrSave, e.ID, err)
	}
	return hash, nil
}

// Frame rotates, resizes and captions a loaded photo
func (p *Pipeline) Frame(ctx context.Context, img *source.SourceImage) (*image.NRGBA, error) {
	if img.Image == nil {
		return nil, common.NewItemError(common.KindSourceRead, img.ID, errors.New("no image data"))
	}

	rotated := Rotate(img.Image, img.Metadata.Orientation)

	b := rotated.Bounds()
	target, err := resize.Plan(b.Dx(), b.Dy(), p.opts.MaxWidth, p.opts.MaxHeight)
	if err != nil {
		return nil, common.NewItemError(common.KindInvalidDimensions, img.ID, err)
	}
	frame := imaging.Resize(rotated, target.Width, target.Height, imaging.Lanczos)

	if !p.opts.Overlay {
		return frame, nil
	}

	text := p.Caption(ctx, img.Metadata)
	if text == "" {
		return frame, nil
	}
	captioned, err := p.composer.Draw(frame, text)
	if err != nil {
		return nil, common.NewItemError(common.KindEncodeOrSave, img.ID, err)
	}
	return captioned, nil
}

// Caption builds the overlay text, looking up the place when a geocoder is
// configured and the photo has a location.
func (p *Pipeline) Caption(ctx context.Context, md metadata.PhotoMetadata) string {
	var place string
	if p.geocoder != nil && md.GPS != nil {
		place = p.geocoder.ReverseGeocode(ctx, md.GPS.Latitude, md.GPS.Longitude)
	}
	return p.composer.Caption(md.CapturedAt, place)
}

// Rotate turns img clockwise by the orientation's angle
func Rotate(img image.Image, o metadata.Orientation) image.Image {
	// imaging rotates counter-clockwise.
	switch o {
	case metadata.Rotate90:
		return imaging.Rotate270(img)
	case metadata.Rotate180:
		return imaging.Rotate180(img)
	case metadata.Rotate270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// nameRegistry hands out unique output names. It is only used from the
// enumeration goroutine, so claims follow enumeration order.
type nameRegistry struct {
	used map[string]int
}

func newNameRegistry() *nameRegistry {
	return &nameRegistry{used: make(map[string]int)}
}

func (r *nameRegistry) claim(name string) string {
	if name == "" {
		return ""
	}
	if r.used[name] == 0 {
		r.used[name] = 1
		return name
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := r.used[name] + 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d%s", base, n, ext)
		if r.used[candidate] == 0 {
			r.used[name] = n
			r.used[candidate] = 1
			logger.Warn("Output name %s already taken, using %s", name, candidate)
			return candidate
		}
	}
}
