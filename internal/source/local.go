package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bstardust/photo-frame-formatter/internal/exif"
	"github.com/bstardust/photo-frame-formatter/internal/fshelper"
	"github.com/bstardust/photo-frame-formatter/internal/logger"
	"github.com/bstardust/photo-frame-formatter/internal/metadata"
	"github.com/bstardust/photo-frame-formatter/internal/takeout"
	"github.com/bstardust/photo-frame-formatter/pkg/common"
	"github.com/disintegration/imaging"
)

// Local walks a directory tree or zip archive
type Local struct {
	root      string
	fsys      fs.FS
	closer    func() error
	extractor *metadata.Extractor
}

// NewLocal opens path, a directory or .zip archive
func NewLocal(path string) (*Local, error) {
	fsys, err := fshelper.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	return &Local{
		root:      fsys.Name(),
		fsys:      fsys,
		closer:    fsys.Close,
		extractor: metadata.NewExtractor(metadata.ExifTimeLayout, nil),
	}, nil
}

// NewLocalFS enumerates an already opened filesystem. root only prefixes
// identifiers and output names.
func NewLocalFS(root string, fsys fs.FS) *Local {
	return &Local{
		root:      root,
		fsys:      fsys,
		closer:    func() error { return nil },
		extractor: metadata.NewExtractor(metadata.ExifTimeLayout, nil),
	}
}

// Name returns the source path
func (l *Local) Name() string {
	return l.root
}

// Close releases the underlying archive, if any
func (l *Local) Close() error {
	return l.closer()
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Enumerate walks the tree in lexical order. Hidden files and directories
// and Takeout sidecars are skipped; everything else is offered as a photo.
func (l *Local) Enumerate(ctx context.Context, yield func(Entry) error) error {
	return fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		id := filepath.Join(l.root, filepath.FromSlash(p))
		if err != nil {
			if p == "." {
				return fmt.Errorf("failed to read source %s: %w", l.root, err)
			}
			if yerr := yield(FailedEntry(id, common.KindSourceRead, err)); yerr != nil {
				return yerr
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if p != "." && hidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || takeout.IsSidecar(d.Name()) {
			return nil
		}

		name := p
		return yield(NewEntry(id, SanitizeName(id), func(ctx context.Context) (*SourceImage, error) {
			return l.load(ctx, id, name)
		}))
	})
}

func (l *Local) load(ctx context.Context, id, name string) (*SourceImage, error) {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, common.NewItemError(common.KindSourceRead, id, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewItemError(common.KindSourceRead, id, fmt.Errorf("failed to decode image: %w", err))
	}

	raw, err := exif.Read(bytes.NewReader(data))
	if err != nil {
		logger.Debug("No usable EXIF in %s: %v", id, err)
	}
	md := l.extractor.Extract(raw)

	sc, err := takeout.Read(l.fsys, name)
	switch {
	case err == nil:
		md.Fill(sc.Metadata())
	case !errors.Is(err, fs.ErrNotExist):
		logger.Warn("Ignoring sidecar %s: %v", takeout.Path(name), err)
	}

	return &SourceImage{Image: img, Metadata: md}, nil
}
