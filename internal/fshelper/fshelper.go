// Package fshelper opens photo trees, plain directories or .zip exports,
// behind io/fs.
package fshelper

import (
	"archive/zip"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Tree is a read-only photo tree. Close releases the archive handle, if any.
type Tree struct {
	fs.FS
	name  string
	close func() error
}

// Name is the cleaned path the tree was opened from
func (t *Tree) Name() string {
	return t.name
}

func (t *Tree) Close() error {
	return t.close()
}

// IsZip reports whether path names a zip archive
func IsZip(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}

// Open opens a directory or a zip archive. Anything else is rejected.
func Open(path string) (*Tree, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("path does not exist: %s", path)
	case err != nil:
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}

	name := filepath.Clean(path)
	if info.IsDir() {
		return &Tree{FS: os.DirFS(path), name: name, close: func() error { return nil }}, nil
	}
	if !IsZip(path) {
		return nil, fmt.Errorf("unsupported source %s: expected a directory or .zip archive", path)
	}

	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	return &Tree{FS: archive, name: name, close: archive.Close}, nil
}
