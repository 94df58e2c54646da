package s3client

import (
	"mime"
	"path/filepath"
	"strings"
)

// frameTypes covers what the formatter writes; other extensions fall back
// to the system MIME table.
var frameTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// DetectContentType derives a Content-Type from the object name
func DetectContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := frameTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
