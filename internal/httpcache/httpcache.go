// Package httpcache keeps HTTP responses on disk between runs so reverse
// geocoding lookups and feed photo downloads are not repeated. Freshness
// follows the response's Cache-Control and Expires headers.
package httpcache

import (
	"net/http"
	"time"

	"github.com/bstardust/photo-frame-formatter/internal/logger"
	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// HeaderCached is set to "1" on responses served from the cache
const HeaderCached = httpcache.XFromCache

// New wraps base with a disk cache under dir. An empty dir disables
// caching and returns base itself; a nil base uses http.DefaultTransport.
func New(dir string, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if dir == "" {
		return base
	}

	logger.Debug("Caching HTTP responses in %s", dir)
	t := httpcache.NewTransport(diskcache.New(dir))
	t.Transport = base
	return t
}

// NewClient returns an http.Client whose transport caches under dir
func NewClient(dir string, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: New(dir, nil),
		Timeout:   timeout,
	}
}

// Cached reports whether resp was served from the cache
func Cached(resp *http.Response) bool {
	return resp != nil && resp.Header.Get(HeaderCached) == "1"
}
