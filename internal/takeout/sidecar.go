// Package takeout reads the JSON sidecars Google Takeout writes next to
// every exported photo.
package takeout

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/bstardust/photo-frame-formatter/internal/geo"
	"github.com/bstardust/photo-frame-formatter/internal/metadata"
)

// Sidecar is the subset of a Takeout sidecar used for frame captions
type Sidecar struct {
	Title          string    `json:"title,omitempty"`
	PhotoTakenTime *TimeInfo `json:"photoTakenTime,omitempty"`
	GeoData        *GeoData  `json:"geoData,omitempty"`
}

// TimeInfo represents timestamp information
type TimeInfo struct {
	Timestamp string `json:"timestamp"`
	Formatted string `json:"formatted"`
}

// GeoData represents geographical data
type GeoData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude,omitempty"`
}

// Path returns where Takeout stores the sidecar for a media file
func Path(mediaPath string) string {
	return mediaPath + ".json"
}

// IsSidecar reports whether name looks like a sidecar rather than media
func IsSidecar(name string) bool {
	lower := strings.ToLower(name)
	return len(lower) > len(".json") && strings.HasSuffix(lower, ".json")
}

// Parse decodes a sidecar document
func Parse(r io.Reader) (*Sidecar, error) {
	var sc Sidecar
	if err := json.NewDecoder(r).Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to decode sidecar: %w", err)
	}
	return &sc, nil
}

// Read loads the sidecar of mediaPath from fsys. A missing sidecar
// returns an error satisfying errors.Is(err, fs.ErrNotExist).
func Read(fsys fs.FS, mediaPath string) (*Sidecar, error) {
	f, err := fsys.Open(Path(mediaPath))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Metadata converts the sidecar into normalized metadata. Takeout writes
// 0,0 when it has no location, so that pair counts as absent.
func (s *Sidecar) Metadata() metadata.PhotoMetadata {
	var md metadata.PhotoMetadata

	if s.GeoData != nil && (s.GeoData.Latitude != 0 || s.GeoData.Longitude != 0) {
		if p, err := geo.NewPoint(s.GeoData.Latitude, s.GeoData.Longitude); err == nil {
			md.GPS = &p
		}
	}

	if s.PhotoTakenTime != nil && s.PhotoTakenTime.Timestamp != "" {
		if secs, err := strconv.ParseInt(s.PhotoTakenTime.Timestamp, 10, 64); err == nil {
			t := time.Unix(secs, 0).UTC()
			md.CapturedAt = &t
		}
	}

	return md
}
