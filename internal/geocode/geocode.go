// Package geocode resolves coordinates to a short place name. Lookups are
// best effort: every failure degrades to an empty string.
package geocode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bstardust/photo-frame-formatter/internal/logger"
	"github.com/tidwall/gjson"
)

// DefaultEndpoint is the Google reverse geocoding API
const DefaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

const addressPath = "results.0.formatted_address"

// Policy decides how much of a formatted address is kept
type Policy string

const (
	// PolicyFirstTwo keeps the first two comma separated components
	PolicyFirstTwo Policy = "first-two"
	// PolicyDropLast drops the final component and keeps at most three
	PolicyDropLast Policy = "drop-last"
)

// ParsePolicy accepts "first-two", "drop-last" or "" (first-two)
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFirstTwo:
		return PolicyFirstTwo, nil
	case PolicyDropLast:
		return PolicyDropLast, nil
	default:
		return "", fmt.Errorf("unknown geocode policy %q", s)
	}
}

// Truncate shortens a formatted address according to the policy
func (p Policy) Truncate(address string) string {
	switch p {
	case PolicyDropLast:
		parts := strings.SplitN(address, ",", 4)
		return strings.Join(parts[:len(parts)-1], ",")
	default:
		parts := strings.Split(address, ",")
		if len(parts) > 2 {
			parts = parts[:2]
		}
		return strings.Join(parts, ",")
	}
}

// Geocoder performs reverse geocoding lookups
type Geocoder struct {
	client   *http.Client
	endpoint string
	apiKey   string
	policy   Policy
}

// Option configures a Geocoder
type Option func(*Geocoder)

// WithHTTPClient sets the client, typically one with a disk cache
func WithHTTPClient(c *http.Client) Option {
	return func(g *Geocoder) { g.client = c }
}

// WithEndpoint overrides the API endpoint
func WithEndpoint(endpoint string) Option {
	return func(g *Geocoder) { g.endpoint = endpoint }
}

// WithPolicy sets the address truncation policy
func WithPolicy(p Policy) Option {
	return func(g *Geocoder) { g.policy = p }
}

// New creates a geocoder authenticated with apiKey
func New(apiKey string, opts ...Option) *Geocoder {
	g := &Geocoder{
		client:   http.DefaultClient,
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		policy:   PolicyFirstTwo,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// URL builds the lookup URL for a coordinate pair
func (g *Geocoder) URL(lat, lon float64) string {
	return fmt.Sprintf("%s?latlng=%s,%s&key=%s&result_type=neighborhood",
		g.endpoint,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64),
		url.QueryEscape(g.apiKey))
}

// ReverseGeocode returns a truncated place name, or "" when the lookup
// fails for any reason.
func (g *Geocoder) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	address, err := g.lookup(ctx, lat, lon)
	if err != nil {
		logger.Debug("Reverse geocoding %v,%v failed: %v", lat, lon, err)
		return ""
	}
	return g.policy.Truncate(address)
}

func (g *Geocoder) lookup(ctx context.Context, lat, lon float64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.URL(lat, lon), nil)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("malformed response")
	}

	result := gjson.GetBytes(body, addressPath)
	if result.Type != gjson.String {
		return "", fmt.Errorf("no %s in response", addressPath)
	}
	return result.String(), nil
}
