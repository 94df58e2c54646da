package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bstardust/photo-frame-formatter/internal/geo"
	"github.com/bstardust/photo-frame-formatter/internal/logger"
	"github.com/bstardust/photo-frame-formatter/internal/metadata"
	"github.com/bstardust/photo-frame-formatter/pkg/common"
	"github.com/disintegration/imaging"
	"github.com/tidwall/gjson"
)

// RemoteToken is the source value that selects the remote feed
const RemoteToken = "remote"

// DefaultPageSize is the number of entries requested from the feed
const DefaultPageSize = 50

// FeedSchema holds the gjson paths used to read a feed document
type FeedSchema struct {
	Entries   string
	ID        string
	Title     string
	Content   string
	Point     string
	Published string
	// Video is a field only present on video entries
	Video string
}

// PicasaSchema reads the JSON rendering of a Picasa Web Albums GData feed
var PicasaSchema = FeedSchema{
	Entries:   "feed.entry",
	ID:        "gphoto$id.$t",
	Title:     "title.$t",
	Content:   "content.src",
	Point:     "georss$where.gml$Point.gml$pos.$t",
	Published: "published.$t",
	Video:     "gphoto$videostatus",
}

var publishedLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999"}

// Feed reads one page of a remote photo feed. The client is expected to
// carry the feed credentials.
type Feed struct {
	client   *http.Client
	url      string
	pageSize int
	schema   FeedSchema
}

// FeedOption configures a Feed
type FeedOption func(*Feed)

// WithPageSize sets max-results
func WithPageSize(n int) FeedOption {
	return func(f *Feed) {
		if n > 0 {
			f.pageSize = n
		}
	}
}

// WithSchema overrides the gjson paths
func WithSchema(s FeedSchema) FeedOption {
	return func(f *Feed) { f.schema = s }
}

// NewFeed creates a feed adapter for feedURL
func NewFeed(client *http.Client, feedURL string, opts ...FeedOption) *Feed {
	f := &Feed{
		client:   client,
		url:      feedURL,
		pageSize: DefaultPageSize,
		schema:   PicasaSchema,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the feed URL
func (f *Feed) Name() string {
	return f.url
}

func (f *Feed) pageURL() (string, error) {
	u, err := url.Parse(f.url)
	if err != nil {
		return "", fmt.Errorf("invalid feed url: %w", err)
	}
	q := u.Query()
	q.Set("alt", "json")
	q.Set("max-results", strconv.Itoa(f.pageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (f *Feed) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Enumerate fetches one page and yields its entries. Videos are skipped.
func (f *Feed) Enumerate(ctx context.Context, yield func(Entry) error) error {
	pageURL, err := f.pageURL()
	if err != nil {
		return err
	}

	body, err := f.get(ctx, pageURL)
	if err != nil {
		return common.NewItemError(common.KindNetwork, f.url, fmt.Errorf("failed to fetch feed: %w", err))
	}
	if !gjson.ValidBytes(body) {
		return common.NewItemError(common.KindSourceRead, f.url, fmt.Errorf("feed is not valid JSON"))
	}

	for i, e := range gjson.GetBytes(body, f.schema.Entries).Array() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := yield(f.entry(i, e)); err != nil {
			return err
		}
	}
	return nil
}

func (f *Feed) entry(index int, e gjson.Result) Entry {
	title := e.Get(f.schema.Title).String()
	id := e.Get(f.schema.ID).String()
	if id == "" {
		id = title
	}
	if id == "" {
		id = fmt.Sprintf("%s#%d", f.url, index)
	}

	if e.Get(f.schema.Video).Exists() {
		return SkippedEntry(id, ErrVideoEntry.Error())
	}

	content := e.Get(f.schema.Content).String()
	if content == "" {
		return FailedEntry(id, common.KindSourceRead, fmt.Errorf("entry has no image url"))
	}

	md := f.metadata(id, e)
	return NewEntry(id, FeedOutputName(title, id), func(ctx context.Context) (*SourceImage, error) {
		return f.load(ctx, id, content, md)
	})
}

func (f *Feed) metadata(id string, e gjson.Result) metadata.PhotoMetadata {
	var md metadata.PhotoMetadata

	if pos := e.Get(f.schema.Point).String(); pos != "" {
		p, err := geo.ParsePoint(pos)
		if err != nil {
			logger.Debug("Ignoring location of %s: %v", id, err)
		} else {
			md.GPS = &p
		}
	}

	if published := e.Get(f.schema.Published).String(); published != "" {
		t, err := parsePublished(published)
		if err != nil {
			logger.Warn("Unparseable publish time %q for %s: %v", published, id, err)
		} else {
			md.CapturedAt = &t
		}
	}
	return md
}

func parsePublished(s string) (t time.Time, err error) {
	for _, layout := range publishedLayouts {
		if t, err = time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func (f *Feed) load(ctx context.Context, id, content string, md metadata.PhotoMetadata) (*SourceImage, error) {
	data, err := f.get(ctx, content)
	if err != nil {
		return nil, common.NewItemError(common.KindNetwork, id, fmt.Errorf("failed to fetch image: %w", err))
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewItemError(common.KindSourceRead, id, fmt.Errorf("failed to decode image: %w", err))
	}
	return &SourceImage{Image: img, Metadata: md}, nil
}

var titleStripper = strings.NewReplacer("/", "", "\\", "")

// FeedOutputName uses the entry title as file name, without path
// separators. Untitled entries fall back to the sanitized id.
func FeedOutputName(title, id string) string {
	name := strings.TrimSpace(titleStripper.Replace(title))
	if name == "" || name == "." || name == ".." {
		return SanitizeName(id)
	}
	return name
}
