package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/bstardust/photo-frame-formatter/internal/geocode"
	"github.com/bstardust/photo-frame-formatter/pkg/common"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PHOTOFRAME_API_KEY
const EnvPrefix = "PHOTOFRAME"

// Config represents the application configuration
type Config struct {
	LogLevel    string `mapstructure:"log-level"`
	Source      string `mapstructure:"source"`
	Destination string `mapstructure:"destination"`
	MaxWidth    int    `mapstructure:"max-width"`
	MaxHeight   int    `mapstructure:"max-height"`
	APIKey      string `mapstructure:"api-key"`
	NoText      bool   `mapstructure:"no-text"`
	// AlwaysCaption draws the date even when no API key is configured
	AlwaysCaption bool          `mapstructure:"always-caption"`
	Concurrency   int           `mapstructure:"concurrency"`
	ItemTimeout   time.Duration `mapstructure:"item-timeout"`
	CacheDir      string        `mapstructure:"cache-dir"`
	Quality       int           `mapstructure:"quality"`
	Report        string        `mapstructure:"report"`
	Geocode       GeocodeConfig `mapstructure:"geocode"`
	Overlay       OverlayConfig `mapstructure:"overlay"`
	Feed          FeedConfig    `mapstructure:"feed"`
	S3            S3Config      `mapstructure:"s3"`
}

// GeocodeConfig configures reverse geocoding
type GeocodeConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Policy   string `mapstructure:"policy"`
}

// OverlayConfig configures caption rendering
type OverlayConfig struct {
	Font     string  `mapstructure:"font"`
	FontSize float64 `mapstructure:"font-size"`
}

// FeedConfig configures the remote photo feed and its OAuth client
type FeedConfig struct {
	URL          string   `mapstructure:"url"`
	PageSize     int      `mapstructure:"page-size"`
	TokenFile    string   `mapstructure:"token-file"`
	ClientID     string   `mapstructure:"client-id"`
	ClientSecret string   `mapstructure:"client-secret"`
	AuthURL      string   `mapstructure:"auth-url"`
	TokenURL     string   `mapstructure:"token-url"`
	Scopes       []string `mapstructure:"scopes"`
}

// S3Config represents S3 connection configuration for s3:// destinations
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access-key"`
	SecretKey string `mapstructure:"secret-key"`
	UseSSL    bool   `mapstructure:"use-ssl"`
}

// New creates a new configuration with default values
func New() *Config {
	return &Config{
		LogLevel:    "info",
		Source:      ".",
		MaxWidth:    800,
		MaxHeight:   600,
		Concurrency: 4,
		ItemTimeout: 2 * time.Minute,
		CacheDir:    ".photoframe_cache",
		Quality:     90,
		Geocode: GeocodeConfig{
			Endpoint: geocode.DefaultEndpoint,
			Policy:   string(geocode.PolicyFirstTwo),
		},
		Overlay: OverlayConfig{
			FontSize: 24,
		},
		Feed: FeedConfig{
			URL:       "https://picasaweb.google.com/data/feed/api/user/default",
			PageSize:  50,
			TokenFile: ".photoframe_token.json",
			AuthURL:   "https://accounts.google.com/o/oauth2/auth",
			TokenURL:  "https://oauth2.googleapis.com/token",
			Scopes:    []string{"https://picasaweb.google.com/data/"},
		},
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
		},
	}
}

// SetDefaults registers every default with v so config files and the
// environment can override individual keys.
func SetDefaults(v *viper.Viper) {
	d := New()
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("source", d.Source)
	v.SetDefault("destination", d.Destination)
	v.SetDefault("max-width", d.MaxWidth)
	v.SetDefault("max-height", d.MaxHeight)
	v.SetDefault("api-key", d.APIKey)
	v.SetDefault("no-text", d.NoText)
	v.SetDefault("always-caption", d.AlwaysCaption)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("item-timeout", d.ItemTimeout)
	v.SetDefault("cache-dir", d.CacheDir)
	v.SetDefault("quality", d.Quality)
	v.SetDefault("report", d.Report)
	v.SetDefault("geocode.endpoint", d.Geocode.Endpoint)
	v.SetDefault("geocode.policy", d.Geocode.Policy)
	v.SetDefault("overlay.font", d.Overlay.Font)
	v.SetDefault("overlay.font-size", d.Overlay.FontSize)
	v.SetDefault("feed.url", d.Feed.URL)
	v.SetDefault("feed.page-size", d.Feed.PageSize)
	v.SetDefault("feed.token-file", d.Feed.TokenFile)
	v.SetDefault("feed.client-id", d.Feed.ClientID)
	v.SetDefault("feed.client-secret", d.Feed.ClientSecret)
	v.SetDefault("feed.auth-url", d.Feed.AuthURL)
	v.SetDefault("feed.token-url", d.Feed.TokenURL)
	v.SetDefault("feed.scopes", d.Feed.Scopes)
	v.SetDefault("s3.endpoint", d.S3.Endpoint)
	v.SetDefault("s3.region", d.S3.Region)
	v.SetDefault("s3.access-key", d.S3.AccessKey)
	v.SetDefault("s3.secret-key", d.S3.SecretKey)
	v.SetDefault("s3.use-ssl", d.S3.UseSSL)
}

// NewViper returns a viper instance with defaults and PHOTOFRAME_*
// environment lookups ("feed.client-id" reads PHOTOFRAME_FEED_CLIENT_ID).
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads an optional config file and decodes v into a Config
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, common.NewConfigError(fmt.Sprintf("failed to read %s: %v", file, err))
		}
	}

	cfg := New()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, common.NewConfigError(fmt.Sprintf("failed to decode configuration: %v", err))
	}
	return cfg, nil
}

// CaptionsEnabled reports whether frames get a caption. Captions need an API key
// unless AlwaysCaption is set, and NoText always wins.
func (c *Config) CaptionsEnabled() bool {
	return !c.NoText && (c.APIKey != "" || c.AlwaysCaption)
}

// Validate checks the options required for a formatting run
func (c *Config) Validate() error {
	if c.Source == "" {
		return common.NewConfigError("source is required")
	}
	if c.Destination == "" {
		return common.NewConfigError("destination is required")
	}
	if c.MaxWidth <= 0 || c.MaxHeight <= 0 {
		return common.NewConfigError(fmt.Sprintf("max-width and max-height must be positive, got %dx%d", c.MaxWidth, c.MaxHeight))
	}
	if c.Concurrency <= 0 {
		return common.NewConfigError("concurrency must be positive")
	}
	if c.Quality < 1 || c.Quality > 100 {
		return common.NewConfigError("quality must be between 1 and 100")
	}
	if _, err := geocode.ParsePolicy(c.Geocode.Policy); err != nil {
		return common.NewConfigError(err.Error())
	}
	return nil
}
