package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bstardust/photo-frame-formatter/internal/auth"
	"github.com/bstardust/photo-frame-formatter/internal/config"
	"github.com/bstardust/photo-frame-formatter/internal/geocode"
	"github.com/bstardust/photo-frame-formatter/internal/httpcache"
	"github.com/bstardust/photo-frame-formatter/internal/logger"
	"github.com/bstardust/photo-frame-formatter/internal/output"
	"github.com/bstardust/photo-frame-formatter/internal/overlay"
	"github.com/bstardust/photo-frame-formatter/internal/pipeline"
	"github.com/bstardust/photo-frame-formatter/internal/progress"
	"github.com/bstardust/photo-frame-formatter/internal/source"
	"github.com/bstardust/photo-frame-formatter/internal/worker"
	"github.com/bstardust/photo-frame-formatter/pkg/s3client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// httpTimeout bounds a single geocoding or feed request
const httpTimeout = 30 * time.Second

func newFormatCommand(v *viper.Viper, load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format [flags]",
		Short: "Rotate, resize and caption every photo of a source",
		Long: `Reads every photo from --source (a directory, a .zip archive or "remote" for the
photo feed) and writes frame-ready JPEGs to --destination (a directory or s3://bucket/prefix).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runFormat(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStderr())
		},
	}

	f := cmd.Flags()
	d := config.New()

	// Source and output
	f.String("source", d.Source, `Directory or .zip to scan recursively, or "remote" for the photo feed`)
	f.StringP("destination", "o", "", "Output directory or s3://bucket/prefix (required)")
	f.Int("max-width", d.MaxWidth, "Maximum frame width. Aspect ratio is preserved.")
	f.Int("max-height", d.MaxHeight, "Maximum frame height. Aspect ratio is preserved.")
	f.Int("quality", d.Quality, "JPEG quality (1-100)")

	// Captions
	f.String("api-key", "", "Geocoding API key. Enables place names and captions.")
	f.Bool("no-text", false, "Never draw a caption")
	f.Bool("always-caption", false, "Draw the date caption even without an API key")
	f.String("geocode-policy", d.Geocode.Policy, "Address truncation: first-two or drop-last")
	f.String("font", "", "TrueType/OpenType font file for captions (default Go Regular)")
	f.Float64("font-size", d.Overlay.FontSize, "Caption font size in points")

	// Processing
	f.Int("concurrency", d.Concurrency, "Number of photos processed in parallel")
	f.Duration("item-timeout", d.ItemTimeout, "Time limit for a single photo")
	f.String("cache-dir", d.CacheDir, "Directory for cached geocoding responses (empty disables)")
	f.String("report", "", "Write a JSON run report to this path")

	// Feed
	f.String("feed-url", d.Feed.URL, "Photo feed URL used when --source is remote")
	f.String("token-file", d.Feed.TokenFile, "Where the feed OAuth token is stored")

	// S3 destination
	f.String("s3-endpoint", "", "S3 endpoint for s3:// destinations")
	f.String("s3-region", d.S3.Region, "S3 region")
	f.String("s3-access-key", "", "S3 access key")
	f.String("s3-secret-key", "", "S3 secret key")
	f.Bool("s3-use-ssl", d.S3.UseSSL, "Use SSL for the S3 connection")

	bindFlags(v, f.Lookup, map[string]string{
		"source":            "source",
		"destination":       "destination",
		"max-width":         "max-width",
		"max-height":        "max-height",
		"quality":           "quality",
		"api-key":           "api-key",
		"no-text":           "no-text",
		"always-caption":    "always-caption",
		"geocode.policy":    "geocode-policy",
		"overlay.font":      "font",
		"overlay.font-size": "font-size",
		"concurrency":       "concurrency",
		"item-timeout":      "item-timeout",
		"cache-dir":         "cache-dir",
		"report":            "report",
		"feed.url":          "feed-url",
		"feed.token-file":   "token-file",
		"s3.endpoint":       "s3-endpoint",
		"s3.region":         "s3-region",
		"s3.access-key":     "s3-access-key",
		"s3.secret-key":     "s3-secret-key",
		"s3.use-ssl":        "s3-use-ssl",
	})

	return cmd
}

func runFormat(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var geocoder pipeline.Geocoder
	if cfg.APIKey != "" {
		policy, err := geocode.ParsePolicy(cfg.Geocode.Policy)
		if err != nil {
			return err
		}
		geocoder = geocode.New(cfg.APIKey,
			geocode.WithHTTPClient(httpcache.NewClient(cfg.CacheDir, httpTimeout)),
			geocode.WithEndpoint(cfg.Geocode.Endpoint),
			geocode.WithPolicy(policy),
		)
	} else if !cfg.NoText && !cfg.AlwaysCaption {
		logger.Info("No API key configured, frames will carry no caption")
	}

	composer, err := newComposer(cfg)
	if err != nil {
		return err
	}

	src, closeSource, err := openSource(ctx, cfg, in, out)
	if err != nil {
		return err
	}
	defer closeSource()

	sink, err := output.Open(ctx, cfg.Destination, s3client.Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer sink.Close()

	logger.Info("Formatting %s into %s", src.Name(), sink)

	p := pipeline.New(src, sink, geocoder, composer, worker.NewPool(cfg.Concurrency), progress.New(), pipeline.Options{
		MaxWidth:    cfg.MaxWidth,
		MaxHeight:   cfg.MaxHeight,
		Overlay:     cfg.CaptionsEnabled(),
		Quality:     cfg.Quality,
		ItemTimeout: cfg.ItemTimeout,
	})
	report, runErr := p.Run(ctx)

	if cfg.Report != "" {
		if err := progress.WriteReport(cfg.Report, report); err != nil {
			logger.Error("Failed to write report: %v", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	if report.Failed > 0 {
		logger.Warn("%d of %d photos could not be formatted", report.Failed, report.Total)
	}
	return nil
}

func newComposer(cfg *config.Config) (*overlay.Composer, error) {
	style := overlay.DefaultStyle()
	if cfg.Overlay.FontSize > 0 {
		style.FontSize = cfg.Overlay.FontSize
	}
	style, err := style.LoadFont(cfg.Overlay.Font)
	if err != nil {
		return nil, err
	}
	return overlay.NewComposer(style)
}

// openSource returns the adapter selected by cfg.Source and its cleanup
func openSource(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (source.Adapter, func(), error) {
	if cfg.Source != source.RemoteToken {
		local, err := source.NewLocal(cfg.Source)
		if err != nil {
			return nil, nil, err
		}
		return local, func() { _ = local.Close() }, nil
	}

	// Feed pages and photo bytes share the on-disk cache with geocoding.
	base := httpcache.NewClient(cfg.CacheDir, httpTimeout)
	client, err := auth.Client(ctx, feedAuth(cfg).OAuth2(), &auth.TokenStore{Path: cfg.Feed.TokenFile}, base, in, out)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to authorize feed access: %w", err)
	}
	return source.NewFeed(client, cfg.Feed.URL, source.WithPageSize(cfg.Feed.PageSize)), func() {}, nil
}

func feedAuth(cfg *config.Config) auth.Config {
	return auth.Config{
		ClientID:     cfg.Feed.ClientID,
		ClientSecret: cfg.Feed.ClientSecret,
		AuthURL:      cfg.Feed.AuthURL,
		TokenURL:     cfg.Feed.TokenURL,
		Scopes:       cfg.Feed.Scopes,
	}
}
