package s3client

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Config represents the configuration for an S3 client
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Prefix    string
}

// Validate checks the fields required to connect
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("S3 endpoint is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("S3 bucket name is required")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("S3 access key and secret key are required")
	}
	return nil
}

// Location renders the bucket and prefix as an s3:// URL
func (c Config) Location() string {
	if p := strings.Trim(c.Prefix, "/"); p != "" {
		return "s3://" + c.Bucket + "/" + p
	}
	return "s3://" + c.Bucket
}

// NewMinIOFunc is the constructor used by New; tests replace it
var NewMinIOFunc = NewMinIO

// New creates a new S3 client
func New(ctx context.Context, cfg Config) (S3Interface, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewMinIOFunc(ctx, cfg)
}

// objectKey returns the full object key with prefix
func objectKey(prefix, key string) string {
	if prefix == "" {
		return key
	}

	// Ensure prefix doesn't have trailing slash
	prefix = strings.TrimSuffix(prefix, "/")

	// Ensure key doesn't have leading slash
	key = strings.TrimPrefix(key, "/")

	return path.Join(prefix, key)
}
