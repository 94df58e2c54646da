// Package auth holds the OAuth2 credential used by the remote photo feed.
package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bstardust/photo-frame-formatter/internal/logger"
	"golang.org/x/oauth2"
)

// OutOfBandRedirect asks the provider to display the code for pasting
const OutOfBandRedirect = "urn:ietf:wg:oauth:2.0:oob"

// Config describes the OAuth client
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// OAuth2 converts the configuration
func (c Config) OAuth2() *oauth2.Config {
	redirect := c.RedirectURL
	if redirect == "" {
		redirect = OutOfBandRedirect
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthURL,
			TokenURL: c.TokenURL,
		},
		RedirectURL: redirect,
		Scopes:      c.Scopes,
	}
}

// TokenStore persists a token as JSON on disk
type TokenStore struct {
	Path string
}

// Load reads the stored token
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode token %s: %w", s.Path, err)
	}
	return &tok, nil
}

// Save writes the token readable only by the current user
func (s *TokenStore) Save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(s.Path, data, 0o600)
}

// usable reports whether tok can produce access tokens without the user
func usable(tok *oauth2.Token) bool {
	return tok != nil && (tok.Valid() || tok.RefreshToken != "")
}

// Consent runs the interactive flow: print the consent URL to out, read the
// authorization code from in and exchange it.
func Consent(ctx context.Context, conf *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	authURL := conf.AuthCodeURL("photo-frame", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open the following URL in a browser and authorize access:\n\n%s\n\nEnter the authorization code: ", authURL)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read authorization code: %w", err)
		}
		return nil, errors.New("no authorization code entered")
	}
	code := strings.TrimSpace(scanner.Text())
	if code == "" {
		return nil, errors.New("no authorization code entered")
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}

// Client returns an authenticated client. A missing or unusable stored
// token triggers the consent flow. Refreshed tokens are written back.
// Requests go through base's transport, which may be nil.
func Client(ctx context.Context, conf *oauth2.Config, store *TokenStore, base *http.Client, in io.Reader, out io.Writer) (*http.Client, error) {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}

	tok, err := store.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Discarding stored credential: %v", err)
	}
	if !usable(tok) {
		tok, err = Consent(ctx, conf, in, out)
		if err != nil {
			return nil, err
		}
		if err := store.Save(tok); err != nil {
			return nil, fmt.Errorf("failed to save credential: %w", err)
		}
	}

	src := &persistingSource{
		src:   conf.TokenSource(ctx, tok),
		store: store,
		last:  tok.AccessToken,
	}
	client := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src))
	if base != nil {
		client.Timeout = base.Timeout
	}
	return client, nil
}

type persistingSource struct {
	mu    sync.Mutex
	src   oauth2.TokenSource
	store *TokenStore
	last  string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.store.Save(tok); err != nil {
			logger.Warn("Could not persist refreshed credential: %v", err)
		}
	}
	return tok, nil
}
