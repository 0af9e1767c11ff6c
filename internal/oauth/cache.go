package oauth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/afero"
	"golang.org/x/oauth2"
)

// TokenCache persists the OAuth2 token between CLI invocations as a JSON
// file with user-only permissions.
type TokenCache struct {
	FS   afero.Fs
	Path string
}

// DefaultCachePath returns the per-user token cache location.
func DefaultCachePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving user cache directory: %w", err)
	}
	return filepath.Join(dir, "entities-service", "token.json"), nil
}

// Load reads the cached token. A missing cache returns (nil, nil).
func (c *TokenCache) Load() (*oauth2.Token, error) {
	data, err := afero.ReadFile(c.FS, c.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token cache: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parsing token cache: %w", err)
	}
	return &token, nil
}

// Save writes the token to the cache.
func (c *TokenCache) Save(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := c.FS.MkdirAll(filepath.Dir(c.Path), 0o700); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := afero.WriteFile(c.FS, c.Path, data, 0o600); err != nil {
		return fmt.Errorf("writing token cache: %w", err)
	}
	return nil
}

// Clear removes the cached token.
func (c *TokenCache) Clear() error {
	err := c.FS.Remove(c.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing token cache: %w", err)
	}
	return nil
}

// Valid reports whether the token can still be used, so an upload run can
// fail before any network call is attempted. Tokens without an explicit
// expiry are inspected offline as JWTs; unparseable tokens are assumed
// valid and left for the service to reject.
func Valid(token *oauth2.Token, now time.Time) bool {
	if token == nil || token.AccessToken == "" {
		return false
	}
	if !token.Expiry.IsZero() {
		return token.Expiry.After(now)
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token.AccessToken, claims); err != nil {
		return true
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return true
	}
	return expiry.After(now)
}
