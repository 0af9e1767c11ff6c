// Package oauth implements the CLI side of authentication: an OAuth2
// authorization-code flow with PKCE against the configured provider, with a
// loopback redirect, plus the on-disk token cache.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
)

// clientID is the public (PKCE) application ID registered with the
// provider for this CLI.
const clientID = "entities-service-cli"

// redirectPort is the loopback port registered as the redirect URL with
// the provider.
const redirectPort = 5666

// Flow runs the interactive login.
type Flow struct {
	// ProviderBaseURL is the OpenID issuer, e.g. https://gitlab.com.
	ProviderBaseURL string

	// OpenBrowser opens the authorization URL; defaults to the system
	// browser.
	OpenBrowser func(url string) error

	// Timeout bounds the wait for the browser callback.
	Timeout time.Duration

	Log hclog.Logger
}

type callbackResult struct {
	code string
	err  error
}

// Login discovers the provider, sends the operator through the browser
// consent flow, and exchanges the authorization code for a token.
func (f *Flow) Login(ctx context.Context) (*oauth2.Token, error) {
	log := f.Log
	if log == nil {
		log = hclog.NewNullLogger()
	}
	openBrowser := f.OpenBrowser
	if openBrowser == nil {
		openBrowser = browser.OpenURL
	}
	timeout := f.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	provider, err := oidc.NewProvider(ctx, f.ProviderBaseURL)
	if err != nil {
		return nil, fmt.Errorf("discovering OpenID provider %s: %w", f.ProviderBaseURL, err)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", redirectPort))
	if err != nil {
		return nil, fmt.Errorf("starting redirect listener: %w", err)
	}
	defer listener.Close()

	conf := &oauth2.Config{
		ClientID:    clientID,
		Endpoint:    provider.Endpoint(),
		RedirectURL: fmt.Sprintf("http://localhost:%d/", redirectPort),
		Scopes:      []string{oidc.ScopeOpenID, "read_user"},
	}

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	authURL := conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	results := make(chan callbackResult, 1)
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()
			if query.Get("state") != state {
				http.Error(w, "state mismatch", http.StatusBadRequest)
				results <- callbackResult{err: errors.New("authorization state mismatch")}
				return
			}
			if errCode := query.Get("error"); errCode != "" {
				http.Error(w, "authorization denied", http.StatusForbidden)
				results <- callbackResult{
					err: fmt.Errorf("authorization denied by provider: %s", errCode),
				}
				return
			}
			fmt.Fprintln(w, "Login complete. You can close this window.")
			results <- callbackResult{code: query.Get("code")}
		}),
	}
	go server.Serve(listener)
	defer server.Close()

	log.Debug("opening provider authorization URL", "url", authURL)
	if err := openBrowser(authURL); err != nil {
		log.Warn("could not open browser; visit the URL manually", "url", authURL)
	}

	var result callbackResult
	select {
	case result = <-results:
	case <-time.After(timeout):
		return nil, errors.New("timed out waiting for the provider callback")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if result.err != nil {
		return nil, result.err
	}

	token, err := conf.Exchange(ctx, result.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token, nil
}
