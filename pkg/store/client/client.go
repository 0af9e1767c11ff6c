// Package client implements the Store interface against a remote entities
// service over HTTP. This is the store the CLI uses.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/onto-forge/entities-service/pkg/entity"
	"github.com/onto-forge/entities-service/pkg/store"
)

// Options configures the HTTP store.
type Options struct {
	// BaseURL is the service base URL, e.g. http://onto-ns.com/meta.
	BaseURL string

	// AccessToken is the bearer credential sent on write requests.
	AccessToken string

	// CAFile optionally points at a PEM bundle to trust instead of the
	// system pool.
	CAFile string

	Timeout time.Duration
	Logger  hclog.Logger
}

// Store talks to a remote entities service. Lookups are retried with
// bounded exponential backoff because they are idempotent GETs; create and
// update are never retried.
type Store struct {
	baseURL string
	token   string
	client  *http.Client
	log     hclog.Logger
}

var _ store.Store = (*Store)(nil)

func New(opts Options) (*Store, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.CAFile != "" {
		pem, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("reading CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", opts.CAFile)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}

	return &Store{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		token:   opts.AccessToken,
		client:  &http.Client{Timeout: opts.Timeout, Transport: transport},
		log:     log,
	}, nil
}

// Lookup fetches the entity at its own URI. Entity URIs resolve directly at
// the service, including specific-namespace URIs.
func (s *Store) Lookup(ctx context.Context, id entity.Identifier) (*entity.Entity, error) {
	var e *entity.Entity

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, id.URI(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			s.log.Debug("lookup attempt failed", "uri", id.URI(), "error", err)
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(store.ErrNotFound)
		case resp.StatusCode >= 500:
			return s.serverError(resp)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(s.serverError(resp))
		}

		var doc map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding entity response: %w", err))
		}
		e, err = entity.Validate(doc)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("remote entity is invalid: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return e, nil
}

// Create posts the entity to the service's create endpoint.
func (s *Store) Create(ctx context.Context, e *entity.Entity) error {
	return s.post(ctx, "/_admin/create", e)
}

// Update posts the entity to the service's update endpoint, replacing the
// remote entity stored under the same identifier.
func (s *Store) Update(ctx context.Context, e *entity.Entity) error {
	return s.post(ctx, "/_admin/update", e)
}

func (s *Store) post(ctx context.Context, path string, e *entity.Entity) error {
	body, err := json.Marshal([]map[string]any{e.Document()})
	if err != nil {
		return fmt.Errorf("encoding entity: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return store.ErrUnauthorized
	case http.StatusConflict:
		return store.ErrConflict
	default:
		return s.serverError(resp)
	}
}

func (s *Store) serverError(resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &store.ServerError{
		StatusCode: resp.StatusCode,
		Detail:     strings.TrimSpace(string(detail)),
	}
}
