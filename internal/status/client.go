package status

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jobwatch/internal/config"
)

const maxBodyBytes = 1 << 20

// HTTPDoer describes the HTTP client used by the status fetcher.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client performs single uncached round trips against the backend status
// endpoint. Every call is a fresh request; the polling engine owns retries.
type Client struct {
	baseURL        string
	token          string
	requestTimeout time.Duration
	http           HTTPDoer
}

// NewConfiguredClient builds a client from application config. The underlying
// transport ceiling uses the extended timeout so long-running backend
// operations sharing this proxy boundary are not cut off early; each status
// call still carries its own shorter deadline.
func NewConfiguredClient(cfg *config.Config) *Client {
	extended := time.Duration(cfg.Backend.ExtendedTimeout) * time.Second
	return NewClient(
		cfg.Backend.BaseURL,
		cfg.Backend.APIToken,
		time.Duration(cfg.Backend.RequestTimeout)*time.Second,
		&http.Client{Timeout: extended},
	)
}

// NewClient constructs a status client. A nil doer falls back to a default
// HTTP client.
func NewClient(baseURL, token string, requestTimeout time.Duration, doer HTTPDoer) *Client {
	if doer == nil {
		doer = &http.Client{}
	}
	return &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:          strings.TrimSpace(token),
		requestTimeout: requestTimeout,
		http:           doer,
	}
}

// Fetch retrieves the raw status payload for jobID. It fails with ErrNetwork
// on transport problems and *HTTPError on non-2xx responses. Requests disable
// caching end-to-end so stale snapshots are never observed.
func (c *Client) Fetch(ctx context.Context, jobID string) ([]byte, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("%w: job id must not be empty", ErrNetwork)
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: backend base url not configured", ErrNetwork)
	}

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	endpoint := c.baseURL + "/status/" + url.PathEscape(jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build status request: %w", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch job status: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read status body: %w", ErrNetwork, err)
	}
	return body, nil
}
