// Package sources holds one adapter per external catalog. Each adapter maps
// a catalog's response shape into a biblio.Fragment and absorbs its own
// failures: a nil fragment means the catalog had nothing usable.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/lehigh-university-libraries/bibresolve/internal/metrics"
	"github.com/lehigh-university-libraries/bibresolve/internal/ratelimit"
	"golang.org/x/sync/singleflight"
)

// maxBodySize caps how much of a response body an adapter will read.
const maxBodySize = 8 << 20

// MetadataSource returns basic metadata for an ISBN.
type MetadataSource interface {
	Name() string
	LookupISBN(ctx context.Context, isbn string) *biblio.Fragment
}

// ClassificationSource contributes classification candidates for a query.
// Applies decides whether the source can answer q at all.
type ClassificationSource interface {
	Name() string
	Applies(q biblio.Query) bool
	Classify(ctx context.Context, q biblio.Query) *biblio.Fragment
}

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns the client shared by every adapter.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
	}
}

// Client carries what an adapter needs to reach one catalog.
type Client struct {
	BaseURL   string
	HTTP      HTTPDoer
	Timeout   time.Duration
	UserAgent string
	Limiter   *ratelimit.Limiter
	Metrics   *metrics.Metrics

	// flights collapses identical GETs that are in flight at once, such as
	// the Books API call shared by two Open Library adapters.
	flights singleflight.Group
}

// NewClient returns a Client for baseURL using the shared HTTP client.
func NewClient(baseURL string, doer HTTPDoer, timeout time.Duration) *Client {
	if doer == nil {
		doer = NewHTTPClient()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    doer,
		Timeout: timeout,
	}
}

// lookup runs fn under the per-call timeout and converts every failure,
// including a panic, into a nil fragment.
func (c *Client) lookup(ctx context.Context, source string, fn func(ctx context.Context) (*biblio.Fragment, error)) (frag *biblio.Fragment) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Catalog adapter panicked", "source", source, "panic", r)
			c.Metrics.ObserveSource(source, metrics.OutcomeError, time.Since(start))
			frag = nil
		}
	}()

	var err error
	frag, err = fn(ctx)
	switch {
	case errors.Is(err, ratelimit.ErrThrottled):
		slog.Warn("Catalog lookup throttled", "source", source, "err", err, "duration", time.Since(start))
		c.Metrics.ObserveSource(source, metrics.OutcomeThrottled, time.Since(start))
		return nil
	case err != nil:
		slog.Warn("Catalog lookup failed", "source", source, "err", err, "duration", time.Since(start))
		c.Metrics.ObserveSource(source, metrics.OutcomeError, time.Since(start))
		return nil
	case frag == nil:
		slog.Debug("Catalog returned nothing usable", "source", source, "duration", time.Since(start))
		c.Metrics.ObserveSource(source, metrics.OutcomeMiss, time.Since(start))
		return nil
	}

	frag.Source = source
	slog.Debug("Catalog lookup succeeded", "source", source, "duration", time.Since(start))
	c.Metrics.ObserveSource(source, metrics.OutcomeHit, time.Since(start))
	return frag
}

func (c *Client) endpoint(path string, params url.Values) string {
	u := c.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// get issues a GET request and returns the body of a 2xx response.
// Concurrent identical GETs share one request and its body, which callers
// must not modify.
func (c *Client) get(ctx context.Context, path string, params url.Values, accept string) ([]byte, error) {
	target := c.endpoint(path, params)
	v, err, shared := c.flights.Do(accept+" "+target, func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		return c.do(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("Shared in-flight catalog request", "url", target)
	}
	return v.([]byte), nil
}

// postForm issues a form-encoded POST and returns the body of a 2xx response.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return c.do(ctx, req)
}

func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s returned status %d: %s", req.URL.Host, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	body, err := c.get(ctx, path, params, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// extractYear returns the first four digit run in s, or 0.
func extractYear(s string) int {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	year, _ := strconv.Atoi(m)
	return year
}

func first(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstN(values []string, n int) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
		if len(out) == n {
			break
		}
	}
	return out
}
