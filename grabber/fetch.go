package grabber

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const (
	defaultFetchTimeout = time.Second * 30
	defaultHostRate     = rate.Limit(1) // 1 request / s per host
	defaultHostBurst    = 2
	defaultUserAgent    = "fxgrab/1.0"
)

type FetcherOption func(f *Fetcher)

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.client.Timeout = timeout
	}
}

// WithHostRate sets the per-host request rate limit
func WithHostRate(limit rate.Limit, burst int) FetcherOption {
	return func(f *Fetcher) {
		f.hostRate = limit
		f.hostBurst = burst
	}
}

// WithInsecureTLS disables certificate verification.
// Some bank sites serve incomplete certificate chains
func WithInsecureTLS() FetcherOption {
	return func(f *Fetcher) {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // Fine to ignore
		}

		f.client.Transport = tr
	}
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = c
	}
}

// Fetcher is the shared HTTP client strategies fetch bank pages with.
// Requests to the same host are rate limited
type Fetcher struct {
	client   *http.Client
	limiters map[string]*rate.Limiter

	userAgent string
	hostRate  rate.Limit
	hostBurst int

	mu sync.Mutex
}

// NewFetcher creates a new page fetcher
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Timeout: defaultFetchTimeout,
		},
		limiters:  make(map[string]*rate.Limiter),
		userAgent: defaultUserAgent,
		hostRate:  defaultHostRate,
		hostBurst: defaultHostBurst,
	}

	// Apply the options
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Document fetches the page at the given URL, and parses it
func (f *Fetcher) Document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("unable to create new GET request: %w", err)
	}

	resp, err := f.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to construct query doc: %w", err)
	}

	return doc, nil
}

// PostJSON posts the given body as JSON, and decodes the JSON response into out
func (f *Fetcher) PostJSON(ctx context.Context, endpoint string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("unable to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("unable to create new POST request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := f.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unable to decode response: %w", err)
	}

	return nil
}

// do executes the request once the host's limiter allows it.
// Any non-2xx response is an error
func (f *Fetcher) do(req *http.Request) (*http.Response, error) {
	if err := f.limiter(req.URL).Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute %s request: %w", req.Method, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // Fine to ignore
		resp.Body.Close()

		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	return resp, nil
}

// limiter returns the rate limiter for the URL's host
func (f *Fetcher) limiter(u *url.URL) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.limiters[u.Host]
	if !ok {
		l = rate.NewLimiter(f.hostRate, f.hostBurst)
		f.limiters[u.Host] = l
	}

	return l
}
