package edinet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"github.com/horiken1977/roic-sub001/pkg/fiscal"
)

// DefaultBaseURL is the EDINET API v2 root.
const DefaultBaseURL = "https://api.edinet-fsa.go.jp/api/v2"

// Client handles communications with the EDINET API with rate limiting.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *log.Logger
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL      string
	APIKey       string
	RateLimit    float64 // requests per second
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Transport    http.RoundTripper
	Logger       *log.Logger
}

// rateLimitedTransport wraps an HTTP transport with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

// RoundTrip implements the http.RoundTripper interface with rate limiting
func (r *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := r.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return r.transport.RoundTrip(req)
}

// NewClient creates a new EDINET API client with rate limiting
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.Logger == nil {
		opts.Logger = &log.DefaultLogger
	}

	burst := int(opts.RateLimit)
	if burst < 1 {
		burst = 1
	}
	transport := &rateLimitedTransport{
		transport: opts.Transport,
		limiter:   rate.NewLimiter(rate.Limit(opts.RateLimit), burst),
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		maxRetries: opts.MaxRetries,
		backoff:    opts.RetryBackoff,
		logger:     opts.Logger,
	}
}

// FetchFilingList fetches the list of documents submitted on date.
func (c *Client) FetchFilingList(ctx context.Context, date time.Time) ([]FilingSummary, error) {
	q := url.Values{}
	q.Set("date", fiscal.Format(date))
	q.Set("type", "2")
	endpoint := c.baseURL + "/documents.json?" + q.Encode()

	resp, body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch filing list for %s: %w", fiscal.Format(date), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("EDINET returned status %d for filing list %s", resp.StatusCode, fiscal.Format(date))
	}

	var list DocumentList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse filing list for %s: %w", fiscal.Format(date), err)
	}
	if list.Metadata.Status != "" && list.Metadata.Status != "200" {
		return nil, fmt.Errorf("EDINET filing list %s failed: %s %s", fiscal.Format(date), list.Metadata.Status, list.Metadata.Message)
	}

	c.logger.Debug().Str("date", fiscal.Format(date)).Int("count", len(list.Results)).Msg("fetched filing list")
	return list.Results, nil
}

// FetchDocumentPackage downloads the ZIP package (type=1) for docID.
func (c *Client) FetchDocumentPackage(ctx context.Context, docID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/documents/%s?type=1", c.baseURL, url.PathEscape(docID))

	resp, body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, &DocumentUnavailableError{DocumentID: docID, Reason: "download failed", Err: err}
	}
	if resp.StatusCode != http.StatusOK || strings.Contains(resp.Header.Get("Content-Type"), "json") {
		var eb errorBody
		reason := fmt.Sprintf("EDINET returned status %d", resp.StatusCode)
		if json.Unmarshal(body, &eb) == nil {
			reason += " (" + strings.TrimSpace(eb.String()) + ")"
		}
		return nil, &DocumentUnavailableError{DocumentID: docID, Reason: reason}
	}

	c.logger.Debug().Str("doc_id", docID).Int("bytes", len(body)).Msg("fetched document package")
	return body, nil
}

// get performs a GET, retrying transport errors, 429 and 5xx responses with
// linear backoff. The returned body is fully read.
func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, []byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * c.backoff
			c.logger.Warn().Str("url", endpoint).Int("attempt", attempt).Dur("wait", wait).Err(lastErr).Msg("retrying EDINET request")
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create request: %w", err)
		}
		if c.apiKey != "" {
			req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, nil, err
			}
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("EDINET returned status %d: %s", resp.StatusCode, snippet(body))
			continue
		}
		return resp, body, nil
	}
	return nil, nil, lastErr
}

func snippet(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) > 120 {
		body = body[:120]
	}
	return string(body)
}
