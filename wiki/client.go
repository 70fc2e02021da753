package wiki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the English Wikipedia.
	DefaultBaseURL = "https://en.wikipedia.org"
	// DefaultUserAgent identifies wikifeed to the API operators.
	DefaultUserAgent = "wikifeed/1.0 (article feed reader; https://github.com/pevans/wikifeed)"
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 10 * time.Second
)

// Doer performs HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Wikipedia REST and Action APIs.
type Client struct {
	baseURL   string
	userAgent string
	doer      Doer
	limiter   *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport.
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		if doer != nil {
			c.doer = doer
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRateLimit paces requests to rps per second with the given burst. A
// non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
		doer: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// RandomSummary fetches the summary of a random page.
func (c *Client) RandomSummary(ctx context.Context) (*Summary, error) {
	body, err := c.get(ctx, "/api/rest_v1/page/random/summary", nil)
	if err != nil {
		return nil, err
	}
	return decodeSummary(body)
}

// Summary fetches the summary of the page with the given title.
func (c *Client) Summary(ctx context.Context, title string) (*Summary, error) {
	path, err := titlePath(title)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, "/api/rest_v1/page/summary/"+path, nil)
	if err != nil {
		return nil, err
	}
	return decodeSummary(body)
}

// PageHTML fetches the rendered body HTML of the page with the given title.
func (c *Client) PageHTML(ctx context.Context, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: empty title", ErrInvalidTarget)
	}

	query := url.Values{}
	query.Set("action", "parse")
	query.Set("page", title)
	query.Set("prop", "text")
	query.Set("redirects", "1")
	query.Set("format", "json")

	body, err := c.get(ctx, "/w/api.php", query)
	if err != nil {
		return "", err
	}

	var resp parseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &DecodeError{Message: "parse response", Err: err}
	}
	if resp.Error != nil {
		return "", &DecodeError{Message: fmt.Sprintf("api error %s: %s", resp.Error.Code, resp.Error.Info)}
	}
	if resp.Parse == nil || resp.Parse.Text.HTML == "" {
		return "", &DecodeError{Message: "parse response has no page text"}
	}

	return resp.Parse.Text.HTML, nil
}

// Search runs a full-text search restricted to the article namespace and
// returns up to limit hits starting at offset.
func (c *Client) Search(ctx context.Context, term string, limit, offset int) ([]SearchHit, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("%w: empty search term", ErrInvalidTarget)
	}

	query := url.Values{}
	query.Set("action", "query")
	query.Set("list", "search")
	query.Set("srsearch", term)
	query.Set("srnamespace", "0")
	query.Set("srlimit", strconv.Itoa(limit))
	query.Set("sroffset", strconv.Itoa(offset))
	query.Set("srprop", "")
	query.Set("format", "json")

	body, err := c.get(ctx, "/w/api.php", query)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DecodeError{Message: "search response", Err: err}
	}
	if resp.Error != nil {
		return nil, &DecodeError{Message: fmt.Sprintf("api error %s: %s", resp.Error.Code, resp.Error.Info)}
	}
	if resp.Query == nil {
		return nil, &DecodeError{Message: "search response has no query"}
	}

	return resp.Query.Search, nil
}

// get performs a GET against the API and returns the non-empty body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTarget, c.baseURL+path)
	}
	if query != nil {
		target.RawQuery = query.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}

	// Wikimedia asks every client to identify itself
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	return body, nil
}

// titlePath encodes a page title as a single URL path segment.
func titlePath(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: empty title", ErrInvalidTarget)
	}
	return url.PathEscape(strings.ReplaceAll(title, " ", "_")), nil
}

func decodeSummary(body []byte) (*Summary, error) {
	var s Summary
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, &DecodeError{Message: "summary response", Err: err}
	}
	if s.Title == "" {
		return nil, &DecodeError{Message: "summary response has no title"}
	}
	return &s, nil
}
