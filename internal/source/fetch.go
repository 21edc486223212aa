// Package source fetches raw ledger documents over HTTP.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultUserAgent is sent when the fetcher has no user agent configured.
const DefaultUserAgent = "ledger-corpus/0.1"

// Request describes one fetch. ETag and LastModified, when set, make the
// request conditional.
type Request struct {
	URL          string
	ETag         string
	LastModified string
}

// Response is the outcome of a fetch that reached the server. Non-success
// statuses are returned as responses, not errors.
type Response struct {
	Status       int
	Body         []byte
	ETag         string
	LastModified string
}

// Succeeded reports whether the response is a 2xx with a non-empty body.
func (r *Response) Succeeded() bool {
	return r != nil && r.Status >= 200 && r.Status < 300 && len(r.Body) > 0
}

// NotModified reports whether the server answered a conditional request with
// 304.
func (r *Response) NotModified() bool {
	return r != nil && r.Status == http.StatusNotModified
}

// Fetcher retrieves a URL.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// HTTPClient abstracts HTTP operations for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHTTPClient returns an HTTPClient using http.DefaultClient.
type DefaultHTTPClient struct{}

func (DefaultHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return http.DefaultClient.Do(req)
}

// HTTPFetcher implements Fetcher with plain GET requests.
type HTTPFetcher struct {
	Client    HTTPClient
	UserAgent string
	Token     string        // optional bearer token
	MaxSize   int64         // max body size in bytes (0 = no limit)
	Timeout   time.Duration // per-request timeout (0 = no extra timeout beyond context)
}

// FetchError represents a fetch that did not produce a response.
type FetchError struct {
	URL  string
	Err  error
	Hint string
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetching %s: %s", e.URL, e.Err)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (f *HTTPFetcher) Fetch(ctx context.Context, r Request) (*Response, error) {
	if r.URL == "" {
		return nil, &FetchError{URL: r.URL, Err: fmt.Errorf("url is required")}
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	client := f.Client
	if client == nil {
		client = DefaultHTTPClient{}
	}

	target := NormalizeURL(r.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: r.URL, Err: fmt.Errorf("creating request: %w", err)}
	}
	ua := f.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}
	if r.ETag != "" {
		req.Header.Set("If-None-Match", r.ETag)
	}
	if r.LastModified != "" {
		req.Header.Set("If-Modified-Since", r.LastModified)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: r.URL, Err: err, Hint: "check network connectivity and URL"}
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if f.MaxSize > 0 {
		reader = io.LimitReader(resp.Body, f.MaxSize+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &FetchError{URL: r.URL, Err: fmt.Errorf("reading response: %w", err)}
	}
	if f.MaxSize > 0 && int64(len(body)) > f.MaxSize {
		return nil, &FetchError{
			URL:  r.URL,
			Err:  fmt.Errorf("body exceeds max size %d bytes", f.MaxSize),
			Hint: "increase fetch.max_file_size",
		}
	}

	return &Response{
		Status:       resp.StatusCode,
		Body:         body,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}

// NormalizeURL percent-encodes path characters that cannot appear in a
// request line (spaces, non-ASCII). Existing escapes are kept. URLs without a
// scheme or host are returned as is.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	return u.String()
}

// SHA256 returns the hex-encoded sha256 of data.
func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
