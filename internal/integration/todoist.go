package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// sleepContext is the default Sleeper.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientConfig configures a Todoist REST client.
type ClientConfig struct {
	BaseURL string
	Token   string
	// MaxAttempts bounds the total number of tries for a rate-limited
	// request. Values below 1 mean one attempt.
	MaxAttempts int
	// BackoffFactor scales the wait before retry n (counted from 0) to
	// BackoffFactor * 2^n seconds.
	BackoffFactor float64
	// HTTPClient supplies the base transport. The zero value uses
	// http.DefaultTransport.
	HTTPClient *http.Client
	// Sleep replaces the blocking wait between retries.
	Sleep Sleeper
}

// Client talks to the Todoist REST API with a static bearer token. Requests
// answered with 429 are retried with exponential backoff; every other failure
// is returned to the caller immediately.
type Client struct {
	baseURL       string
	http          *http.Client
	maxAttempts   int
	backoffFactor float64
	sleep         Sleeper
}

// NewClient creates a Client. The token is attached to every request as an
// "Authorization: Bearer" header by an oauth2 transport.
func NewClient(cfg ClientConfig) *Client {
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{}
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	httpClient := &http.Client{
		Transport:     &oauth2.Transport{Source: src, Base: base.Transport},
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Timeout:       base.Timeout,
	}

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		http:          httpClient,
		maxAttempts:   attempts,
		backoffFactor: cfg.BackoffFactor,
		sleep:         sleep,
	}
}

// Backoff returns the wait before retrying after the given zero-based attempt.
func (c *Client) Backoff(attempt int) time.Duration {
	return time.Duration(c.backoffFactor * math.Pow(2, float64(attempt)) * float64(time.Second))
}

// Fetch GETs every record of a resource collection. A JSON array response is
// the whole collection; a {"results": [...], "next_cursor": ...} response is
// one page and the remaining pages are requested with the cursor parameter.
func (c *Client) Fetch(ctx context.Context, resource string, params url.Values) ([]json.RawMessage, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}

	var records []json.RawMessage
	for {
		resp, err := c.do(ctx, http.MethodGet, c.endpoint(resource, query), nil, nil)
		if err != nil {
			return nil, err
		}
		page, next, err := decodePage(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding %s response: %w", resource, err)
		}
		records = append(records, page...)
		if next == "" {
			return records, nil
		}
		if next == query.Get("cursor") {
			return nil, fmt.Errorf("decoding %s response: cursor %q repeated", resource, next)
		}
		query.Set("cursor", next)
	}
}

// Response is a successful API response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Post sends payload as JSON to a resource collection. requestID, when set, is
// sent as X-Request-Id so the API can recognise a retried create.
func (c *Client) Post(ctx context.Context, resource string, payload any, requestID string) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", resource, err)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if requestID != "" {
		header.Set("X-Request-Id", requestID)
	}
	return c.do(ctx, http.MethodPost, c.endpoint(resource, nil), body, header)
}

func (c *Client) endpoint(resource string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(resource, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do performs one logical request, retrying on 429 up to maxAttempts total
// attempts.
func (c *Client) do(ctx context.Context, method, target string, body []byte, header http.Header) (*Response, error) {
	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, fmt.Errorf("building request %s %s: %w", method, target, err)
		}
		for k, v := range header {
			req.Header[k] = v
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, &NetworkError{Method: method, URL: target, Err: err}
		}
		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, &NetworkError{Method: method, URL: target, Err: err}
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt+1 >= c.maxAttempts {
				return nil, &RateLimitError{Method: method, URL: target, Attempts: attempt + 1}
			}
			if err := c.sleep(ctx, c.Backoff(attempt)); err != nil {
				return nil, err
			}
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return nil, &HTTPError{Method: method, URL: target, StatusCode: resp.StatusCode, Body: string(data)}
		default:
			return &Response{StatusCode: resp.StatusCode, Body: data}, nil
		}
	}
}

// decodePage splits a collection response into its records and the cursor of
// the next page, if any.
func decodePage(body []byte) ([]json.RawMessage, string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, "", fmt.Errorf("empty body")
	}

	switch trimmed[0] {
	case '[':
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, "", err
		}
		return records, "", nil
	case '{':
		var page struct {
			Results    *[]json.RawMessage `json:"results"`
			NextCursor *string            `json:"next_cursor"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, "", err
		}
		if page.Results == nil {
			return nil, "", fmt.Errorf("object response without results")
		}
		next := ""
		if page.NextCursor != nil {
			next = *page.NextCursor
		}
		return *page.Results, next, nil
	}
	return nil, "", fmt.Errorf("expected a JSON array or object")
}
