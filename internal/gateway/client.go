package gateway

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single push.
const DefaultTimeout = 5 * time.Second

// maxBodyBytes caps how much of a gateway response is kept for logging.
const maxBodyBytes = 64 << 10

// Response is what the gateway answered to a successful push.
type Response struct {
	StatusCode int
	Body       string
}

// Client PUTs text-format payloads to a single push URL.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a client for a fully built push URL (see PushURL).
// A non-positive timeout selects DefaultTimeout.
func NewClient(pushURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url: pushURL,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// URL returns the push URL.
func (c *Client) URL() string {
	return c.url
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.http.Timeout
}

// Push sends payload with PUT and Content-Type text/plain. Every failure is a
// *PushError; only status 200 counts as success.
func (c *Client) Push(ctx context.Context, payload string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url, strings.NewReader(payload))
	if err != nil {
		return Response{}, &PushError{Kind: KindOther, Err: err}
	}
	req.Header.Set("Content-Type", "text/plain")

	res, err := c.http.Do(req)
	if err != nil {
		return Response{}, &PushError{Kind: classify(err), Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return Response{StatusCode: res.StatusCode}, &PushError{Kind: classify(err), Err: err}
	}
	msg := strings.TrimSpace(string(body))

	if res.StatusCode != http.StatusOK {
		return Response{StatusCode: res.StatusCode, Body: msg}, &PushError{
			Kind:       KindBadStatus,
			StatusCode: res.StatusCode,
			Body:       msg,
		}
	}
	return Response{StatusCode: res.StatusCode, Body: msg}, nil
}
