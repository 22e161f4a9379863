// Package doh provides a DNS-over-HTTPS (DoH) client transport following
// [RFC8484]. It moves opaque wire-format messages; encoding and decoding
// them is left to the caller.
//
// [RFC8484]: https://tools.ietf.org/html/rfc8484
package doh

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// MediaType is the content type of wire-format DNS messages.
const MediaType = "application/dns-message"

// MaxMessageSize is the largest DNS message a response body may carry.
const MaxMessageSize = 65535

var (
	// ErrUnexpectedStatus is returned when the server answers with anything
	// other than 200 OK.
	ErrUnexpectedStatus = errors.New("doh: unexpected HTTP status")

	// ErrResponseTooLarge is returned when the response body exceeds
	// MaxMessageSize.
	ErrResponseTooLarge = errors.New("doh: response body too large")
)

// RetryPolicy controls how often a failed exchange is retried. The zero
// value performs exactly one attempt.
type RetryPolicy struct {
	Max     int           // retries after the first attempt
	WaitMin time.Duration // minimum backoff between attempts
	WaitMax time.Duration // maximum backoff between attempts
}

// Client sends DNS queries to DoH servers.
type Client struct {
	c *retryablehttp.Client
}

// NewClient returns a Client using httpClient for transport, or a pooled
// client from go-cleanhttp when httpClient is nil.
func NewClient(httpClient *http.Client, retry RetryPolicy) *Client {
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}

	c := retryablehttp.NewClient()
	c.HTTPClient = httpClient
	c.Logger = nil
	c.RetryMax = max(retry.Max, 0)
	if retry.WaitMin > 0 {
		c.RetryWaitMin = retry.WaitMin
	}
	if retry.WaitMax > 0 {
		c.RetryWaitMax = retry.WaitMax
	}
	// Hand the last response back so status errors carry the real code.
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{c: c}
}

// Exchange sends the wire-format query to server and returns the
// wire-format response. method is http.MethodPost (the default when empty),
// or http.MethodGet to send the query base64url-encoded in the "dns"
// parameter.
func (c *Client) Exchange(ctx context.Context, server, method string, query []byte) ([]byte, error) {
	var (
		req *retryablehttp.Request
		err error
	)

	switch method {
	case "", http.MethodPost:
		req, err = retryablehttp.NewRequestWithContext(ctx, http.MethodPost, server, query)
		if err != nil {
			return nil, fmt.Errorf("doh: error creating HTTP request: %w", err)
		}
		req.Header.Set("Content-Type", MediaType)
	case http.MethodGet:
		req, err = retryablehttp.NewRequestWithContext(ctx, http.MethodGet, server, nil)
		if err != nil {
			return nil, fmt.Errorf("doh: error creating HTTP request: %w", err)
		}
		q := req.URL.Query()
		q.Set("dns", base64.RawURLEncoding.EncodeToString(query))
		req.URL.RawQuery = q.Encode()
	default:
		return nil, fmt.Errorf("doh: unsupported method %q", method)
	}

	req.Header.Set("Accept", MediaType)
	req.Header.Set("User-Agent", "dohgate")

	httpResp, err := c.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doh: error performing HTTP request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %q returned %d (%s)", ErrUnexpectedStatus, server, httpResp.StatusCode, http.StatusText(httpResp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, MaxMessageSize+1))
	if err != nil {
		return nil, fmt.Errorf("doh: error reading HTTP response body: %w", err)
	}
	if len(body) > MaxMessageSize {
		return nil, ErrResponseTooLarge
	}

	return body, nil
}
