// Package dj provides the DoH JSON API format popularised by public
// resolvers such as Google and Cloudflare, and a small client for it.
//
// This is different from [RFC8484], which carries binary DNS messages; the
// gateway in this module speaks RFC 8484 upstream and serves this format.
//
// [RFC8484]: https://tools.ietf.org/html/rfc8484
package dj

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Request is a DNS query to a DoH server using the JSON API.
type Request struct {
	Name     string // domain name (e.g. google.com)
	Type     string // record type (e.g. A, AAAA, CNAME)
	Resolver string // upstream key, only understood by this module's gateway
}

// Response is a DNS response in the JSON API format. Every section is
// always present, empty sections encode as [].
type Response struct {
	Status     int        `json:"Status"` // DNS response code
	TC         bool       `json:"TC"`     // Truncated
	RD         bool       `json:"RD"`     // Recursion Desired
	RA         bool       `json:"RA"`     // Recursion Available
	AD         bool       `json:"AD"`     // Authenticated Data
	CD         bool       `json:"CD"`     // Checking Disabled
	Question   []Question `json:"Question"`
	Answer     []Record   `json:"Answer"`
	Authority  []Record   `json:"Authority"`
	Additional []Record   `json:"Additional"`
}

// Question is an entry of the question section.
type Question struct {
	Name string `json:"name"`
	Type int    `json:"type"`
}

// Record is a resource record. Data is the presentation form of its RDATA.
type Record struct {
	Name string `json:"name"`
	Type int    `json:"type"`
	TTL  int    `json:"TTL"`
	Data string `json:"data"`
}

// Query performs a DNS query using a DoH JSON API server.
func Query(ctx context.Context, httpClient *http.Client, server string, req *Request) (*Response, error) {
	// Prepare the HTTP request, including the relevant headers and query params.
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, server, nil)
	if err != nil {
		return nil, fmt.Errorf("dj: error creating HTTP request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/dns-json")
	httpReq.Header.Set("User-Agent", "dohgate")

	q := httpReq.URL.Query()
	q.Add("name", req.Name)
	if req.Type != "" {
		q.Add("type", req.Type)
	}
	if req.Resolver != "" {
		q.Add("resolver", req.Resolver)
	}

	httpReq.URL.RawQuery = q.Encode()

	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("dj: error performing HTTP request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		reason, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, &StatusError{Code: httpResp.StatusCode, Reason: strings.TrimSpace(string(reason))}
	}

	resp := &Response{}

	err = json.NewDecoder(httpResp.Body).Decode(resp)
	if err != nil {
		return nil, fmt.Errorf("dj: error decoding response: %w", err)
	}

	return resp, nil
}

// StatusError is returned by Query when the server does not answer 200.
type StatusError struct {
	Code   int
	Reason string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dj: HTTP request returned status code: %d (%s): %s", e.Code, http.StatusText(e.Code), e.Reason)
}
