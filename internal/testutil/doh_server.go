// Package testutil provides a stub DoH upstream for tests.
package testutil

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/miekg/dns"
)

// Handler answers a query received by the stub upstream.
type Handler func(w http.ResponseWriter, httpReq *http.Request, dnsReq *dns.Msg) (*dns.Msg, error)

// NewServerMux returns a mux serving the RFC 8484 endpoint at /dns-query,
// unpacking GET and POST queries with miekg/dns before calling handler.
func NewServerMux(handler Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/dns-query", func(w http.ResponseWriter, r *http.Request) {
		var b []byte

		switch r.Method {
		case http.MethodPost:
			if r.Header.Get("Content-Type") != "application/dns-message" {
				http.Error(w, http.StatusText(http.StatusUnsupportedMediaType), http.StatusUnsupportedMediaType)
				return
			}
			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			b = body
		case http.MethodGet:
			decoded, err := base64.RawURLEncoding.DecodeString(r.URL.Query().Get("dns"))
			if err != nil || len(decoded) == 0 {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			b = decoded
		default:
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		var dnsReq dns.Msg
		if err := dnsReq.Unpack(b); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		dnsResp, err := handler(w, r, &dnsReq)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if dnsResp == nil {
			// The handler wrote its own response.
			return
		}

		out, err := dnsResp.Pack()
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/dns-message")
		w.WriteHeader(http.StatusOK)
		w.Write(out)
	})

	return mux
}

// StartDoHServer starts a stub upstream and returns it; the server is closed
// when the test ends. Its DoH endpoint is srv.URL + "/dns-query".
func StartDoHServer(t testing.TB, handler Handler) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(NewServerMux(handler))
	t.Cleanup(srv.Close)
	return srv
}

// Answer returns a handler replying to every query with the given records,
// written in zone file format (e.g. "example.com. 3600 IN A 93.184.216.34").
func Answer(t testing.TB, records ...string) Handler {
	t.Helper()

	rrs := make([]dns.RR, 0, len(records))
	for _, s := range records {
		rr, err := dns.NewRR(s)
		if err != nil {
			t.Fatalf("invalid record %q: %v", s, err)
		}
		rrs = append(rrs, rr)
	}

	return func(w http.ResponseWriter, r *http.Request, req *dns.Msg) (*dns.Msg, error) {
		resp := new(dns.Msg).SetReply(req)
		resp.RecursionAvailable = true
		resp.Answer = append(resp.Answer, rrs...)
		return resp, nil
	}
}
