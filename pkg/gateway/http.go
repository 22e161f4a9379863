package gateway

import (
	"encoding/json"
	"net/http"
)

// ServeHTTP answers GET requests carrying "name", "type" and "resolver"
// query parameters. It replies 200 with a JSON API document, or a plain
// text reason with 400 for invalid requests and 502 for upstream failures.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	resp, err := g.Resolve(r.Context(), Request{
		Name:     q.Get("name"),
		Type:     q.Get("type"),
		Resolver: q.Get("resolver"),
	})
	if err != nil {
		http.Error(w, err.Error(), StatusCode(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		g.logger.Debug().Err(err).Str("client", r.RemoteAddr).Msg("failed to write http response")
	}
}

// NewServeMux routes "GET /resolve" and "GET /" to g, and "GET /metrics" to
// metrics when it is not nil.
func NewServeMux(g *Gateway, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /resolve", g)
	mux.Handle("GET /{$}", g)

	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return mux
}
