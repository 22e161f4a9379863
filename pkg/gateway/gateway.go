// Package gateway resolves JSON API style queries by forwarding them as
// binary DNS messages to an allow-listed DoH upstream.
//
// Each request goes through validate, encode, dispatch, decode and shape, in
// that order, and stops at the first failure. A Gateway holds no mutable
// state and is safe for concurrent use.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/picatz/dohgate/pkg/dj"
	"github.com/picatz/dohgate/pkg/dnswire"
	"github.com/picatz/dohgate/pkg/doh"
	"github.com/rs/zerolog"
)

// Request is a query as received from a client. Empty Type and Resolver
// select "A" and the configured default upstream.
type Request struct {
	Name     string
	Type     string
	Resolver string
}

// Gateway forwards queries to DoH upstreams.
type Gateway struct {
	upstreams  map[string]Upstream
	def        string
	timeout    time.Duration
	ids        dnswire.IDSource
	client     *doh.Client
	logger     zerolog.Logger
	logQueries bool
	metrics    *metrics
}

// New validates cfg and returns a Gateway.
func New(cfg Config) (*Gateway, error) {
	set, def, err := cfg.upstreamSet()
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	g := &Gateway{
		upstreams:  set,
		def:        def,
		timeout:    cfg.Timeout,
		ids:        cfg.IDs,
		client:     doh.NewClient(cfg.HTTPClient, cfg.Retry),
		logger:     zerolog.Nop(),
		logQueries: cfg.LogQueries,
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if g.ids == nil {
		g.ids = dnswire.CryptoIDSource{}
	}
	if cfg.Logger != nil {
		g.logger = cfg.Logger.With().Str("module", "gateway").Logger()
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	g.metrics = newMetrics(keys)
	if cfg.Metrics != nil {
		if err := g.metrics.register(cfg.Metrics); err != nil {
			return nil, fmt.Errorf("gateway: failed to register metrics: %w", err)
		}
	}
	return g, nil
}

// DefaultResolver returns the key used when a request names no resolver.
func (g *Gateway) DefaultResolver() string {
	return g.def
}

// Resolve validates req, queries the selected upstream once and returns the
// answer in JSON API form. Errors are *Error values matching either
// ErrValidation or ErrUpstream.
func (g *Gateway) Resolve(ctx context.Context, req Request) (*dj.Response, error) {
	start := time.Now()

	name := strings.TrimSpace(req.Name)
	if len(name) == 0 {
		return nil, g.reject(validationErr("invalid/missing name param", nil))
	}

	key := req.Resolver
	if len(key) == 0 {
		key = g.def
	}
	up, ok := g.upstreams[key]
	if !ok {
		return nil, g.reject(validationErr("invalid resolver", nil))
	}

	typ := req.Type
	if len(typ) == 0 {
		typ = "A"
	}
	qtype, err := dnswire.ParseType(typ)
	if err != nil {
		return nil, g.reject(validationErr(typeReason(), nil))
	}

	q := dnswire.NewQuery(g.ids, name, qtype)
	wire, err := dnswire.EncodeQuery(q)
	if err != nil {
		return nil, g.reject(validationErr("invalid name param", err))
	}

	m, err := g.exchange(ctx, up, q.ID, wire)

	elapsed := time.Since(start)
	if err != nil {
		g.metrics.errTotal.WithLabelValues(up.Key).Inc()
		g.logger.Warn().
			Err(err).
			Str("name", name).
			Stringer("type", qtype).
			Str("resolver", up.Key).
			Dur("elapsed", elapsed).
			Msg("query failed")
		return nil, err
	}
	g.metrics.responseLatency.WithLabelValues(up.Key).Observe(float64(elapsed.Milliseconds()))

	lvl := zerolog.DebugLevel
	if g.logQueries {
		lvl = zerolog.InfoLevel
	}
	g.logger.WithLevel(lvl).
		Str("name", name).
		Stringer("type", qtype).
		Str("resolver", up.Key).
		Uint8("rcode", uint8(m.Header.RCode)).
		Int("answers", len(m.Answers)).
		Dur("elapsed", elapsed).
		Msg("query resolved")

	return dj.Shape(m), nil
}

// exchange performs the single outbound call and decodes its result.
func (g *Gateway) exchange(ctx context.Context, up Upstream, id uint16, wire []byte) (*dnswire.Message, error) {
	g.metrics.queryTotal.WithLabelValues(up.Key).Inc()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.client.Exchange(ctx, up.URL, up.Method, wire)
	if err != nil {
		return nil, upstreamErr("upstream request failed", err)
	}

	m, err := dnswire.DecodeMessage(raw)
	if err != nil {
		return nil, upstreamErr("malformed upstream response", err)
	}
	if !m.Header.Response {
		return nil, upstreamErr("malformed upstream response", fmt.Errorf("%w: QR bit not set", dnswire.ErrMalformedMessage))
	}
	if m.Header.ID != id {
		return nil, upstreamErr("upstream response does not match query", fmt.Errorf("got id %d, want %d", m.Header.ID, id))
	}
	return m, nil
}

func (g *Gateway) reject(err error) error {
	g.metrics.rejectTotal.Inc()
	g.logger.Debug().Err(err).Msg("request rejected")
	return err
}

// typeReason lists the supported types, e.g. "type must be A, AAAA, or CNAME".
func typeReason() string {
	types := dnswire.SupportedTypes()
	switch len(types) {
	case 1:
		return "type must be " + types[0]
	case 2:
		return "type must be " + types[0] + " or " + types[1]
	}
	return "type must be " + strings.Join(types[:len(types)-1], ", ") + ", or " + types[len(types)-1]
}
