package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/picatz/dohgate/pkg/dnswire"
	"github.com/picatz/dohgate/pkg/doh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds each upstream exchange when Config.Timeout is
	// zero.
	DefaultTimeout = 5 * time.Second

	// DefaultResolver is the primary upstream of DefaultUpstreams.
	DefaultResolver = "cloudflare"
)

// Upstream is an allow-listed DoH resolver.
type Upstream struct {
	Key    string // value of the "resolver" parameter selecting it
	URL    string // RFC 8484 endpoint
	Method string // POST (default) or GET
}

// DefaultUpstreams returns the built-in allow-list.
func DefaultUpstreams() []Upstream {
	return []Upstream{
		{Key: "cloudflare", URL: "https://1.1.1.1/dns-query"},
		{Key: "google", URL: "https://dns.google/dns-query"},
	}
}

// Config configures a Gateway. It is copied by New; changing it afterwards
// has no effect on the Gateway.
type Config struct {
	// Upstreams is the allow-list of resolvers. Defaults to
	// DefaultUpstreams.
	Upstreams []Upstream

	// Default is the key used when a request names no resolver. Defaults
	// to DefaultResolver, or the first upstream if that is not listed.
	Default string

	// Timeout bounds each upstream exchange, retries included.
	Timeout time.Duration

	// Retry is off unless configured.
	Retry doh.RetryPolicy

	// IDs supplies query IDs. Defaults to dnswire.CryptoIDSource.
	IDs dnswire.IDSource

	// HTTPClient is the outbound transport. Defaults to a pooled client
	// from go-cleanhttp.
	HTTPClient *http.Client

	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger

	// LogQueries logs every successful query at info level instead of
	// debug.
	LogQueries bool

	// Metrics, if set, receives the gateway's collectors.
	Metrics prometheus.Registerer
}

// Validate reports the error New would return for the upstream settings of
// cfg.
func (cfg *Config) Validate() error {
	_, _, err := cfg.upstreamSet()
	return err
}

func (cfg *Config) upstreamSet() (map[string]Upstream, string, error) {
	ups := cfg.Upstreams
	if len(ups) == 0 {
		ups = DefaultUpstreams()
	}

	set := make(map[string]Upstream, len(ups))
	for _, u := range ups {
		if len(u.Key) == 0 {
			return nil, "", errors.New("upstream with empty key")
		}
		if _, dup := set[u.Key]; dup {
			return nil, "", fmt.Errorf("duplicate upstream key %q", u.Key)
		}
		parsed, err := url.Parse(u.URL)
		if err != nil {
			return nil, "", fmt.Errorf("upstream %q: %w", u.Key, err)
		}
		if (parsed.Scheme != "https" && parsed.Scheme != "http") || len(parsed.Host) == 0 {
			return nil, "", fmt.Errorf("upstream %q: url must be absolute http(s), got %q", u.Key, u.URL)
		}
		switch u.Method {
		case "":
			u.Method = http.MethodPost
		case http.MethodPost, http.MethodGet:
		default:
			return nil, "", fmt.Errorf("upstream %q: unsupported method %q", u.Key, u.Method)
		}
		set[u.Key] = u
	}

	def := cfg.Default
	if len(def) == 0 {
		def = DefaultResolver
		if _, ok := set[def]; !ok {
			def = ups[0].Key
		}
	}
	if _, ok := set[def]; !ok {
		return nil, "", fmt.Errorf("default resolver %q is not an upstream", def)
	}
	return set, def, nil
}
