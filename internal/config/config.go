// Package config loads the dohgate YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/picatz/dohgate/pkg/doh"
	"github.com/picatz/dohgate/pkg/gateway"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const DefaultListen = ":8080"

type Config struct {
	Listen          string           `yaml:"listen"`
	Timeout         time.Duration    `yaml:"timeout"`
	DefaultResolver string           `yaml:"default_resolver"`
	Resolvers       []ResolverConfig `yaml:"resolvers"`

	Retry   RetryConfig   `yaml:"retry"`
	TLS     TLSConfig     `yaml:"tls"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type ResolverConfig struct {
	Tag    string `yaml:"tag"`
	URL    string `yaml:"url"`
	Method string `yaml:"method,omitempty"` // POST or GET
}

type RetryConfig struct {
	Max     int           `yaml:"max"`
	WaitMin time.Duration `yaml:"wait_min"`
	WaitMax time.Duration `yaml:"wait_max"`
}

// TLSConfig enables HTTPS (and h2) on the listener when both files are set.
type TLSConfig struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

func (c TLSConfig) Enabled() bool {
	return len(c.Cert) > 0 && len(c.Key) > 0
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Queries bool   `yaml:"queries"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{
		Listen:          DefaultListen,
		Timeout:         gateway.DefaultTimeout,
		DefaultResolver: gateway.DefaultResolver,
		Log:             LogConfig{Level: zerolog.InfoLevel.String()},
	}
	for _, u := range gateway.DefaultUpstreams() {
		c.Resolvers = append(c.Resolvers, ResolverConfig{Tag: u.Key, URL: u.URL, Method: u.Method})
	}
	return c
}

// Load reads and validates the file at path. An empty path returns Default.
func Load(path string) (*Config, error) {
	if len(path) == 0 {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML document on top of Default. Unknown keys are errors.
func Parse(b []byte) (*Config, error) {
	m := make(map[string]any)
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to decode yaml: %w", err)
	}

	c := Default()
	if _, ok := m["resolvers"]; ok {
		c.Resolvers = nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		TagName:     "yaml",
		Result:      c,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(m); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if len(c.Listen) == 0 {
		return errors.New("listen address is empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("negative timeout %s", c.Timeout)
	}
	if c.Retry.Max < 0 {
		return fmt.Errorf("negative retry max %d", c.Retry.Max)
	}
	if c.Retry.WaitMax > 0 && c.Retry.WaitMax < c.Retry.WaitMin {
		return fmt.Errorf("retry wait_max %s is less than wait_min %s", c.Retry.WaitMax, c.Retry.WaitMin)
	}
	if (len(c.TLS.Cert) == 0) != (len(c.TLS.Key) == 0) {
		return errors.New("tls needs both cert and key")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	gcfg := c.Gateway()
	return gcfg.Validate()
}

// Gateway converts c into a gateway.Config. Logger, metrics and transport
// are left for the caller.
func (c *Config) Gateway() gateway.Config {
	ups := make([]gateway.Upstream, 0, len(c.Resolvers))
	for _, r := range c.Resolvers {
		ups = append(ups, gateway.Upstream{
			Key:    r.Tag,
			URL:    r.URL,
			Method: strings.ToUpper(r.Method),
		})
	}
	return gateway.Config{
		Upstreams: ups,
		Default:   c.DefaultResolver,
		Timeout:   c.Timeout,
		Retry: doh.RetryPolicy{
			Max:     c.Retry.Max,
			WaitMin: c.Retry.WaitMin,
			WaitMax: c.Retry.WaitMax,
		},
		LogQueries: c.Log.Queries,
	}
}

// Template returns Default as a YAML document.
func Template() ([]byte, error) {
	b := new(bytes.Buffer)
	enc := yaml.NewEncoder(b)
	enc.SetIndent(2)
	if err := enc.Encode(Default()); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
