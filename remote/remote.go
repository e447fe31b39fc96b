// Package remote is the pipeline stage that fetches wire records from the
// catalog HTTP API. Each wire type is served by one endpoint; requests are
// rate limited and a 404 is reported as NotFound so the pipeline can fall
// through or substitute a declared default.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"resty.dev/v3"

	"github.com/goliatone/go-catalog-cache/errs"
	"github.com/goliatone/go-catalog-cache/query"
)

// StageName is the stage name reported in logs and metrics.
const StageName = "remote"

// APIKeyHeader carries the API key on every request.
const APIKeyHeader = "X-Riot-Token"

// Config configures the HTTP client.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
	RateLimit  float64
	Burst      int
}

// DefaultConfig returns conservative client settings.
func DefaultConfig() Config {
	return Config{
		Timeout:    10 * time.Second,
		RetryCount: 2,
		RetryWait:  200 * time.Millisecond,
		RateLimit:  20,
		Burst:      20,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("remote: base url is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("remote: timeout must be positive")
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("remote: retry count cannot be negative")
	}
	if c.RateLimit < 0 || (c.RateLimit > 0 && c.Burst <= 0) {
		return fmt.Errorf("remote: rate limit needs a positive burst")
	}
	return nil
}

// Endpoint describes how one wire type is fetched.
type Endpoint struct {
	Type string
	// Paths are tried in order; the first whose placeholders are all
	// present in the query is used, for example "/champions/{id}".
	Paths []string
	// Params are query fields sent as URL parameters when present.
	Params []string
	// Many maps bulk parameters to their singular form. Bulk requests are
	// served one member at a time.
	Many map[string]string
	// Wrap converts the decoded body into the wire type.
	Wrap func(body map[string]any) any
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Source) {
		s.client.SetTransport(rt)
	}
}

// Source fetches wire records over HTTP.
type Source struct {
	client    *resty.Client
	limiter   *rate.Limiter
	endpoints map[string]Endpoint
	logger    zerolog.Logger
}

// New builds the source.
func New(cfg Config, endpoints []Endpoint, opts ...Option) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader(APIKeyHeader, cfg.APIKey)
	}
	if cfg.RetryCount > 0 {
		client.SetRetryCount(cfg.RetryCount).SetRetryWaitTime(cfg.RetryWait)
		client.AddRetryConditions(func(res *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := res.StatusCode()
			return code == http.StatusTooManyRequests || (code >= 500 && code != http.StatusNotImplemented)
		})
	}

	s := &Source{
		client:    client,
		endpoints: make(map[string]Endpoint, len(endpoints)),
		logger:    zerolog.Nop(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}

	for _, e := range endpoints {
		if e.Type == "" || len(e.Paths) == 0 || e.Wrap == nil {
			return nil, fmt.Errorf("remote: endpoint %q needs paths and a wrapper", e.Type)
		}
		if _, dup := s.endpoints[e.Type]; dup {
			return nil, fmt.Errorf("remote: endpoint %q declared twice", e.Type)
		}
		s.endpoints[e.Type] = e
	}

	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "remote_source").Logger()
	return s, nil
}

// Close releases the HTTP client.
func (s *Source) Close() error {
	return s.client.Close()
}

func (s *Source) Name() string { return StageName }

// Provides lists the wire types with an endpoint.
func (s *Source) Provides() []string {
	out := make([]string, 0, len(s.endpoints))
	for t := range s.endpoints {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Get fetches one wire record.
func (s *Source) Get(ctx context.Context, typeName string, q query.Query) (any, error) {
	e, ok := s.endpoints[typeName]
	if !ok {
		return nil, goerrors.New(fmt.Sprintf("remote: no endpoint for %s", typeName), goerrors.CategoryInternal)
	}
	path, params, ok := e.resolve(q)
	if !ok {
		return nil, goerrors.New(fmt.Sprintf("remote: query %s matches no path of %s", q, typeName), goerrors.CategoryBadInput)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryRateLimit, "remote: rate limit wait")
		}
	}

	var body map[string]any
	res, err := s.client.R().
		SetContext(ctx).
		SetPathParams(params).
		SetQueryParams(e.queryParams(q)).
		SetResult(&body).
		Get(path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, fmt.Sprintf("remote: GET %s", path))
	}

	s.logger.Debug().Str("type", typeName).Str("path", path).Int("status", res.StatusCode()).Msg("fetched")

	switch code := res.StatusCode(); {
	case code == http.StatusNotFound:
		return nil, errs.NotFound(typeName, q)
	case code == http.StatusTooManyRequests:
		return nil, goerrors.New("remote: rate limited upstream", goerrors.CategoryRateLimit).WithCode(code)
	case res.IsError():
		return nil, goerrors.New(fmt.Sprintf("remote: GET %s returned %d", path, code), goerrors.CategoryExternal).WithCode(code)
	}
	if body == nil {
		return nil, goerrors.New(fmt.Sprintf("remote: GET %s returned no object", path), goerrors.CategoryExternal)
	}
	return e.Wrap(body), nil
}

// GetMany fetches each member of a bulk request in order. A missing member
// fails the whole request.
func (s *Source) GetMany(ctx context.Context, typeName string, q query.Query) ([]any, error) {
	e, ok := s.endpoints[typeName]
	if !ok {
		return nil, goerrors.New(fmt.Sprintf("remote: no endpoint for %s", typeName), goerrors.CategoryInternal)
	}
	for plural, singular := range e.Many {
		set, ok := q.Set(plural)
		if !ok {
			continue
		}
		base := q.Without(plural)
		out := make([]any, 0, len(set))
		for _, member := range set {
			v, err := s.Get(ctx, typeName, base.With(singular, member))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, goerrors.New(fmt.Sprintf("remote: %s has no bulk parameter in %s", typeName, q), goerrors.CategoryBadInput)
}

func (e Endpoint) resolve(q query.Query) (string, map[string]string, bool) {
	for _, path := range e.Paths {
		params := map[string]string{}
		complete := true
		for _, name := range placeholders(path) {
			if !q.Has(name) {
				complete = false
				break
			}
			params[name] = q.Str(name)
		}
		if complete {
			return path, params, true
		}
	}
	return "", nil, false
}

func (e Endpoint) queryParams(q query.Query) map[string]string {
	out := map[string]string{}
	for _, name := range e.Params {
		if q.Has(name) {
			out[name] = q.Str(name)
		}
	}
	return out
}

func placeholders(path string) []string {
	var out []string
	for {
		start := strings.IndexByte(path, '{')
		if start < 0 {
			return out
		}
		end := strings.IndexByte(path[start:], '}')
		if end < 0 {
			return out
		}
		out = append(out, path[start+1:start+end])
		path = path[start+end+1:]
	}
}
