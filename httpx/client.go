// Package httpx is the transport-side consumer of the validator: a
// hardened HTTP client that validates the initial URL before the first
// dial, re-validates every redirect hop, and enforces the redirect budget
// as an explicit hop counter.
package httpx

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/urlguard"
	"github.com/ManuGH/urlguard/config"
	"github.com/ManuGH/urlguard/internal/log"
	"github.com/ManuGH/urlguard/internal/metrics"
)

const (
	defaultClientTimeout         = 5 * time.Second
	defaultDialTimeout           = 3 * time.Second
	defaultResponseHeaderTimeout = 3 * time.Second
	defaultIdleConnTimeout       = 30 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 16
	defaultMaxIdleConnsPerHost   = 4
)

// NewTransportClient returns a hardened HTTP client with bounded dial,
// TLS, header and idle timeouts.
func NewTransportClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}

	dialTimeout := timeout
	if dialTimeout > defaultDialTimeout {
		dialTimeout = defaultDialTimeout
	}

	responseHeaderTimeout := timeout
	if responseHeaderTimeout > defaultResponseHeaderTimeout {
		responseHeaderTimeout = defaultResponseHeaderTimeout
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          defaultMaxIdleConns,
			MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			TLSHandshakeTimeout:   dialTimeout,
			ResponseHeaderTimeout: responseHeaderTimeout,
			ExpectContinueTimeout: defaultExpectContinueTimeout,
		},
	}
}

// DeniedError surfaces a validation denial through the http.Client error
// path. The URL it carries is already sanitized for logging.
type DeniedError struct {
	URL    string
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("request to %s denied: %s", e.URL, e.Reason)
}

// Client issues outbound requests gated by the safety validator. The
// policy is read through a source func on every decision, so a client
// built on Holder.Get follows hot-reloaded policy without restarts.
//
// Validation classifies hostname text only; the client does not pin the
// resolved IP to the dialed socket, so a DNS-rebinding target is not
// caught here.
type Client struct {
	http   *http.Client
	source func() config.SecurityConfig
	logger zerolog.Logger
}

// NewClient builds a guarded client around a policy source. Pass
// holder.Get for hot-reloadable policy.
func NewClient(source func() config.SecurityConfig) *Client {
	cfg := source()
	c := &Client{
		http:   NewTransportClient(cfg.Timeout),
		source: source,
		logger: log.WithComponent("httpx"),
	}
	c.http.CheckRedirect = c.checkRedirect
	return c
}

// NewStaticClient builds a guarded client around a fixed policy value.
func NewStaticClient(cfg config.SecurityConfig) *Client {
	return NewClient(func() config.SecurityConfig { return cfg })
}

// Get validates rawURL and, if allowed, fetches its sanitized form.
// Denials come back as *DeniedError.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	cfg := c.source()
	res := urlguard.Validate(rawURL, cfg)
	metrics.RecordValidation(res.Allowed, res.Reason)
	if !res.Allowed {
		c.logger.Warn().
			Str("event", "request.denied").
			Str("url", urlguard.Sanitize(rawURL)).
			Str("reason", res.Reason).
			Msg("outbound request denied")
		return nil, &DeniedError{URL: urlguard.Sanitize(rawURL), Reason: res.Reason}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.SanitizedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.http.Do(req)
}

// Do validates req.URL and, if allowed, issues the request with the
// sanitized URL swapped in. The caller's request is not modified.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	cfg := c.source()
	raw := req.URL.String()
	res := urlguard.Validate(raw, cfg)
	metrics.RecordValidation(res.Allowed, res.Reason)
	if !res.Allowed {
		return nil, &DeniedError{URL: urlguard.Sanitize(raw), Reason: res.Reason}
	}

	sanitized, err := url.Parse(res.SanitizedURL)
	if err != nil {
		return nil, fmt.Errorf("parse sanitized url: %w", err)
	}
	clone := req.Clone(req.Context())
	clone.URL = sanitized
	return c.http.Do(clone)
}

// checkRedirect enforces the hop budget as a counted loop and re-validates
// every Location target before the transport follows it.
func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	cfg := c.source()
	if len(via) > cfg.MaxRedirects {
		return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
	}

	original := via[0].URL
	res := urlguard.ValidateRedirect(original.String(), req.URL.String(), cfg)
	metrics.RecordValidation(res.Allowed, res.Reason)
	if !res.Allowed {
		c.logger.Warn().
			Str("event", "redirect.denied").
			Str("from", urlguard.Sanitize(original.String())).
			Str("to", urlguard.Sanitize(req.URL.String())).
			Str("reason", res.Reason).
			Msg("redirect target denied")
		return &DeniedError{URL: urlguard.Sanitize(req.URL.String()), Reason: res.Reason}
	}

	if res.CrossHost {
		c.logger.Warn().
			Str("event", "redirect.cross_host").
			Str("from", original.Hostname()).
			Str("to", req.URL.Hostname()).
			Msg("following cross-host redirect")
	}
	return nil
}
