// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package urlparse decomposes and normalizes raw URL strings before any
// policy decision is made. It performs no network or filesystem access.
package urlparse

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

var (
	// ErrEmpty indicates the input was empty or whitespace only.
	ErrEmpty = errors.New("URL is empty")
	// ErrNoScheme indicates the input carried no scheme component.
	ErrNoScheme = errors.New("missing scheme")
	// ErrNoHost indicates the input carried no host component.
	ErrNoHost = errors.New("missing host")
)

// SchemeError reports a scheme other than http/https. It is a distinct type
// so callers can render a protocol-specific denial instead of a generic
// parse failure.
type SchemeError struct {
	Scheme string
}

func (e *SchemeError) Error() string {
	return fmt.Sprintf("scheme %q not allowed", e.Scheme)
}

// Parsed holds the decomposed parts of a raw URL after normalization.
// Host is the normalized hostname: lowercase ASCII, IP literals in canonical
// form, no brackets, no trailing dot.
type Parsed struct {
	URL  *url.URL
	Host string
}

// Parse decomposes raw into scheme, host, port, userinfo and path, and
// normalizes the hostname for comparison. Only http and https schemes are
// accepted; everything else fails with *SchemeError.
func Parse(raw string) (*Parsed, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrEmpty
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		return nil, ErrNoScheme
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, &SchemeError{Scheme: scheme}
	}
	u.Scheme = scheme

	if u.Host == "" {
		return nil, ErrNoHost
	}

	host, err := NormalizeHost(u.Hostname())
	if err != nil {
		return nil, err
	}

	return &Parsed{URL: u, Host: host}, nil
}

// NormalizeHost validates and normalizes a hostname for comparison.
// IP literals are canonicalized via net.ParseIP; names go through IDNA
// lookup mapping to lowercase ASCII.
func NormalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	}
	if strings.Contains(host, "%") {
		return "", fmt.Errorf("host must not include zone: %s", raw)
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	if ip := net.ParseIP(host); ip != nil {
		return strings.ToLower(ip.String()), nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", raw, err)
	}
	return strings.ToLower(ascii), nil
}
