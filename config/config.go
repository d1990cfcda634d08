// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config carries the security policy consumed by the validator.
// A SecurityConfig is an immutable value: updating policy means building a
// new value and publishing it whole (see Holder), never mutating fields of
// a shared instance.
package config

import "time"

// SecurityConfig is the process-wide outbound request policy.
type SecurityConfig struct {
	// AllowedDomains, when non-empty, acts as an allowlist: hostnames must
	// match an entry exactly or as a subdomain. Empty means all public
	// domains are eligible.
	AllowedDomains []string `yaml:"allowedDomains"`
	// BlockedDomains are denied regardless of the allowlist result.
	BlockedDomains []string `yaml:"blockedDomains"`
	// AllowPrivateIPs permits RFC1918, link-local and unique-local targets.
	AllowPrivateIPs bool `yaml:"allowPrivateIPs"`
	// AllowLoopback permits loopback targets.
	AllowLoopback bool `yaml:"allowLoopback"`
	// MaxRedirects is the redirect hop budget enforced by the transport.
	MaxRedirects int `yaml:"maxRedirects"`
	// Timeout bounds the whole request; consumed by the transport, not by
	// the validator.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	DefaultMaxRedirects = 3
	DefaultTimeout      = 30 * time.Second
)

// Default returns the documented baseline policy: no list entries, private
// and loopback targets denied.
func Default() SecurityConfig {
	return SecurityConfig{
		MaxRedirects: DefaultMaxRedirects,
		Timeout:      DefaultTimeout,
	}
}
