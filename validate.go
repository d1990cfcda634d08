// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package urlguard

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ManuGH/urlguard/config"
	"github.com/ManuGH/urlguard/internal/ipclass"
	"github.com/ManuGH/urlguard/internal/urlparse"
)

// Validate runs a raw URL through the full pipeline: parse, classify the
// target, apply the domain and address policy, sanitize. It is a pure
// function of its inputs and performs no I/O; call it from any number of
// goroutines with a shared, immutable SecurityConfig.
func Validate(raw string, cfg config.SecurityConfig) Result {
	parsed, err := urlparse.Parse(raw)
	if err != nil {
		var se *urlparse.SchemeError
		if errors.As(err, &se) {
			return deniedResult(protocolDenial(se.Scheme))
		}
		return deniedResult(fmt.Sprintf("Invalid URL: %v", err))
	}

	class := ipclass.Classify(parsed.Host)
	if reason := evaluate(parsed, class, cfg); reason != "" {
		return deniedResult(reason)
	}

	return allowedResult(stripUserinfo(parsed.URL))
}

// evaluate applies the policy checks in fixed order; the first failing
// check determines the denial reason.
func evaluate(parsed *urlparse.Parsed, class ipclass.Class, cfg config.SecurityConfig) string {
	// Re-assert the scheme gate. Parse already enforces it; a future caller
	// handing in a pre-built Parsed must not bypass it.
	if s := parsed.URL.Scheme; s != "http" && s != "https" {
		return protocolDenial(s)
	}

	host := parsed.Host

	if class == ipclass.ReservedName {
		return fmt.Sprintf("Hostname '%s' is blocked (localhost/metadata service).", host)
	}

	if len(cfg.AllowedDomains) > 0 && !inDomainList(host, cfg.AllowedDomains) {
		return fmt.Sprintf("Domain '%s' is not in the allowlist.", host)
	}

	// Blocklist is evaluated after the allowlist on purpose: an entry in
	// both lists stays denied.
	if inDomainList(host, cfg.BlockedDomains) {
		return fmt.Sprintf("Domain '%s' is in the blocklist.", host)
	}

	switch class {
	case ipclass.Loopback:
		if !cfg.AllowLoopback {
			return fmt.Sprintf("Loopback address '%s' is not allowed.", host)
		}
	case ipclass.Private, ipclass.LinkLocal, ipclass.UniqueLocal:
		if !cfg.AllowPrivateIPs {
			return fmt.Sprintf("Private address '%s' is not allowed.", host)
		}
	}

	if parsed.URL.User != nil {
		return "URLs with embedded credentials are not allowed."
	}

	return ""
}

func protocolDenial(scheme string) string {
	return fmt.Sprintf("Protocol '%s:' not allowed. Only HTTP and HTTPS are permitted.", scheme)
}

// inDomainList reports whether host equals a list entry or is a subdomain
// of one. Matching is case-insensitive and anchored on dot boundaries, so
// "example.com" matches "api.example.com" but never "notexample.com".
// Entries run through the same normalization as the host (IDNA to ASCII,
// trailing-dot strip); a unicode entry therefore still matches the
// punycode host it was written for.
func inDomainList(host string, domains []string) bool {
	for _, domain := range domains {
		domain = strings.TrimPrefix(strings.TrimSpace(domain), ".")
		if domain == "" {
			continue
		}
		normalized, err := urlparse.NormalizeHost(domain)
		if err != nil {
			// An entry that cannot normalize can never match a
			// normalized host.
			continue
		}
		if host == normalized || strings.HasSuffix(host, "."+normalized) {
			return true
		}
	}
	return false
}

func stripUserinfo(u *url.URL) string {
	clean := *u
	clean.User = nil
	return clean.String()
}
