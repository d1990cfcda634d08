// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package urlguard

import (
	"net/url"
	"strings"

	"github.com/ManuGH/urlguard/config"
	"github.com/ManuGH/urlguard/internal/urlparse"
)

// ValidateRedirect re-runs the full pipeline against a redirect target.
// Relative targets are resolved against the original URL first, the way an
// HTTP client resolves a Location header. Denials are prefixed so callers
// can tell a bad redirect from a bad initial URL. The validator is
// stateless per call; enforcing the redirect hop budget is the transport's
// job.
func ValidateRedirect(originalURL, targetURL string, cfg config.SecurityConfig) Result {
	target := strings.TrimSpace(targetURL)
	if base, err := url.Parse(strings.TrimSpace(originalURL)); err == nil && base.IsAbs() {
		if ref, err := url.Parse(target); err == nil && !ref.IsAbs() {
			target = base.ResolveReference(ref).String()
		}
	}

	res := Validate(target, cfg)
	if !res.Allowed {
		return deniedResult("Redirect to unsafe URL: " + res.Reason)
	}

	origHost := normalizedHost(originalURL)
	if origHost != "" && origHost != normalizedHost(target) {
		res.CrossHost = true
	}
	return res
}

func normalizedHost(raw string) string {
	parsed, err := urlparse.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Host
}
