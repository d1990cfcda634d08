// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package urlguard

import (
	"net/url"
	"strings"
)

// Sanitize returns a canonical form of raw that is safe to log and to dial:
// embedded credentials are removed, the scheme is lowercased, and
// schemeless or unsupported-scheme input is forced to https. Sanitization
// is best-effort normalization, not validation; it never rejects, and
// unparseable input maps to the empty string. It is idempotent:
// Sanitize(Sanitize(u)) == Sanitize(u).
func Sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	// Schemeless input is treated as a bare authority.
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		scheme = "https"
	}
	u.Scheme = scheme
	u.User = nil

	return u.String()
}
