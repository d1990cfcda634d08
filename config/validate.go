// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"strings"

	"github.com/ManuGH/urlguard/internal/urlparse"
)

// Validate checks a policy value for internal consistency. It does not
// mutate the value; callers decide whether to publish it.
func Validate(cfg SecurityConfig) error {
	if cfg.MaxRedirects < 0 {
		return fmt.Errorf("maxRedirects must not be negative, got %d", cfg.MaxRedirects)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	if err := validateDomainList("allowedDomains", cfg.AllowedDomains); err != nil {
		return err
	}
	if err := validateDomainList("blockedDomains", cfg.BlockedDomains); err != nil {
		return err
	}
	return nil
}

// validateDomainList rejects entries that are not bare hostnames. Schemes,
// paths, ports and userinfo in a list entry almost always mean the operator
// pasted a URL, which would never match and silently weaken the policy.
func validateDomainList(key string, entries []string) error {
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if err := validateDomainEntry(entry); err != nil {
			return fmt.Errorf("invalid %s entry %q: %w", key, entry, err)
		}
	}
	return nil
}

func validateDomainEntry(entry string) error {
	if strings.Contains(entry, "://") {
		return fmt.Errorf("must not include a scheme")
	}
	if strings.Contains(entry, "/") {
		return fmt.Errorf("must not include a path")
	}
	if strings.Contains(entry, "@") {
		return fmt.Errorf("must not include userinfo")
	}
	if _, err := urlparse.NormalizeHost(strings.TrimPrefix(entry, ".")); err != nil {
		return err
	}
	return nil
}
