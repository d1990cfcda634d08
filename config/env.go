// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/urlguard/internal/log"
)

// Environment keys understood by FromEnv.
const (
	EnvAllowedDomains  = "URLGUARD_ALLOWED_DOMAINS"
	EnvBlockedDomains  = "URLGUARD_BLOCKED_DOMAINS"
	EnvAllowPrivateIPs = "URLGUARD_ALLOW_PRIVATE_IPS"
	EnvAllowLoopback   = "URLGUARD_ALLOW_LOOPBACK"
	EnvMaxRedirects    = "URLGUARD_MAX_REDIRECTS"
	EnvTimeout         = "URLGUARD_TIMEOUT"
)

// FromEnv returns the default policy overlaid with any URLGUARD_* environment
// variables that are set. Invalid values fall back to the default for that
// field rather than failing the whole load, so the returned value always
// passes Validate.
func FromEnv() SecurityConfig {
	cfg := Default()
	cfg.AllowedDomains = validDomainEntries(EnvAllowedDomains, parseCSV(EnvAllowedDomains, nil))
	cfg.BlockedDomains = validDomainEntries(EnvBlockedDomains, parseCSV(EnvBlockedDomains, nil))
	cfg.AllowPrivateIPs = parseBool(EnvAllowPrivateIPs, cfg.AllowPrivateIPs)
	cfg.AllowLoopback = parseBool(EnvAllowLoopback, cfg.AllowLoopback)
	cfg.MaxRedirects = parseInt(EnvMaxRedirects, cfg.MaxRedirects)
	cfg.Timeout = parseDuration(EnvTimeout, cfg.Timeout)

	logger := log.WithComponent("config")
	if cfg.MaxRedirects < 0 {
		logger.Warn().
			Str("key", EnvMaxRedirects).
			Int("value", cfg.MaxRedirects).
			Int("default", DefaultMaxRedirects).
			Msg("negative redirect budget, using default")
		cfg.MaxRedirects = DefaultMaxRedirects
	}
	if cfg.Timeout <= 0 {
		logger.Warn().
			Str("key", EnvTimeout).
			Dur("value", cfg.Timeout).
			Dur("default", DefaultTimeout).
			Msg("non-positive timeout, using default")
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

// validDomainEntries drops entries that would fail Validate, so a pasted
// URL in the environment cannot poison the whole policy.
func validDomainEntries(key string, entries []string) []string {
	logger := log.WithComponent("config")
	var out []string
	for _, entry := range entries {
		if err := validateDomainEntry(entry); err != nil {
			logger.Warn().
				Str("key", key).
				Str("entry", entry).
				Err(err).
				Msg("dropping invalid domain entry")
			continue
		}
		out = append(out, entry)
	}
	return out
}

func parseCSV(key string, defaultValue []string) []string {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	logger.Debug().
		Str("key", key).
		Strs("value", out).
		Str("source", "environment").
		Msg("using environment variable")
	return out
}

func parseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Bool("default", defaultValue).
			Msg("invalid boolean, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Bool("value", b).
		Str("source", "environment").
		Msg("using environment variable")
	return b
}

func parseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Int("value", i).
		Str("source", "environment").
		Msg("using environment variable")
	return i
}

func parseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Dur("default", defaultValue).
			Msg("invalid duration, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Dur("value", d).
		Str("source", "environment").
		Msg("using environment variable")
	return d
}
