// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape. Timeout is a string so operators can
// write "30s" instead of nanoseconds.
type fileConfig struct {
	AllowedDomains  []string `yaml:"allowedDomains"`
	BlockedDomains  []string `yaml:"blockedDomains"`
	AllowPrivateIPs *bool    `yaml:"allowPrivateIPs"`
	AllowLoopback   *bool    `yaml:"allowLoopback"`
	MaxRedirects    *int     `yaml:"maxRedirects"`
	Timeout         string   `yaml:"timeout"`
}

// LoadFile reads a YAML policy file and merges it over the defaults.
// Unknown keys are rejected so typos fail loudly instead of silently
// weakening the policy.
func LoadFile(path string) (SecurityConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-supplied by design
	if err != nil {
		return SecurityConfig{}, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		if strings.Contains(err.Error(), "not found in type") {
			return SecurityConfig{}, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return SecurityConfig{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	if len(fc.AllowedDomains) > 0 {
		cfg.AllowedDomains = fc.AllowedDomains
	}
	if len(fc.BlockedDomains) > 0 {
		cfg.BlockedDomains = fc.BlockedDomains
	}
	if fc.AllowPrivateIPs != nil {
		cfg.AllowPrivateIPs = *fc.AllowPrivateIPs
	}
	if fc.AllowLoopback != nil {
		cfg.AllowLoopback = *fc.AllowLoopback
	}
	if fc.MaxRedirects != nil {
		cfg.MaxRedirects = *fc.MaxRedirects
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return SecurityConfig{}, fmt.Errorf("parse timeout %q: %w", fc.Timeout, err)
		}
		cfg.Timeout = d
	}

	if err := Validate(cfg); err != nil {
		return SecurityConfig{}, err
	}
	return cfg, nil
}
