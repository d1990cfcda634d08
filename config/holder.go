// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ManuGH/urlguard/internal/log"
)

// Holder publishes a SecurityConfig with atomic whole-value replacement.
// Concurrent validators read through Get and never observe a half-updated
// allowlist/blocklist pair: a reload either swaps in a fully validated new
// value or keeps the old one.
type Holder struct {
	mu         sync.RWMutex
	current    SecurityConfig
	configPath string
	watcher    *fsnotify.Watcher
	logger     zerolog.Logger
}

// NewHolder creates a holder seeded with an initial policy. configPath may
// be empty when the policy comes from ENV or code only; Watch is then a
// no-op.
func NewHolder(initial SecurityConfig, configPath string) *Holder {
	return &Holder{
		current:    initial,
		configPath: configPath,
		logger:     log.WithComponent("config"),
	}
}

// Get returns the current policy value.
func (h *Holder) Get() SecurityConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Swap validates and publishes a new policy value, returning the previous
// one. The old value stays published if validation fails.
func (h *Holder) Swap(next SecurityConfig) (SecurityConfig, error) {
	if err := Validate(next); err != nil {
		return SecurityConfig{}, fmt.Errorf("validate config: %w", err)
	}
	h.mu.Lock()
	old := h.current
	h.current = next
	h.mu.Unlock()
	return old, nil
}

// Reload re-reads the policy file and publishes it. On any load or
// validation failure the previous policy stays in effect.
func (h *Holder) Reload(_ context.Context) error {
	if h.configPath == "" {
		return fmt.Errorf("no config file to reload")
	}

	newCfg, err := LoadFile(h.configPath)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("failed to load new configuration")
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := h.Swap(newCfg); err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "config.validation_failed").
			Msg("new configuration failed validation")
		return err
	}

	h.logger.Info().
		Str("event", "config.reload_success").
		Int("allowed_domains", len(newCfg.AllowedDomains)).
		Int("blocked_domains", len(newCfg.BlockedDomains)).
		Msg("configuration reloaded")
	return nil
}

// Watch starts watching the policy file for changes. If configPath is
// empty this is a no-op.
func (h *Holder) Watch(ctx context.Context) error {
	if h.configPath == "" {
		h.logger.Info().
			Str("event", "config.watcher_disabled").
			Msg("config file watcher disabled")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	if err := watcher.Add(h.configPath); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config file: %w", err)
	}

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", h.configPath).
		Msg("watching config file for changes")

	go h.watchLoop(ctx)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context) {
	// Debounce to avoid multiple reloads for rapid file changes.
	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			_ = h.watcher.Close()
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			// Write and Create cover vim, nano and plain writes.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					if err := h.Reload(ctx); err != nil {
						h.logger.Error().
							Err(err).
							Str("event", "config.auto_reload_failed").
							Msg("automatic config reload failed")
					}
				})
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str("event", "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Stop closes the watcher if one is running.
func (h *Holder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}
