package forward

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"forwardbot/internal/config"
	"forwardbot/internal/database"
)

// Settings table keys for the runtime-mutable forwarding options.
const (
	settingKeyDelay         = "forward.delay_seconds"
	settingKeyAddSourceInfo = "forward.add_source_info"
)

// Settings holds the forwarding options that can change at runtime via bot
// commands. Values are seeded from config and persisted in the settings table
// so they survive restarts.
type Settings struct {
	mu             sync.RWMutex
	delay          time.Duration
	addSourceInfo  bool
	preserveSender bool

	store  database.Store
	logger *slog.Logger
}

// LoadSettings builds runtime settings from config defaults, overridden by any
// values previously persisted in the store.
func LoadSettings(ctx context.Context, cfg *config.Config, store database.Store, logger *slog.Logger) (*Settings, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Settings{
		delay:          cfg.Forward.Delay,
		addSourceInfo:  cfg.Forward.AddSourceInfo,
		preserveSender: cfg.Forward.PreserveSender,
		store:          store,
		logger:         logger.With("component", "forward_settings"),
	}

	if raw, ok, err := store.GetSetting(ctx, settingKeyDelay); err != nil {
		return nil, fmt.Errorf("failed to load persisted delay: %w", err)
	} else if ok {
		seconds, parseErr := strconv.Atoi(raw)
		if parseErr != nil || seconds < 0 {
			s.logger.WarnContext(ctx, "Ignoring invalid persisted delay", "value", raw)
		} else {
			s.delay = time.Duration(seconds) * time.Second
		}
	}

	if raw, ok, err := store.GetSetting(ctx, settingKeyAddSourceInfo); err != nil {
		return nil, fmt.Errorf("failed to load persisted source info flag: %w", err)
	} else if ok {
		enabled, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			s.logger.WarnContext(ctx, "Ignoring invalid persisted source info flag", "value", raw)
		} else {
			s.addSourceInfo = enabled
		}
	}

	s.logger.InfoContext(ctx, "Forward settings loaded",
		"delay", s.delay, "add_source_info", s.addSourceInfo, "preserve_sender", s.preserveSender)
	return s, nil
}

// Delay returns the current forwarding delay.
func (s *Settings) Delay() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.delay
}

// AddSourceInfo reports whether forwarded messages get a source caption.
func (s *Settings) AddSourceInfo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addSourceInfo
}

// PreserveSender reports whether the source caption includes the sender name.
func (s *Settings) PreserveSender() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preserveSender
}

// SetDelay updates and persists the forwarding delay. Negative delays are
// rejected.
func (s *Settings) SetDelay(ctx context.Context, delay time.Duration) error {
	if delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}

	seconds := int(delay / time.Second)
	if err := s.store.SetSetting(ctx, settingKeyDelay, strconv.Itoa(seconds)); err != nil {
		return err
	}

	s.mu.Lock()
	s.delay = delay
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Forward delay updated", "delay", delay)
	return nil
}

// ToggleSourceInfo flips and persists the source caption flag, returning the
// new value.
func (s *Settings) ToggleSourceInfo(ctx context.Context) (bool, error) {
	s.mu.Lock()
	next := !s.addSourceInfo
	s.mu.Unlock()

	if err := s.store.SetSetting(ctx, settingKeyAddSourceInfo, strconv.FormatBool(next)); err != nil {
		return false, err
	}

	s.mu.Lock()
	s.addSourceInfo = next
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Source info flag updated", "add_source_info", next)
	return next, nil
}
