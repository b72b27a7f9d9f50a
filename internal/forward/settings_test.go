package forward

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"forwardbot/internal/config"
	"forwardbot/internal/database"

	_ "modernc.org/sqlite"
)

func newSettingsStore(t *testing.T) database.Store {
	t.Helper()

	db, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := database.ApplyMigrations(db.DB, ":memory:"); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	return database.NewStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func settingsConfig() *config.Config {
	return &config.Config{
		Forward: config.ForwardConfig{
			Delay:          2 * time.Second,
			AddSourceInfo:  true,
			PreserveSender: true,
		},
	}
}

func TestLoadSettingsUsesConfigDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := LoadSettings(ctx, settingsConfig(), newSettingsStore(t), nil)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	if s.Delay() != 2*time.Second {
		t.Errorf("Delay = %v, want 2s", s.Delay())
	}
	if !s.AddSourceInfo() {
		t.Error("AddSourceInfo = false, want true")
	}
	if !s.PreserveSender() {
		t.Error("PreserveSender = false, want true")
	}
}

func TestLoadSettingsPersistedValuesOverrideConfig(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newSettingsStore(t)

	if err := store.SetSetting(ctx, "forward.delay_seconds", "7"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := store.SetSetting(ctx, "forward.add_source_info", "false"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	s, err := LoadSettings(ctx, settingsConfig(), store, nil)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	if s.Delay() != 7*time.Second {
		t.Errorf("Delay = %v, want 7s", s.Delay())
	}
	if s.AddSourceInfo() {
		t.Error("AddSourceInfo = true, want persisted false")
	}
}

func TestLoadSettingsIgnoresInvalidPersistedValues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newSettingsStore(t)

	if err := store.SetSetting(ctx, "forward.delay_seconds", "not-a-number"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := store.SetSetting(ctx, "forward.add_source_info", "maybe"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	s, err := LoadSettings(ctx, settingsConfig(), store, nil)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	if s.Delay() != 2*time.Second {
		t.Errorf("Delay = %v, want config fallback 2s", s.Delay())
	}
	if !s.AddSourceInfo() {
		t.Error("AddSourceInfo = false, want config fallback true")
	}
}

func TestSetDelayPersists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newSettingsStore(t)

	s, err := LoadSettings(ctx, settingsConfig(), store, nil)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	if err := s.SetDelay(ctx, 9*time.Second); err != nil {
		t.Fatalf("SetDelay: %v", err)
	}
	if s.Delay() != 9*time.Second {
		t.Errorf("Delay = %v, want 9s", s.Delay())
	}

	if err := s.SetDelay(ctx, -time.Second); err == nil {
		t.Error("SetDelay with negative delay returned nil error")
	}

	// Survives a reload.
	reloaded, err := LoadSettings(ctx, settingsConfig(), store, nil)
	if err != nil {
		t.Fatalf("LoadSettings reload: %v", err)
	}
	if reloaded.Delay() != 9*time.Second {
		t.Errorf("reloaded Delay = %v, want 9s", reloaded.Delay())
	}
}

func TestToggleSourceInfoPersists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newSettingsStore(t)

	s, err := LoadSettings(ctx, settingsConfig(), store, nil)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	enabled, err := s.ToggleSourceInfo(ctx)
	if err != nil {
		t.Fatalf("ToggleSourceInfo: %v", err)
	}
	if enabled {
		t.Error("toggle from true returned true, want false")
	}
	if s.AddSourceInfo() {
		t.Error("AddSourceInfo = true after toggling off")
	}

	reloaded, err := LoadSettings(ctx, settingsConfig(), store, nil)
	if err != nil {
		t.Fatalf("LoadSettings reload: %v", err)
	}
	if reloaded.AddSourceInfo() {
		t.Error("reloaded AddSourceInfo = true, want persisted false")
	}
}
