package tasks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"forwardbot/internal/config"
	"forwardbot/internal/database"
)

func TestFormatReport(t *testing.T) {
	t.Parallel()

	t.Run("empty period", func(t *testing.T) {
		t.Parallel()
		got := formatReport(7, nil)
		if !strings.Contains(got, "7-day forwarding report") {
			t.Errorf("report missing header: %q", got)
		}
		if !strings.Contains(got, "No forwards recorded") {
			t.Errorf("report missing empty notice: %q", got)
		}
	})

	t.Run("with rows", func(t *testing.T) {
		t.Parallel()
		rows := []database.ReportRow{
			{ContentType: "text", Total: 8, Success: 6},
			{ContentType: "photo", Total: 2, Success: 2},
		}
		got := formatReport(3, rows)

		for _, want := range []string{
			"3-day forwarding report",
			"- messages: 10",
			"- forwarded: 8",
			"- success rate: 80.0%",
			"- text: 6/8 (75.0%)",
			"- photo: 2/2 (100.0%)",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("report missing %q:\n%s", want, got)
			}
		}
	})
}

func TestReportRecipients(t *testing.T) {
	t.Parallel()

	deps := TaskDeps{Config: &config.Config{
		Telegram:      config.TelegramConfig{AdminIDs: []int64{1, 2}},
		Notifications: config.NotificationsConfig{ReportChatID: -100},
	}}
	got := reportRecipients(deps)
	if len(got) != 1 || got[0] != -100 {
		t.Errorf("recipients = %v, want report chat only", got)
	}

	deps.Config.Notifications.ReportChatID = 0
	got = reportRecipients(deps)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("recipients = %v, want seed admins", got)
	}
}

func TestPruneBackups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	names := []string{
		"forward_bot_20250101_040000.db",
		"forward_bot_20250102_040000.db",
		"forward_bot_20250103_040000.db",
		"forward_bot_20250104_040000.db",
		"unrelated.txt",
		"forward_bot_notes.db.bak",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if err := pruneBackups(dir, 2); err != nil {
		t.Fatalf("pruneBackups: %v", err)
	}

	for _, gone := range names[:2] {
		if _, err := os.Stat(filepath.Join(dir, gone)); !os.IsNotExist(err) {
			t.Errorf("old backup %s still present", gone)
		}
	}
	for _, kept := range []string{names[2], names[3], "unrelated.txt", "forward_bot_notes.db.bak"} {
		if _, err := os.Stat(filepath.Join(dir, kept)); err != nil {
			t.Errorf("expected %s to survive pruning: %v", kept, err)
		}
	}
}

func TestPruneBackupsUnderRetention(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	name := "forward_bot_20250101_040000.db"
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
		t.Fatalf("write backup: %v", err)
	}

	if err := pruneBackups(dir, 7); err != nil {
		t.Fatalf("pruneBackups: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Errorf("backup removed while under retention: %v", err)
	}
}
