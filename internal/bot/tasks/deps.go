// Package tasks implements scheduled background tasks for the forwarding bot:
// database maintenance, periodic reports, and backups.
package tasks

import (
	"log/slog"

	tgbot "github.com/go-telegram/bot"

	"forwardbot/internal/config"
	"forwardbot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
	TG     *tgbot.Bot
}
