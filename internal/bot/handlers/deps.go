package handlers

import (
	"log/slog"

	"forwardbot/internal/config"
	"forwardbot/internal/database"
	"forwardbot/internal/forward"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Forwarder *forward.Forwarder
}
