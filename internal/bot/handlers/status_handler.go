package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"forwardbot/internal/database"
	"forwardbot/internal/text"
)

// NewStatusHandler returns a handler for the /status command. It reports
// uptime, in-memory counters, registry sizes, and the effective settings.
func NewStatusHandler(deps HandlerDeps) bot.HandlerFunc {
	return statusHandler{deps}.Handle
}

type statusHandler struct {
	deps HandlerDeps
}

func (h statusHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "status")
	if update.Message == nil {
		return
	}

	snapshot := h.deps.Forwarder.Stats().Read()
	settings := h.deps.Forwarder.Settings()

	sources, err := h.deps.Store.ListChannels(ctx, database.RoleSource)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list sources for status", "error", err)
	}
	targets, err := h.deps.Store.ListChannels(ctx, database.RoleTarget)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list targets for status", "error", err)
	}
	admins, err := h.deps.Store.ListAdmins(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list admins for status", "error", err)
	}

	var sb strings.Builder
	sb.WriteString("Bot status\n\n")
	fmt.Fprintf(&sb, "Uptime: %s\n", text.FormatDuration(snapshot.Uptime))
	fmt.Fprintf(&sb, "Messages received: %d\n", snapshot.MessagesReceived)
	fmt.Fprintf(&sb, "Messages forwarded: %d\n", snapshot.MessagesForwarded)
	fmt.Fprintf(&sb, "Media groups forwarded: %d\n", snapshot.MediaGroupsForwarded)
	fmt.Fprintf(&sb, "Failed forwards: %d\n\n", snapshot.FailedForwards)
	fmt.Fprintf(&sb, "Source channels: %d\n", len(sources))
	fmt.Fprintf(&sb, "Target channels: %d\n", len(targets))
	fmt.Fprintf(&sb, "Admins: %d\n\n", len(admins)+len(h.deps.Config.Telegram.AdminIDs))
	sb.WriteString("Settings:\n")
	fmt.Fprintf(&sb, "- forwarding delay: %s\n", settings.Delay())
	fmt.Fprintf(&sb, "- source info: %s\n", onOff(settings.AddSourceInfo()))
	fmt.Fprintf(&sb, "- preserve sender: %s\n", onOff(settings.PreserveSender()))
	fmt.Fprintf(&sb, "- media group timeout: %s", h.deps.Config.Forward.MediaGroupTimeout)

	reply(ctx, h.deps, b, update, sb.String())
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
