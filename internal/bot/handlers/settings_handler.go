package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"forwardbot/internal/text"
)

// NewSettingsHandler returns a handler for the /settings command.
func NewSettingsHandler(deps HandlerDeps) bot.HandlerFunc {
	return settingsHandler{deps}.HandleShow
}

// NewSetDelayHandler returns a handler for the /set_delay command.
func NewSetDelayHandler(deps HandlerDeps) bot.HandlerFunc {
	return settingsHandler{deps}.HandleSetDelay
}

// NewToggleSourceInfoHandler returns a handler for the /toggle_source_info command.
func NewToggleSourceInfoHandler(deps HandlerDeps) bot.HandlerFunc {
	return settingsHandler{deps}.HandleToggleSourceInfo
}

type settingsHandler struct {
	deps HandlerDeps
}

func (h settingsHandler) HandleShow(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	settings := h.deps.Forwarder.Settings()
	fwd := h.deps.Config.Forward
	notif := h.deps.Config.Notifications

	listOrNone := func(items []string) string {
		if len(items) == 0 {
			return "none"
		}
		return strings.Join(items, ", ")
	}

	var sb strings.Builder
	sb.WriteString("Current settings\n\n")
	fmt.Fprintf(&sb, "Forwarding delay: %s\n", settings.Delay())
	fmt.Fprintf(&sb, "Source info caption: %s\n", onOff(settings.AddSourceInfo()))
	fmt.Fprintf(&sb, "Preserve sender: %s\n", onOff(settings.PreserveSender()))
	fmt.Fprintf(&sb, "Filtered content types: %s\n", listOrNone(fwd.FilterContentTypes))
	fmt.Fprintf(&sb, "Keyword filter: %s\n", listOrNone(fwd.KeywordFilter))
	fmt.Fprintf(&sb, "Max document size: %s\n", text.FormatFileSize(fwd.MaxFileSizeMB*1024*1024))
	fmt.Fprintf(&sb, "Max forwards per minute: %d\n", fwd.MaxPerMinute)
	fmt.Fprintf(&sb, "Media group timeout: %s\n\n", fwd.MediaGroupTimeout)
	sb.WriteString("Notifications:\n")
	fmt.Fprintf(&sb, "- error notifications: %s\n", onOff(notif.NotifyAdminOnError))
	fmt.Fprintf(&sb, "- daily report: %s", onOff(notif.DailyReport))

	reply(ctx, h.deps, b, update, sb.String())
}

func (h settingsHandler) HandleSetDelay(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "set_delay")

	args := commandArgs(update)
	if len(args) == 0 {
		reply(ctx, h.deps, b, update, "Please provide a delay in seconds.\nUsage: /set_delay 5")
		return
	}

	seconds, err := strconv.Atoi(args[0])
	if err != nil {
		reply(ctx, h.deps, b, update, "Invalid number.")
		return
	}
	if seconds < 0 {
		reply(ctx, h.deps, b, update, "Delay cannot be negative.")
		return
	}

	if err := h.deps.Forwarder.Settings().SetDelay(ctx, time.Duration(seconds)*time.Second); err != nil {
		log.ErrorContext(ctx, "Failed to set delay", "seconds", seconds, "error", err)
		reply(ctx, h.deps, b, update, "Failed to save the delay. Please try again later.")
		return
	}

	reply(ctx, h.deps, b, update, fmt.Sprintf("Forwarding delay set to %d seconds.", seconds))
}

func (h settingsHandler) HandleToggleSourceInfo(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "toggle_source_info")

	enabled, err := h.deps.Forwarder.Settings().ToggleSourceInfo(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to toggle source info", "error", err)
		reply(ctx, h.deps, b, update, "Failed to save the setting. Please try again later.")
		return
	}

	reply(ctx, h.deps, b, update, fmt.Sprintf("Source info caption is now %s.", onOff(enabled)))
}
