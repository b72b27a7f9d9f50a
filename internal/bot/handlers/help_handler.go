package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const helpText = `Commands

Basics:
/start - overview
/help - this message
/status - uptime, counters, and settings
/stats - today's forwarding statistics

Routing:
/add_source <chat_id> - register a source channel/group
/add_target <chat_id> - register a target channel/group
/remove_source <chat_id> - deregister a source
/remove_target <chat_id> - deregister a target
/list_sources - list registered sources
/list_targets - list registered targets

Administration:
/add_admin <user_id> - register another admin
/list_admins - list admins

Settings:
/settings - show effective settings
/set_delay <seconds> - set the forwarding delay
/toggle_source_info - toggle the source caption

Finding a chat ID: add the bot to the channel/group, post any message, and read the chat_id from the bot's log output.

Media albums are detected automatically and forwarded as one group in the original order.`

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.deps.Logger.DebugContext(ctx, "Handling /help command", "chat_id", update.Message.Chat.ID)
	reply(ctx, h.deps, b, update, helpText)
}
