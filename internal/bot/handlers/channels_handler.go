package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"forwardbot/internal/database"
)

func roleNoun(role database.ChannelRole) string {
	if role == database.RoleSource {
		return "source"
	}
	return "target"
}

// NewAddChannelHandler returns a handler for /add_source or /add_target.
// The chat title and type are recorded via getChat when the chat is reachable.
func NewAddChannelHandler(deps HandlerDeps, role database.ChannelRole) bot.HandlerFunc {
	return channelHandler{deps, role}.HandleAdd
}

// NewRemoveChannelHandler returns a handler for /remove_source or /remove_target.
func NewRemoveChannelHandler(deps HandlerDeps, role database.ChannelRole) bot.HandlerFunc {
	return channelHandler{deps, role}.HandleRemove
}

// NewListChannelsHandler returns a handler for /list_sources or /list_targets.
func NewListChannelsHandler(deps HandlerDeps, role database.ChannelRole) bot.HandlerFunc {
	return channelHandler{deps, role}.HandleList
}

type channelHandler struct {
	deps HandlerDeps
	role database.ChannelRole
}

func (h channelHandler) parseChatID(ctx context.Context, b *bot.Bot, update *models.Update, usage string) (int64, bool) {
	args := commandArgs(update)
	if len(args) == 0 {
		reply(ctx, h.deps, b, update, "Please provide a chat ID.\nUsage: "+usage)
		return 0, false
	}
	chatID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || chatID == 0 {
		reply(ctx, h.deps, b, update, "Invalid chat ID.")
		return 0, false
	}
	return chatID, true
}

func (h channelHandler) HandleAdd(ctx context.Context, b *bot.Bot, update *models.Update) {
	noun := roleNoun(h.role)
	log := h.deps.Logger.With("handler", "add_"+noun)

	chatID, ok := h.parseChatID(ctx, b, update, fmt.Sprintf("/add_%s -1001234567890", noun))
	if !ok {
		return
	}

	channel := &database.Channel{ID: chatID}

	// Best effort: record title and type if the bot can see the chat.
	if info, err := b.GetChat(ctx, &bot.GetChatParams{ChatID: chatID}); err != nil {
		log.WarnContext(ctx, "Could not fetch chat info", "chat_id", chatID, "error", err)
	} else {
		channel.Title = info.Title
		channel.Type = string(info.Type)
	}

	added, err := h.deps.Store.AddChannel(ctx, h.role, channel)
	if err != nil {
		log.ErrorContext(ctx, "Failed to add channel", "chat_id", chatID, "error", err)
		reply(ctx, h.deps, b, update, "Failed to save the channel. Please try again later.")
		return
	}
	if !added {
		reply(ctx, h.deps, b, update, fmt.Sprintf("Chat %d is already in the %s list.", chatID, noun))
		return
	}

	log.InfoContext(ctx, "Channel registered", "chat_id", chatID, "role", h.role)
	reply(ctx, h.deps, b, update, fmt.Sprintf("Added %s channel %d.", noun, chatID))
}

func (h channelHandler) HandleRemove(ctx context.Context, b *bot.Bot, update *models.Update) {
	noun := roleNoun(h.role)
	log := h.deps.Logger.With("handler", "remove_"+noun)

	chatID, ok := h.parseChatID(ctx, b, update, fmt.Sprintf("/remove_%s -1001234567890", noun))
	if !ok {
		return
	}

	removed, err := h.deps.Store.RemoveChannel(ctx, h.role, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to remove channel", "chat_id", chatID, "error", err)
		reply(ctx, h.deps, b, update, "Failed to remove the channel. Please try again later.")
		return
	}
	if !removed {
		reply(ctx, h.deps, b, update, fmt.Sprintf("Chat %d is not in the %s list.", chatID, noun))
		return
	}

	log.InfoContext(ctx, "Channel deregistered", "chat_id", chatID, "role", h.role)
	reply(ctx, h.deps, b, update, fmt.Sprintf("Removed %s channel %d.", noun, chatID))
}

func (h channelHandler) HandleList(ctx context.Context, b *bot.Bot, update *models.Update) {
	noun := roleNoun(h.role)
	log := h.deps.Logger.With("handler", "list_"+noun+"s")

	channels, err := h.deps.Store.ListChannels(ctx, h.role)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list channels", "error", err)
		reply(ctx, h.deps, b, update, "Failed to list channels. Please try again later.")
		return
	}

	if len(channels) == 0 {
		reply(ctx, h.deps, b, update, fmt.Sprintf("No %s channels configured.", noun))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s channels:\n\n", strings.ToUpper(noun[:1])+noun[1:])
	for i, ch := range channels {
		if ch.Title != "" {
			fmt.Fprintf(&sb, "%d. %d (%s)\n", i+1, ch.ID, ch.Title)
		} else {
			fmt.Fprintf(&sb, "%d. %d\n", i+1, ch.ID)
		}
	}

	reply(ctx, h.deps, b, update, sb.String())
}
