package handlers

import (
	"context"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// reply sends a plain-text response to the chat the update came from, logging
// send failures.
func reply(ctx context.Context, deps HandlerDeps, b *tgbot.Bot, update *models.Update, text string) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	if _, err := b.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to send reply", "chat_id", chatID, "error", err)
	}
}

// commandArgs returns the whitespace-separated arguments after the command
// itself, e.g. ["-1001234"] for "/add_source -1001234".
func commandArgs(update *models.Update) []string {
	if update.Message == nil {
		return nil
	}
	fields := strings.Fields(update.Message.Text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}
