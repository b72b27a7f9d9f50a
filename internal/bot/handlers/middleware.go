// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const msgNotAuthorized = "You are not authorized to use this bot."

// isAdmin reports whether the user is a configured seed admin or registered in
// the admins table.
func isAdmin(ctx context.Context, deps HandlerDeps, userID int64) bool {
	if deps.Config.IsSeedAdmin(userID) {
		return true
	}
	ok, err := deps.Store.IsAdmin(ctx, userID)
	if err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to check admin registration", "user_id", userID, "error", err)
		return false
	}
	return ok
}

// AdminOnly creates a middleware that restricts a command to admins.
// When notify is true, unauthorized users get a rejection reply; otherwise the
// command is silently ignored.
func AdminOnly(deps HandlerDeps, notify bool) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				return
			}

			userID := update.Message.From.ID
			if isAdmin(ctx, deps, userID) {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			log := deps.Logger.With("middleware", "AdminOnly")
			log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", chatID)

			if !notify {
				return
			}
			if _, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
				ChatID: chatID,
				Text:   msgNotAuthorized,
			}); err != nil {
				log.ErrorContext(ctx, "Failed to send unauthorized message", "error", err, "chat_id", chatID)
			}
		}
	}
}
