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

// NewAddAdminHandler returns a handler for the /add_admin command.
func NewAddAdminHandler(deps HandlerDeps) bot.HandlerFunc {
	return adminHandler{deps}.HandleAdd
}

// NewListAdminsHandler returns a handler for the /list_admins command.
func NewListAdminsHandler(deps HandlerDeps) bot.HandlerFunc {
	return adminHandler{deps}.HandleList
}

type adminHandler struct {
	deps HandlerDeps
}

func (h adminHandler) HandleAdd(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "add_admin")

	args := commandArgs(update)
	if len(args) == 0 {
		reply(ctx, h.deps, b, update, "Please provide a user ID.\nUsage: /add_admin 123456789")
		return
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || userID <= 0 {
		reply(ctx, h.deps, b, update, "Invalid user ID.")
		return
	}

	if h.deps.Config.IsSeedAdmin(userID) {
		reply(ctx, h.deps, b, update, "That user is already an admin.")
		return
	}

	added, err := h.deps.Store.AddAdmin(ctx, &database.Admin{UserID: userID})
	if err != nil {
		log.ErrorContext(ctx, "Failed to add admin", "user_id", userID, "error", err)
		reply(ctx, h.deps, b, update, "Failed to save the admin. Please try again later.")
		return
	}
	if !added {
		reply(ctx, h.deps, b, update, "That user is already an admin.")
		return
	}

	log.InfoContext(ctx, "Admin registered", "user_id", userID)
	reply(ctx, h.deps, b, update, fmt.Sprintf("Added admin %d.", userID))
}

func (h adminHandler) HandleList(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "list_admins")

	admins, err := h.deps.Store.ListAdmins(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list admins", "error", err)
		reply(ctx, h.deps, b, update, "Failed to list admins. Please try again later.")
		return
	}

	if len(admins) == 0 && len(h.deps.Config.Telegram.AdminIDs) == 0 {
		reply(ctx, h.deps, b, update, "No admins configured.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Admins:\n\n")
	n := 0
	for _, id := range h.deps.Config.Telegram.AdminIDs {
		n++
		fmt.Fprintf(&sb, "%d. %d (config)\n", n, id)
	}
	for _, admin := range admins {
		n++
		if admin.Username != "" {
			fmt.Fprintf(&sb, "%d. %d (@%s)\n", n, admin.UserID, admin.Username)
		} else {
			fmt.Fprintf(&sb, "%d. %d\n", n, admin.UserID)
		}
	}

	reply(ctx, h.deps, b, update, sb.String())
}
