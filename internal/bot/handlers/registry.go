package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"forwardbot/internal/database"
)

// RegisteredHandler represents a command handler with its pattern and middleware.
// It encapsulates all information needed to register a command.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all available bot commands.
// Every command is admin-gated; /start and /help reply to unauthorized users,
// the management commands are silently ignored for them.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	noisyAdmin := []tgbot.Middleware{AdminOnly(deps, true)}
	quietAdmin := []tgbot.Middleware{AdminOnly(deps, false)}

	command := func(pattern string, handler tgbot.HandlerFunc, mw []tgbot.Middleware) RegisteredHandler {
		return RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     pattern,
			Handler:     handler,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  mw,
		}
	}

	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = command("start", NewStartHandler(deps), noisyAdmin)
	handlers["/help"] = command("help", NewHelpHandler(deps), noisyAdmin)
	handlers["/status"] = command("status", NewStatusHandler(deps), quietAdmin)
	handlers["/stats"] = command("stats", NewStatsHandler(deps), quietAdmin)

	handlers["/add_source"] = command("add_source", NewAddChannelHandler(deps, database.RoleSource), quietAdmin)
	handlers["/add_target"] = command("add_target", NewAddChannelHandler(deps, database.RoleTarget), quietAdmin)
	handlers["/remove_source"] = command("remove_source", NewRemoveChannelHandler(deps, database.RoleSource), quietAdmin)
	handlers["/remove_target"] = command("remove_target", NewRemoveChannelHandler(deps, database.RoleTarget), quietAdmin)
	handlers["/list_sources"] = command("list_sources", NewListChannelsHandler(deps, database.RoleSource), quietAdmin)
	handlers["/list_targets"] = command("list_targets", NewListChannelsHandler(deps, database.RoleTarget), quietAdmin)

	handlers["/add_admin"] = command("add_admin", NewAddAdminHandler(deps), quietAdmin)
	handlers["/list_admins"] = command("list_admins", NewListAdminsHandler(deps), quietAdmin)

	handlers["/settings"] = command("settings", NewSettingsHandler(deps), quietAdmin)
	handlers["/set_delay"] = command("set_delay", NewSetDelayHandler(deps), quietAdmin)
	handlers["/toggle_source_info"] = command("toggle_source_info", NewToggleSourceInfoHandler(deps), quietAdmin)

	return handlers
}
