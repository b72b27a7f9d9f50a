package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStatsHandler returns a handler for the /stats command. It reports today's
// forward counts per content type and the overall success rate, both read from
// the forward log.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")
	if update.Message == nil {
		return
	}

	stats, err := h.deps.Store.TodayStats(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load today's stats", "error", err)
		reply(ctx, h.deps, b, update, "Failed to load statistics. Please try again later.")
		return
	}

	total, success, err := h.deps.Store.TodaySuccessRate(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load today's success rate", "error", err)
		reply(ctx, h.deps, b, update, "Failed to load statistics. Please try again later.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Forwarding statistics\n\n")

	if len(stats) == 0 {
		sb.WriteString("No forwards recorded today.")
	} else {
		sb.WriteString("Today by content type:\n")
		for _, row := range stats {
			suffix := ""
			if row.IsMediaGroup {
				suffix = " (media group)"
			}
			fmt.Fprintf(&sb, "- %s%s: %d\n", row.ContentType, suffix, row.Count)
		}
	}

	if total > 0 {
		rate := float64(success) / float64(total) * 100
		fmt.Fprintf(&sb, "\nSuccess rate today: %.1f%% (%d/%d)", rate, success, total)
	}

	reply(ctx, h.deps, b, update, sb.String())
}
