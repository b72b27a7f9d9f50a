package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewForwardHandler returns the default handler that funnels every non-command
// update into the forwarding engine. Both regular messages and channel posts
// are considered; commands that did not match a registered handler are
// ignored.
//
// It takes a pointer because the forwarder itself needs the bot instance, so
// Forwarder is attached to the shared deps after the bot is constructed but
// before it starts polling.
func NewForwardHandler(deps *HandlerDeps) bot.HandlerFunc {
	return forwardHandler{deps}.Handle
}

type forwardHandler struct {
	deps *HandlerDeps
}

func (h forwardHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil {
		return
	}

	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	if h.deps.Forwarder == nil {
		return
	}
	h.deps.Forwarder.HandleMessage(ctx, msg)
}
