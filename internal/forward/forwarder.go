// Package forward implements the message forwarding engine: media group
// buffering, filtering, rate limiting, delivery to target chats, and
// forward-log persistence.
package forward

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"forwardbot/internal/config"
	"forwardbot/internal/database"
)

// ContentType classifies a message the way the forward log records it.
func ContentType(msg *models.Message) string {
	switch {
	case msg == nil:
		return "other"
	case msg.Text != "":
		return "text"
	case len(msg.Photo) > 0:
		return "photo"
	case msg.Video != nil:
		return "video"
	case msg.Document != nil:
		return "document"
	case msg.Audio != nil:
		return "audio"
	case msg.Voice != nil:
		return "voice"
	case msg.Sticker != nil:
		return "sticker"
	case msg.Animation != nil:
		return "animation"
	case msg.Location != nil:
		return "location"
	case msg.Poll != nil:
		return "poll"
	default:
		return "other"
	}
}

// Forwarder copies messages from registered source chats to every registered
// target chat.
type Forwarder struct {
	logger   *slog.Logger
	tg       *tgbot.Bot
	store    database.Store
	cfg      *config.Config
	settings *Settings
	filter   *Filter
	limiter  *RateLimiter
	stats    *Stats
	buffer   *MediaGroupBuffer
}

// shutdownFlushTimeout bounds delivery of albums drained during shutdown,
// after the application context is already cancelled.
const shutdownFlushTimeout = 10 * time.Second

// NewForwarder wires the forwarding engine together. ctx is the application
// lifetime context; buffered media groups flushed after the originating update
// are delivered under it. Groups drained by Shutdown get a short detached
// context instead, so cancellation does not drop them.
func NewForwarder(
	ctx context.Context,
	logger *slog.Logger,
	tg *tgbot.Bot,
	store database.Store,
	cfg *config.Config,
	settings *Settings,
) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Forwarder{
		logger:   logger.With("component", "forwarder"),
		tg:       tg,
		store:    store,
		cfg:      cfg,
		settings: settings,
		filter:   NewFilter(cfg.Forward),
		limiter:  NewRateLimiter(cfg.Forward.MaxPerMinute),
		stats:    NewStats(),
	}
	f.buffer = NewMediaGroupBuffer(cfg.Forward.MediaGroupTimeout, func(messages []*models.Message) {
		flushCtx := ctx
		if ctx.Err() != nil {
			var cancel context.CancelFunc
			flushCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
			defer cancel()
		}
		f.Deliver(flushCtx, messages)
	}, f.logger)
	return f
}

// Stats exposes the in-memory counters for the status command.
func (f *Forwarder) Stats() *Stats {
	return f.stats
}

// Settings exposes the runtime settings for the settings commands.
func (f *Forwarder) Settings() *Settings {
	return f.settings
}

// Shutdown flushes any buffered media groups, delivering them even when the
// application context has already been cancelled.
func (f *Forwarder) Shutdown() {
	f.buffer.Stop()
}

// HandleMessage is the entry point for non-command updates. Messages from
// unregistered chats are ignored; the rest are filtered and queued for
// delivery.
func (f *Forwarder) HandleMessage(ctx context.Context, msg *models.Message) {
	if msg == nil {
		return
	}

	isSource, err := f.store.IsChannel(ctx, database.RoleSource, msg.Chat.ID)
	if err != nil {
		f.logger.ErrorContext(ctx, "Failed to check source registration", "chat_id", msg.Chat.ID, "error", err)
		return
	}
	if !isSource {
		return
	}

	f.stats.AddReceived()

	contentType := ContentType(msg)
	if !f.filter.ShouldForward(msg, contentType) {
		f.logger.InfoContext(ctx, "Message filtered", "chat_id", msg.Chat.ID,
			"message_id", msg.ID, "content_type", contentType)
		return
	}

	f.buffer.Add(msg)
}

// Deliver forwards a flushed batch (single message or complete media group)
// to every target chat, honoring the configured delay.
func (f *Forwarder) Deliver(ctx context.Context, messages []*models.Message) {
	if len(messages) == 0 {
		return
	}

	if delay := f.settings.Delay(); delay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	targets, err := f.store.ListChannels(ctx, database.RoleTarget)
	if err != nil {
		f.logger.ErrorContext(ctx, "Failed to list target channels", "error", err)
		return
	}
	if len(targets) == 0 {
		f.logger.DebugContext(ctx, "No target channels configured, dropping batch",
			"source_chat_id", messages[0].Chat.ID, "count", len(messages))
		return
	}

	if len(messages) > 1 && messages[0].MediaGroupID != "" {
		f.forwardMediaGroup(ctx, messages, targets)
	} else {
		f.forwardSingle(ctx, messages[0], targets)
	}
}

// forwardSingle copies one message to every target via copyMessage, so the
// result carries no "forwarded from" header.
func (f *Forwarder) forwardSingle(ctx context.Context, msg *models.Message, targets []database.Channel) {
	contentType := ContentType(msg)

	var caption string
	if f.settings.AddSourceInfo() {
		caption = f.buildCaption(msg)
	}

	for _, target := range targets {
		if err := f.limiter.Wait(ctx); err != nil {
			f.logger.WarnContext(ctx, "Rate limiter wait aborted", "error", err)
			return
		}

		copied, err := f.tg.CopyMessage(ctx, &tgbot.CopyMessageParams{
			ChatID:     target.ID,
			FromChatID: msg.Chat.ID,
			MessageID:  msg.ID,
			Caption:    caption,
		})
		if err != nil {
			f.recordFailure(ctx, msg, target.ID, contentType, false, err)
			continue
		}

		f.recordSuccess(ctx, msg, target.ID, copied.ID, contentType, false)
		f.stats.AddForwarded(1)
		f.logger.InfoContext(ctx, "Message forwarded",
			"source_chat_id", msg.Chat.ID, "target_chat_id", target.ID, "message_id", msg.ID)
	}
}

// forwardMediaGroup re-sends a complete album to every target as one
// sendMediaGroup call, attaching the source caption to the first item only.
func (f *Forwarder) forwardMediaGroup(ctx context.Context, messages []*models.Message, targets []database.Channel) {
	var caption string
	if f.settings.AddSourceInfo() {
		caption = f.buildCaption(messages[0])
	}

	media := make([]models.InputMedia, 0, len(messages))
	members := make([]*models.Message, 0, len(messages))
	for i, msg := range messages {
		itemCaption := msg.Caption
		if i == 0 && caption != "" {
			itemCaption = caption
		}
		item := inputMedia(msg, itemCaption)
		if item == nil {
			f.logger.WarnContext(ctx, "Skipping unsupported media group member",
				"media_group_id", msg.MediaGroupID, "content_type", ContentType(msg))
			continue
		}
		media = append(media, item)
		members = append(members, msg)
	}
	if len(media) == 0 {
		return
	}

	for _, target := range targets {
		if err := f.limiter.Wait(ctx); err != nil {
			f.logger.WarnContext(ctx, "Rate limiter wait aborted", "error", err)
			return
		}

		sent, err := f.tg.SendMediaGroup(ctx, &tgbot.SendMediaGroupParams{
			ChatID: target.ID,
			Media:  media,
		})
		if err != nil {
			for _, msg := range members {
				f.recordFailure(ctx, msg, target.ID, ContentType(msg), true, err)
			}
			continue
		}

		for i, msg := range members {
			forwardedID := 0
			if i < len(sent) && sent[i] != nil {
				forwardedID = sent[i].ID
			}
			f.recordSuccess(ctx, msg, target.ID, forwardedID, ContentType(msg), true)
		}
		f.stats.AddForwarded(int64(len(members)))
		f.stats.AddMediaGroup()
		f.logger.InfoContext(ctx, "Media group forwarded",
			"source_chat_id", members[0].Chat.ID, "target_chat_id", target.ID, "count", len(members))
	}
}

// inputMedia maps a message to the InputMedia variant sendMediaGroup accepts,
// or nil for unsupported types.
func inputMedia(msg *models.Message, caption string) models.InputMedia {
	switch {
	case len(msg.Photo) > 0:
		// Last entry is the highest resolution.
		return &models.InputMediaPhoto{Media: msg.Photo[len(msg.Photo)-1].FileID, Caption: caption}
	case msg.Video != nil:
		return &models.InputMediaVideo{Media: msg.Video.FileID, Caption: caption}
	case msg.Document != nil:
		return &models.InputMediaDocument{Media: msg.Document.FileID, Caption: caption}
	case msg.Audio != nil:
		return &models.InputMediaAudio{Media: msg.Audio.FileID, Caption: caption}
	default:
		return nil
	}
}

// buildCaption appends plain-text source information to the original caption.
func (f *Forwarder) buildCaption(msg *models.Message) string {
	caption := msg.Caption

	chatTitle := msg.Chat.Title
	if chatTitle == "" {
		chatTitle = fmt.Sprintf("%d", msg.Chat.ID)
	}

	info := fmt.Sprintf("\n\nFrom: %s", chatTitle)
	if f.settings.PreserveSender() && msg.From != nil {
		sender := msg.From.FirstName
		if msg.From.LastName != "" {
			sender += " " + msg.From.LastName
		}
		if sender != "" {
			info += fmt.Sprintf("\nSender: %s", sender)
		}
	}
	info += fmt.Sprintf("\nTime: %s", time.Unix(int64(msg.Date), 0).UTC().Format("2006-01-02 15:04:05"))

	return caption + info
}

func (f *Forwarder) recordSuccess(ctx context.Context, msg *models.Message, targetID int64, forwardedID int, contentType string, isGroup bool) {
	entry := &database.ForwardLog{
		SourceChatID:      msg.Chat.ID,
		TargetChatID:      targetID,
		OriginalMessageID: msg.ID,
		ContentType:       contentType,
		IsMediaGroup:      isGroup,
		Success:           true,
	}
	if forwardedID != 0 {
		entry.ForwardedMessageID = sql.NullInt64{Int64: int64(forwardedID), Valid: true}
	}
	if msg.MediaGroupID != "" {
		entry.MediaGroupID = sql.NullString{String: msg.MediaGroupID, Valid: true}
	}
	if err := f.store.SaveForwardLog(ctx, entry); err != nil {
		f.logger.ErrorContext(ctx, "Failed to record forward success", "error", err)
	}
}

func (f *Forwarder) recordFailure(ctx context.Context, msg *models.Message, targetID int64, contentType string, isGroup bool, sendErr error) {
	f.stats.AddFailed(1)
	f.logger.ErrorContext(ctx, "Forward failed",
		"source_chat_id", msg.Chat.ID, "target_chat_id", targetID,
		"message_id", msg.ID, "error", sendErr)

	entry := &database.ForwardLog{
		SourceChatID:      msg.Chat.ID,
		TargetChatID:      targetID,
		OriginalMessageID: msg.ID,
		ContentType:       contentType,
		IsMediaGroup:      isGroup,
		Success:           false,
		ErrorMessage:      sql.NullString{String: sendErr.Error(), Valid: true},
	}
	if msg.MediaGroupID != "" {
		entry.MediaGroupID = sql.NullString{String: msg.MediaGroupID, Valid: true}
	}
	if err := f.store.SaveForwardLog(ctx, entry); err != nil {
		f.logger.ErrorContext(ctx, "Failed to record forward failure", "error", err)
	}

	if f.cfg.Notifications.NotifyAdminOnError {
		f.notifyAdmins(ctx, msg, targetID, sendErr)
	}
}

// notifyAdmins sends a plain-text failure notice to every known admin.
func (f *Forwarder) notifyAdmins(ctx context.Context, msg *models.Message, targetID int64, sendErr error) {
	chatTitle := msg.Chat.Title
	if chatTitle == "" {
		chatTitle = fmt.Sprintf("%d", msg.Chat.ID)
	}

	notice := fmt.Sprintf(
		"Forward failed\n\nSource: %s\nTarget: %d\nError: %s\nTime: %s",
		chatTitle, targetID, sendErr.Error(), time.Now().UTC().Format("2006-01-02 15:04:05"),
	)

	for _, adminID := range f.adminRecipients(ctx) {
		if _, err := f.tg.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID: adminID,
			Text:   notice,
		}); err != nil {
			f.logger.ErrorContext(ctx, "Failed to notify admin", "admin_id", adminID, "error", err)
		}
	}
}

// adminRecipients merges configured seed admins with the admins table,
// deduplicated.
func (f *Forwarder) adminRecipients(ctx context.Context) []int64 {
	seen := make(map[int64]struct{})
	recipients := make([]int64, 0, len(f.cfg.Telegram.AdminIDs))

	for _, id := range f.cfg.Telegram.AdminIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			recipients = append(recipients, id)
		}
	}

	admins, err := f.store.ListAdmins(ctx)
	if err != nil {
		f.logger.ErrorContext(ctx, "Failed to list admins for notification", "error", err)
		return recipients
	}
	for _, admin := range admins {
		if _, ok := seen[admin.UserID]; !ok {
			seen[admin.UserID] = struct{}{}
			recipients = append(recipients, admin.UserID)
		}
	}
	return recipients
}
