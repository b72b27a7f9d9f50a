package database

import (
	"database/sql"
	"time"
)

// ChannelRole distinguishes the two ends of a forwarding route.
type ChannelRole string

const (
	RoleSource ChannelRole = "source"
	RoleTarget ChannelRole = "target"
)

// Channel represents a registered source or target chat (channel or group).
type Channel struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Type      string    `db:"type"`
	AddedDate time.Time `db:"added_date"`
	Active    bool      `db:"active"`
}

// Admin represents a user allowed to manage the bot.
type Admin struct {
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	AddedDate time.Time `db:"added_date"`
}

// ForwardLog records a single forwarding attempt to a single target.
// ForwardedMessageID and ErrorMessage are null on failure/success respectively.
type ForwardLog struct {
	ID                 int64          `db:"id"`
	SourceChatID       int64          `db:"source_chat_id"`
	TargetChatID       int64          `db:"target_chat_id"`
	OriginalMessageID  int            `db:"original_message_id"`
	ForwardedMessageID sql.NullInt64  `db:"forwarded_message_id"`
	ContentType        string         `db:"content_type"`
	MediaGroupID       sql.NullString `db:"media_group_id"`
	IsMediaGroup       bool           `db:"is_media_group"`
	Timestamp          time.Time      `db:"timestamp"`
	Success            bool           `db:"success"`
	ErrorMessage       sql.NullString `db:"error_message"`
}

// ContentTypeStat is one row of the daily per-type breakdown.
type ContentTypeStat struct {
	ContentType  string `db:"content_type"`
	IsMediaGroup bool   `db:"is_media_group"`
	Count        int64  `db:"count"`
}

// ReportRow aggregates forwarding outcomes for one content type over a period.
type ReportRow struct {
	ContentType string `db:"content_type"`
	Total       int64  `db:"total"`
	Success     int64  `db:"success"`
}
