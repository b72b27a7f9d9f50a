package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// AddChannel registers a chat in the source or target list.
	// Returns false if the chat was already registered.
	AddChannel(ctx context.Context, role ChannelRole, channel *Channel) (bool, error)

	// RemoveChannel deregisters a chat. Returns false if it was not registered.
	RemoveChannel(ctx context.Context, role ChannelRole, chatID int64) (bool, error)

	// ListChannels returns all active chats for the given role, oldest first.
	ListChannels(ctx context.Context, role ChannelRole) ([]Channel, error)

	// IsChannel reports whether a chat is registered and active for the given role.
	IsChannel(ctx context.Context, role ChannelRole, chatID int64) (bool, error)

	// AddAdmin registers an admin user. Returns false if already registered.
	AddAdmin(ctx context.Context, admin *Admin) (bool, error)

	// ListAdmins returns all registered admins, oldest first.
	ListAdmins(ctx context.Context) ([]Admin, error)

	// IsAdmin reports whether the user is in the admins table.
	IsAdmin(ctx context.Context, userID int64) (bool, error)

	// SaveForwardLog inserts a forwarding attempt record.
	SaveForwardLog(ctx context.Context, log *ForwardLog) error

	// TodayStats returns today's forward counts grouped by content type and
	// media-group flag.
	TodayStats(ctx context.Context) ([]ContentTypeStat, error)

	// TodaySuccessRate returns today's total and successful forward counts.
	TodaySuccessRate(ctx context.Context) (total, success int64, err error)

	// Report aggregates forwarding outcomes per content type over the last
	// 'days' days.
	Report(ctx context.Context, days int) ([]ReportRow, error)

	// GetSetting retrieves a runtime setting. The second return value reports
	// whether the key exists.
	GetSetting(ctx context.Context, key string) (string, bool, error)

	// SetSetting inserts or updates a runtime setting.
	SetSetting(ctx context.Context, key, value string) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error

	// BackupTo writes a consistent copy of the database to the given path.
	BackupTo(ctx context.Context, path string) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// channelTable maps a role to its table name. Table names cannot be bound as
// query parameters, so the mapping is a closed switch.
func channelTable(role ChannelRole) (string, error) {
	switch role {
	case RoleSource:
		return "source_channels", nil
	case RoleTarget:
		return "target_channels", nil
	default:
		return "", fmt.Errorf("unknown channel role %q", role)
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) AddChannel(ctx context.Context, role ChannelRole, channel *Channel) (bool, error) {
	if channel == nil {
		return false, fmt.Errorf("cannot add nil channel")
	}
	if channel.ID == 0 {
		return false, fmt.Errorf("channel must have a non-zero id")
	}
	table, err := channelTable(role)
	if err != nil {
		return false, err
	}

	if channel.AddedDate.IsZero() {
		channel.AddedDate = time.Now().UTC()
	}
	channel.Active = true

	query := fmt.Sprintf(`
        INSERT INTO %s (id, title, type, added_date, active)
        VALUES (:id, :title, :type, :added_date, :active)
        ON CONFLICT (id) DO NOTHING;
    `, table)

	result, err := s.db.NamedExecContext(ctx, query, channel)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error adding channel", "role", role, "chat_id", channel.ID, "error", err)
		return false, fmt.Errorf("failed to add %s channel %d: %w", role, channel.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count when adding channel",
			"role", role, "chat_id", channel.ID, "error", err)
		return true, nil
	}

	added := affected == 1
	s.logger.DebugContext(ctx, "Channel add processed", "role", role, "chat_id", channel.ID, "added", added)
	return added, nil
}

func (s *sqlxStore) RemoveChannel(ctx context.Context, role ChannelRole, chatID int64) (bool, error) {
	if chatID == 0 {
		return false, fmt.Errorf("chat_id cannot be zero")
	}
	table, err := channelTable(role)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?;`, table)
	result, err := s.db.ExecContext(ctx, query, chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error removing channel", "role", role, "chat_id", chatID, "error", err)
		return false, fmt.Errorf("failed to remove %s channel %d: %w", role, chatID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count when removing channel",
			"role", role, "chat_id", chatID, "error", err)
		return true, nil
	}

	removed := affected == 1
	s.logger.DebugContext(ctx, "Channel remove processed", "role", role, "chat_id", chatID, "removed", removed)
	return removed, nil
}

func (s *sqlxStore) ListChannels(ctx context.Context, role ChannelRole) ([]Channel, error) {
	table, err := channelTable(role)
	if err != nil {
		return nil, err
	}

	var channels []Channel
	query := fmt.Sprintf(`
        SELECT id, title, type, added_date, active
        FROM %s
        WHERE active = TRUE
        ORDER BY added_date ASC, id ASC;
    `, table)

	if err := s.db.SelectContext(ctx, &channels, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing channels", "role", role, "error", err)
		return nil, fmt.Errorf("failed to list %s channels: %w", role, err)
	}

	return channels, nil
}

func (s *sqlxStore) IsChannel(ctx context.Context, role ChannelRole, chatID int64) (bool, error) {
	table, err := channelTable(role)
	if err != nil {
		return false, err
	}

	var one int
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE id = ? AND active = TRUE LIMIT 1;`, table)
	err = s.db.GetContext(ctx, &one, query, chatID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error checking channel membership", "role", role, "chat_id", chatID, "error", err)
		return false, fmt.Errorf("failed to check %s channel %d: %w", role, chatID, err)
	}
	return true, nil
}

func (s *sqlxStore) AddAdmin(ctx context.Context, admin *Admin) (bool, error) {
	if admin == nil {
		return false, fmt.Errorf("cannot add nil admin")
	}
	if admin.UserID == 0 {
		return false, fmt.Errorf("admin must have a non-zero user_id")
	}
	if admin.AddedDate.IsZero() {
		admin.AddedDate = time.Now().UTC()
	}

	query := `
        INSERT INTO admins (user_id, username, added_date)
        VALUES (:user_id, :username, :added_date)
        ON CONFLICT (user_id) DO NOTHING;
    `
	result, err := s.db.NamedExecContext(ctx, query, admin)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error adding admin", "user_id", admin.UserID, "error", err)
		return false, fmt.Errorf("failed to add admin %d: %w", admin.UserID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count when adding admin",
			"user_id", admin.UserID, "error", err)
		return true, nil
	}
	return affected == 1, nil
}

func (s *sqlxStore) ListAdmins(ctx context.Context) ([]Admin, error) {
	var admins []Admin
	query := `SELECT user_id, username, added_date FROM admins ORDER BY added_date ASC, user_id ASC;`
	if err := s.db.SelectContext(ctx, &admins, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing admins", "error", err)
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return admins, nil
}

func (s *sqlxStore) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := s.db.GetContext(ctx, &one, `SELECT 1 FROM admins WHERE user_id = ? LIMIT 1;`, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error checking admin", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check admin %d: %w", userID, err)
	}
	return true, nil
}

func (s *sqlxStore) SaveForwardLog(ctx context.Context, log *ForwardLog) error {
	if log == nil {
		return fmt.Errorf("cannot save nil forward log")
	}
	if log.SourceChatID == 0 || log.TargetChatID == 0 {
		return fmt.Errorf("forward log must have non-zero source and target chat ids")
	}

	// Timestamp is filled by the database default (CURRENT_TIMESTAMP, UTC) so
	// DATE() comparisons in the stats queries stay consistent.
	query := `
        INSERT INTO forward_logs
            (source_chat_id, target_chat_id, original_message_id, forwarded_message_id,
             content_type, media_group_id, is_media_group, success, error_message)
        VALUES
            (:source_chat_id, :target_chat_id, :original_message_id, :forwarded_message_id,
             :content_type, :media_group_id, :is_media_group, :success, :error_message);
    `

	result, err := s.db.NamedExecContext(ctx, query, log)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving forward log",
			"source_chat_id", log.SourceChatID, "target_chat_id", log.TargetChatID, "error", err)
		return fmt.Errorf("failed to save forward log (%d -> %d): %w", log.SourceChatID, log.TargetChatID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		log.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving forward log", "error", err)
	}

	s.logger.DebugContext(ctx, "Forward log saved",
		"source_chat_id", log.SourceChatID, "target_chat_id", log.TargetChatID, "success", log.Success)
	return nil
}

func (s *sqlxStore) TodayStats(ctx context.Context) ([]ContentTypeStat, error) {
	var stats []ContentTypeStat
	query := `
        SELECT content_type, is_media_group, COUNT(*) AS count
        FROM forward_logs
        WHERE DATE(timestamp) = DATE('now')
        GROUP BY content_type, is_media_group
        ORDER BY count DESC, content_type ASC;
    `
	if err := s.db.SelectContext(ctx, &stats, query); err != nil {
		s.logger.ErrorContext(ctx, "Error getting today's stats", "error", err)
		return nil, fmt.Errorf("failed to get today's stats: %w", err)
	}
	return stats, nil
}

func (s *sqlxStore) TodaySuccessRate(ctx context.Context) (int64, int64, error) {
	var row struct {
		Total   int64 `db:"total"`
		Success int64 `db:"success"`
	}
	query := `
        SELECT COUNT(*) AS total,
               COALESCE(SUM(CASE WHEN success = TRUE THEN 1 ELSE 0 END), 0) AS success
        FROM forward_logs
        WHERE DATE(timestamp) = DATE('now');
    `
	if err := s.db.GetContext(ctx, &row, query); err != nil {
		s.logger.ErrorContext(ctx, "Error getting today's success rate", "error", err)
		return 0, 0, fmt.Errorf("failed to get today's success rate: %w", err)
	}
	return row.Total, row.Success, nil
}

func (s *sqlxStore) Report(ctx context.Context, days int) ([]ReportRow, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02 15:04:05")

	var rows []ReportRow
	query := `
        SELECT content_type,
               COUNT(*) AS total,
               COALESCE(SUM(CASE WHEN success = TRUE THEN 1 ELSE 0 END), 0) AS success
        FROM forward_logs
        WHERE timestamp >= ?
        GROUP BY content_type
        ORDER BY total DESC, content_type ASC;
    `
	if err := s.db.SelectContext(ctx, &rows, query, cutoff); err != nil {
		s.logger.ErrorContext(ctx, "Error building forward report", "days", days, "error", err)
		return nil, fmt.Errorf("failed to build %d-day report: %w", days, err)
	}
	return rows, nil
}

func (s *sqlxStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?;`, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting setting", "key", key, "error", err)
		return "", false, fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return value, true, nil
}

func (s *sqlxStore) SetSetting(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("setting key cannot be empty")
	}
	query := `
        INSERT INTO settings (key, value) VALUES (?, ?)
        ON CONFLICT (key) DO UPDATE SET value = excluded.value;
    `
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		s.logger.ErrorContext(ctx, "Error setting value", "key", key, "error", err)
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	s.logger.DebugContext(ctx, "Setting saved", "key", key)
	return nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}

// BackupTo writes a consistent snapshot of the database to path using VACUUM INTO.
// The destination file must not already exist.
func (s *sqlxStore) BackupTo(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("backup path cannot be empty")
	}

	s.logger.InfoContext(ctx, "Starting database backup", "path", path)
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?;", path); err != nil {
		s.logger.ErrorContext(ctx, "Database backup failed", "path", path, "error", err)
		return fmt.Errorf("failed to back up database to %s: %w", path, err)
	}

	s.logger.InfoContext(ctx, "Database backup completed", "path", path)
	return nil
}
