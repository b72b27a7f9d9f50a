// Package config provides configuration loading, defaults, and validation for
// the forwarding bot. Values come from defaults, an optional config.yaml, and
// BOT_* environment variables (e.g. BOT_TELEGRAM_TOKEN), in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config defines the application configuration parameters for all components
// of the forwarding bot: logging, Telegram access, storage, forwarding
// behavior, notifications, workspace layout, and scheduled tasks.
type Config struct {
	Logger        LoggerConfig        `mapstructure:"logger"`
	Telegram      TelegramConfig      `mapstructure:"telegram"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Forward       ForwardConfig       `mapstructure:"forward"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Workspace     WorkspaceConfig     `mapstructure:"workspace"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds bot credentials and the seed admin list.
// BotInfo is populated at startup from getMe and is not read from config.
type TelegramConfig struct {
	Token    string  `mapstructure:"token" validate:"required"`
	AdminIDs []int64 `mapstructure:"admin_ids"`

	BotInfo *models.User `mapstructure:"-"`
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ForwardConfig holds forwarding behavior settings. Delay and AddSourceInfo
// are seeds only: their effective values are persisted in the settings table
// and may be changed at runtime via bot commands.
type ForwardConfig struct {
	AddSourceInfo      bool          `mapstructure:"add_source_info"`
	PreserveSender     bool          `mapstructure:"preserve_sender"`
	Delay              time.Duration `mapstructure:"delay" validate:"min=0"`
	FilterContentTypes []string      `mapstructure:"filter_content_types"`
	KeywordFilter      []string      `mapstructure:"keyword_filter"`
	BlockedUserIDs     []int64       `mapstructure:"blocked_user_ids"`
	MaxFileSizeMB      int64         `mapstructure:"max_file_size_mb" validate:"min=1"`
	MaxPerMinute       int           `mapstructure:"max_per_minute" validate:"min=1"`
	MediaGroupTimeout  time.Duration `mapstructure:"media_group_timeout" validate:"min=500ms,max=1m"`
}

// NotificationsConfig controls admin error notifications and the daily report.
type NotificationsConfig struct {
	NotifyAdminOnError bool  `mapstructure:"notify_admin_on_error"`
	DailyReport        bool  `mapstructure:"daily_report"`
	ReportChatID       int64 `mapstructure:"report_chat_id"`
	ReportDays         int   `mapstructure:"report_days" validate:"min=1,max=90"`
}

// WorkspaceConfig holds the working directories created at startup.
type WorkspaceConfig struct {
	DataDir    string `mapstructure:"data_dir" validate:"required"`
	LogsDir    string `mapstructure:"logs_dir" validate:"required"`
	BackupsDir string `mapstructure:"backups_dir" validate:"required"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a scheduled task and sets its cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// BackupRetention is how many timestamped backups the backup task keeps.
const BackupRetention = 7

// LoadConfig loads and validates configuration from defaults, the YAML file at
// configPath (optional), and BOT_* environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine: defaults + environment carry the load.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	// Registered so AutomaticEnv can populate them without a config file.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_ids", []int64{})

	v.SetDefault("database.path", "data/forward_bot.db")

	v.SetDefault("forward.add_source_info", true)
	v.SetDefault("forward.preserve_sender", true)
	v.SetDefault("forward.delay", time.Duration(0))
	v.SetDefault("forward.filter_content_types", []string{})
	v.SetDefault("forward.keyword_filter", []string{})
	v.SetDefault("forward.blocked_user_ids", []int64{})
	v.SetDefault("forward.max_file_size_mb", 50)
	v.SetDefault("forward.max_per_minute", 60)
	v.SetDefault("forward.media_group_timeout", 3*time.Second)

	v.SetDefault("notifications.notify_admin_on_error", true)
	v.SetDefault("notifications.daily_report", true)
	v.SetDefault("notifications.report_chat_id", 0)
	v.SetDefault("notifications.report_days", 7)

	v.SetDefault("workspace.data_dir", "data")
	v.SetDefault("workspace.logs_dir", "logs")
	v.SetDefault("workspace.backups_dir", "backups")

	v.SetDefault("scheduler.tasks", map[string]TaskConfig{
		"sql_maintenance": {Enabled: true, Schedule: "0 4 * * *"},
		"daily_report":    {Enabled: true, Schedule: "0 8 * * *"},
		"backup":          {Enabled: true, Schedule: "30 4 * * *"},
	})
}

// IsSeedAdmin reports whether userID is one of the statically configured admins.
func (c *Config) IsSeedAdmin(userID int64) bool {
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
