package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ServiceName     string        `mapstructure:"service_name"`
	Environment     string        `mapstructure:"environment"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects the gorm dialector by Driver. Path is only used by sqlite.
// URL, when set, is used verbatim as the postgres or mysql DSN.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=postgres mysql sqlite"`
	URL             string `mapstructure:"url"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	Path            string `mapstructure:"path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" validate:"min=1"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" validate:"min=1"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

func (d *DatabaseConfig) GetDSN() string {
	if d.URL != "" && d.Driver != "sqlite" {
		return d.URL
	}
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.Username, d.Password, d.Host, d.Port, d.Database)
	case "sqlite":
		return d.Path
	default:
		sslMode := d.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			d.Host, d.Port, d.Username, d.Password, d.Database, sslMode)
	}
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type SlackConfig struct {
	BotToken      string        `mapstructure:"bot_token"`
	SigningSecret string        `mapstructure:"signing_secret"`
	BotUserID     string        `mapstructure:"bot_user_id"`
	WorkspaceURL  string        `mapstructure:"workspace_url"`
	APIBaseURL    string        `mapstructure:"api_base_url" validate:"omitempty,url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	// PostsPerSecond paces chat.postMessage per channel when Redis is enabled.
	PostsPerSecond int `mapstructure:"posts_per_second"`
}

type ZendeskConfig struct {
	Subdomain     string        `mapstructure:"subdomain"`
	Email         string        `mapstructure:"email"`
	APIToken      string        `mapstructure:"api_token"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	BaseURL       string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	// RequestsPerMinute caps outbound API calls across instances when Redis is enabled.
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	// DefaultTicketFormID applies to forms that do not name their own ticket form.
	DefaultTicketFormID int64 `mapstructure:"default_ticket_form_id"`
}

// GetBaseURL returns the API root, derived from the subdomain unless overridden.
func (z *ZendeskConfig) GetBaseURL() string {
	if z.BaseURL != "" {
		return z.BaseURL
	}
	return fmt.Sprintf("https://%s.zendesk.com", z.Subdomain)
}

type RetryConfig struct {
	MaxAttempts     uint          `mapstructure:"max_attempts" validate:"min=1"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

type AlertConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ChannelID string `mapstructure:"channel_id" validate:"required_if=Enabled true"`
	Level     string `mapstructure:"level"`
	Instance  string `mapstructure:"instance"`
}

type ChannelConfig struct {
	ID   string `mapstructure:"id" yaml:"id" validate:"required"`
	Form string `mapstructure:"form" yaml:"form" validate:"required"`
}

type FieldTargetConfig struct {
	Source   string `mapstructure:"source" yaml:"source" validate:"required"`
	TargetID int64  `mapstructure:"target_id" yaml:"target_id" validate:"required"`
}

type GroupRuleConfig struct {
	Match   string `mapstructure:"match" yaml:"match" validate:"required"`
	GroupID int64  `mapstructure:"group_id" yaml:"group_id" validate:"required"`
}

type GroupConfig struct {
	Field          string            `mapstructure:"field" yaml:"field"`
	Rules          []GroupRuleConfig `mapstructure:"rules" yaml:"rules" validate:"dive"`
	DefaultGroupID int64             `mapstructure:"default_group_id" yaml:"default_group_id"`
}

type FormConfig struct {
	Key             string              `mapstructure:"key" yaml:"key" validate:"required"`
	TicketFormID    int64               `mapstructure:"ticket_form_id" yaml:"ticket_form_id"`
	SubjectTemplate string              `mapstructure:"subject_template" yaml:"subject_template"`
	Fields          []FieldTargetConfig `mapstructure:"fields" yaml:"fields" validate:"dive"`
	Group           GroupConfig         `mapstructure:"group" yaml:"group"`
	PriorityField   string              `mapstructure:"priority_field" yaml:"priority_field"`
	Tags            []string            `mapstructure:"tags" yaml:"tags"`
}

// FormsFile is the layout of sync.forms_file.
type FormsFile struct {
	Channels []ChannelConfig `yaml:"channels"`
	Forms    []FormConfig    `yaml:"forms"`
}

type SyncConfig struct {
	Channels           []ChannelConfig `mapstructure:"channels" validate:"dive"`
	Forms              []FormConfig    `mapstructure:"forms" validate:"dive"`
	FormsFile          string          `mapstructure:"forms_file"`
	RelaySignature     string          `mapstructure:"relay_signature" validate:"required"`
	ShortcutCallbackID string          `mapstructure:"shortcut_callback_id"`
	IgnoredAuthors     []string        `mapstructure:"ignored_authors"`
	Retention          time.Duration   `mapstructure:"retention"`
	CleanupInterval    time.Duration   `mapstructure:"cleanup_interval"`
	EventTimeout       time.Duration   `mapstructure:"event_timeout"`
	StoreTimeout       time.Duration   `mapstructure:"store_timeout"`
	DedupTTL           time.Duration   `mapstructure:"dedup_ttl"`
}
