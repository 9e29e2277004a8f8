package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	sharedConfig "deskbridge/internal/shared/config"
)

const envPrefix = "DESKBRIDGE"

type Config struct {
	Server   sharedConfig.ServerConfig   `mapstructure:"server"`
	Database sharedConfig.DatabaseConfig `mapstructure:"database"`
	Logger   sharedConfig.LoggerConfig   `mapstructure:"logger"`
	Redis    sharedConfig.RedisConfig    `mapstructure:"redis"`
	Slack    sharedConfig.SlackConfig    `mapstructure:"slack"`
	Zendesk  sharedConfig.ZendeskConfig  `mapstructure:"zendesk"`
	Retry    sharedConfig.RetryConfig    `mapstructure:"retry"`
	Alert    sharedConfig.AlertConfig    `mapstructure:"alert"`
	Sync     sharedConfig.SyncConfig     `mapstructure:"sync"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// legacyEnv lists unprefixed environment variables accepted for a key, in
// addition to DESKBRIDGE_<KEY>.
var legacyEnv = map[string][]string{
	"server.port":                    {"PORT"},
	"server.environment":             {"ENVIRONMENT"},
	"server.service_name":            {"RENDER_SERVICE_NAME"},
	"alert.instance":                 {"RENDER_INSTANCE_ID"},
	"logger.level":                   {"LOG_LEVEL"},
	"database.url":                   {"DATABASE_URL"},
	"slack.bot_token":                {"SLACK_BOT_TOKEN"},
	"slack.signing_secret":           {"SLACK_SIGNING_SECRET"},
	"zendesk.subdomain":              {"ZENDESK_SUBDOMAIN"},
	"zendesk.email":                  {"ZENDESK_EMAIL"},
	"zendesk.api_token":              {"ZENDESK_API_TOKEN"},
	"zendesk.webhook_secret":         {"ZENDESK_WEBHOOK_SECRET"},
	"zendesk.default_ticket_form_id": {"ZENDESK_TICKET_FORM_ID"},
}

// Load loads configuration from file and environment variables. A .env file in
// the working directory is read first; variables already set win over it.
// configFile overrides the default search path when non-empty.
func Load(env, configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Sync.FormsFile != "" {
		forms, err := LoadFormsFile(config.Sync.FormsFile)
		if err != nil {
			return nil, err
		}
		config.Sync.Channels = append(config.Sync.Channels, forms.Channels...)
		config.Sync.Forms = append(config.Sync.Forms, forms.Forms...)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// LoadFormsFile decodes a forms file strictly: unknown keys are errors.
func LoadFormsFile(path string) (*sharedConfig.FormsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read forms file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var forms sharedConfig.FormsFile
	if err := dec.Decode(&forms); err != nil {
		return nil, fmt.Errorf("failed to parse forms file %s: %w", path, err)
	}
	return &forms, nil
}

var validate = validator.New()

// Validate checks field constraints and the cross-field rules the struct tags
// cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Sync.Retention <= 0 {
		return fmt.Errorf("invalid configuration: sync.retention must be positive")
	}
	if cfg.Sync.CleanupInterval < time.Minute {
		return fmt.Errorf("invalid configuration: sync.cleanup_interval must be at least 1m")
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.service_name", "deskbridge")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "20s")

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "deskbridge")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.path", "deskbridge.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.auto_migrate", false)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis is optional; dedup and rate limiting fall back to in-process state.
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("slack.bot_token", "")
	v.SetDefault("slack.signing_secret", "")
	v.SetDefault("slack.bot_user_id", "")
	v.SetDefault("slack.workspace_url", "")
	v.SetDefault("slack.api_base_url", "https://slack.com/api")
	v.SetDefault("slack.timeout", "10s")
	v.SetDefault("slack.posts_per_second", 1)

	v.SetDefault("zendesk.subdomain", "")
	v.SetDefault("zendesk.email", "")
	v.SetDefault("zendesk.api_token", "")
	v.SetDefault("zendesk.webhook_secret", "")
	v.SetDefault("zendesk.base_url", "")
	v.SetDefault("zendesk.timeout", "15s")
	v.SetDefault("zendesk.requests_per_minute", 400)
	v.SetDefault("zendesk.default_ticket_form_id", 0)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_interval", "500ms")
	v.SetDefault("retry.max_interval", "5s")
	v.SetDefault("retry.max_elapsed_time", "30s")
	v.SetDefault("retry.multiplier", 2.0)

	v.SetDefault("alert.enabled", false)
	v.SetDefault("alert.channel_id", "")
	v.SetDefault("alert.level", "error")
	v.SetDefault("alert.instance", "")

	v.SetDefault("sync.forms_file", "")
	v.SetDefault("sync.relay_signature", "[synced by deskbridge]")
	v.SetDefault("sync.shortcut_callback_id", "create_zendesk_ticket")
	v.SetDefault("sync.ignored_authors", []string{"Slack Automation"})
	v.SetDefault("sync.retention", "720h")
	v.SetDefault("sync.cleanup_interval", "6h")
	v.SetDefault("sync.event_timeout", "60s")
	v.SetDefault("sync.store_timeout", "5s")
	v.SetDefault("sync.dedup_ttl", "1h")
}
