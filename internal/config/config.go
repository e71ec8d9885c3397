package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the bot.
type Config struct {
	DB  DBConfig  `yaml:"-"`
	Bot BotConfig `yaml:"bot"`
}

// DBConfig holds the SQL Server connection settings. Loaded from environment
// variables only; an incomplete config surfaces as a connection failure on
// first directory access, never as a startup crash.
type DBConfig struct {
	User            string
	Password        string
	Server          string
	Database        string
	Port            int
	Encrypt         bool
	TrustServerCert bool
}

// BotConfig holds bot behavior settings, overridable from a YAML file.
type BotConfig struct {
	SessionDBPath string        `yaml:"sessionDbPath"` // whatsmeow credential store
	FilesRoot     string        `yaml:"filesRoot"`     // base dir for reply attachments
	AutoReply     bool          `yaml:"autoReply"`     // FAQ-driven replies to inbound messages
	GroupName     string        `yaml:"groupName"`     // reserved broadcast-group name
	BackoffMin    time.Duration `yaml:"backoffMin"`    // reconnect backoff floor
	BackoffMax    time.Duration `yaml:"backoffMax"`    // reconnect backoff ceiling
	LogLevel      string        `yaml:"logLevel"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		DB: DBConfig{
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			Server:          getEnv("DB_SERVER", ""),
			Database:        getEnv("DB_DATABASE", ""),
			Port:            getEnvAsInt("DB_PORT", 1433),
			Encrypt:         getEnvAsBool("DB_ENCRYPT", false),
			TrustServerCert: getEnvAsBool("DB_TRUST_CERTIFICATE", false),
		},
		Bot: BotConfig{
			SessionDBPath: "state/session.db",
			FilesRoot:     ".",
			AutoReply:     false,
			GroupName:     "SISTEMAS SUC",
			BackoffMin:    2 * time.Second,
			BackoffMax:    60 * time.Second,
			LogLevel:      "info",
		},
	}
}

// Load builds the configuration from the environment, overlaying the optional
// YAML file at path when it exists.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that the config has usable values.
func Validate(cfg *Config) error {
	if cfg.Bot.SessionDBPath == "" {
		return fmt.Errorf("bot.sessionDbPath must not be empty")
	}
	if cfg.Bot.GroupName == "" {
		return fmt.Errorf("bot.groupName must not be empty")
	}
	if cfg.Bot.BackoffMin <= 0 || cfg.Bot.BackoffMax < cfg.Bot.BackoffMin {
		return fmt.Errorf("bot backoff bounds must satisfy 0 < min <= max")
	}
	if cfg.DB.Port < 0 || cfg.DB.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 0 and 65535")
	}
	return nil
}

// ConnString renders the sqlserver DSN for database/sql.
func (d DBConfig) ConnString() string {
	q := url.Values{}
	q.Set("database", d.Database)
	q.Set("encrypt", strconv.FormatBool(d.Encrypt))
	q.Set("trustservercertificate", strconv.FormatBool(d.TrustServerCert))
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Server, d.Port),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a
// default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool mirrors the legacy behavior: the literal "true" enables the
// flag, anything else disables it.
func getEnvAsBool(key string, defaultValue bool) bool {
	switch getEnv(key, "") {
	case "true":
		return true
	case "":
		return defaultValue
	default:
		return false
	}
}
