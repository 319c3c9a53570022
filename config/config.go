package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all relay configuration loaded from the environment.
type Config struct {
	// Telegram
	BotToken        string
	ChatID          string
	TelegramAPIURL  string
	DispatchTimeout time.Duration
	DryRun          bool

	// HTTP
	Port        int
	MetricsAddr string

	// Pipeline
	DedupWindow   time.Duration
	TZOffsetHours int
	FeedReplay    int

	// Infrastructure; an empty RedisAddr keeps dedup and the feed in-process.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 10000)
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("bot_token", "")
	v.SetDefault("chat_id", "")
	v.SetDefault("telegram_api_url", "https://api.telegram.org")
	v.SetDefault("dispatch_timeout", "10s")
	v.SetDefault("dedup_window", "60s")
	v.SetDefault("tz_offset_hours", -4)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("dry_run", false)
	v.SetDefault("feed_replay", 50)
}

// Load reads an optional .env file, then the environment, applies defaults
// and validates the result. Missing Telegram credentials are not an error;
// see MissingCredentials.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			slog.Warn("error loading .env file", "component", "config", "error", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		BotToken:        strings.TrimSpace(v.GetString("bot_token")),
		ChatID:          strings.TrimSpace(v.GetString("chat_id")),
		TelegramAPIURL:  v.GetString("telegram_api_url"),
		DispatchTimeout: v.GetDuration("dispatch_timeout"),
		DryRun:          v.GetBool("dry_run"),
		Port:            v.GetInt("port"),
		MetricsAddr:     v.GetString("metrics_addr"),
		DedupWindow:     v.GetDuration("dedup_window"),
		TZOffsetHours:   v.GetInt("tz_offset_hours"),
		FeedReplay:      v.GetInt("feed_replay"),
		RedisAddr:       v.GetString("redis_addr"),
		RedisPassword:   v.GetString("redis_password"),
		RedisDB:         v.GetInt("redis_db"),
		LogLevel:        strings.ToLower(v.GetString("log_level")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the relay cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.DispatchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("DISPATCH_TIMEOUT must be positive, got %s", c.DispatchTimeout))
	}
	if c.DedupWindow <= 0 {
		errs = append(errs, fmt.Errorf("DEDUP_WINDOW must be positive, got %s", c.DedupWindow))
	}
	if c.TZOffsetHours < -12 || c.TZOffsetHours > 14 {
		errs = append(errs, fmt.Errorf("TZ_OFFSET_HOURS %d out of range", c.TZOffsetHours))
	}
	if c.FeedReplay < 0 {
		errs = append(errs, fmt.Errorf("FEED_REPLAY must not be negative, got %d", c.FeedReplay))
	}
	if c.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("REDIS_DB must not be negative, got %d", c.RedisDB))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q not one of debug, info, warn, error", c.LogLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// MissingCredentials lists required Telegram settings that are unset.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.BotToken == "" {
		missing = append(missing, "BOT_TOKEN")
	}
	if c.ChatID == "" {
		missing = append(missing, "CHAT_ID")
	}
	return missing
}

// BotConfigured reports whether both credentials are present.
func (c *Config) BotConfigured() bool {
	return len(c.MissingCredentials()) == 0
}

// Location is the fixed display zone. It does not follow DST.
func (c *Config) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.TZOffsetHours), c.TZOffsetHours*3600)
}

// ListenAddr is the webhook server address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Mask hides all but the last four characters of a secret for logging.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
