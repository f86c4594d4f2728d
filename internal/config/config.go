// Package config defines the top-level configuration for the breakout service
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/squireaintready/breakout/internal/feed"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by BREAKOUT_* environment variables.
type Config struct {
	Redis    RedisConfig   `toml:"redis"`
	Feed     FeedConfig    `toml:"feed"`
	Checker  CheckerConfig `toml:"checker"`
	Server   ServerConfig  `toml:"server"`
	Notify   NotifyConfig  `toml:"notify"`
	Mode     string        `toml:"mode"`
	LogLevel string        `toml:"log_level"`
}

// RedisConfig holds Redis connection parameters. The state snapshot and the
// price cache share one connection.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	StateKey   string `toml:"state_key"`
}

// FeedConfig holds price feed parameters.
type FeedConfig struct {
	URL    string   `toml:"url"`
	Assets []string `toml:"assets"`
}

// CheckerConfig holds alert evaluation parameters.
type CheckerConfig struct {
	EvalInterval     duration `toml:"eval_interval"`
	Cooldown         duration `toml:"cooldown"`
	Warmup           duration `toml:"warmup"`
	PullInterval     duration `toml:"pull_interval"`
	ClearFiredOnEdit bool     `toml:"clear_fired_on_edit"`
	Timezone         string   `toml:"timezone"`
}

// ServerConfig holds HTTP server parameters. Password is the opaque bearer
// token shared with the dashboard; empty disables auth.
type ServerConfig struct {
	Enabled         bool     `toml:"enabled"`
	Port            int      `toml:"port"`
	Password        string   `toml:"password"`
	CORSOrigins     []string `toml:"cors_origins"`
	RateLimit       int      `toml:"rate_limit"`
	RateLimitWindow duration `toml:"rate_limit_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   10,
			MaxRetries: 3,
			TLSEnabled: false,
			StateKey:   "breakout-state",
		},
		Feed: FeedConfig{
			URL:    feed.DefaultURL,
			Assets: []string{"BTC", "ETH", "SOL"},
		},
		Checker: CheckerConfig{
			EvalInterval:     duration{500 * time.Millisecond},
			Cooldown:         duration{30 * time.Second},
			Warmup:           duration{10 * time.Second},
			PullInterval:     duration{10 * time.Second},
			ClearFiredOnEdit: false,
			Timezone:         "UTC",
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:       120,
			RateLimitWindow: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"price_alert", "stop_loss", "take_profit", "pnl_alert"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"checker": true,
	"server":  true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: checker, server, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}
	if c.Redis.StateKey == "" {
		errs = append(errs, "redis: state_key must not be empty")
	}

	// Feed settings matter only for checker and full modes.
	if c.Mode == "checker" || c.Mode == "full" {
		if c.Feed.URL == "" {
			errs = append(errs, "feed: url must not be empty")
		}
		if len(c.Feed.Assets) == 0 {
			errs = append(errs, "feed: at least one asset must be configured")
		}
		for _, a := range c.Feed.Assets {
			if _, ok := feed.PairFor(a); !ok {
				errs = append(errs, fmt.Sprintf("feed: unsupported asset %q", a))
			}
		}
	}

	// Checker
	if c.Checker.EvalInterval.Duration <= 0 {
		errs = append(errs, "checker: eval_interval must be positive")
	}
	if c.Checker.Cooldown.Duration < 0 {
		errs = append(errs, "checker: cooldown must not be negative")
	}
	if c.Checker.Warmup.Duration < 0 {
		errs = append(errs, "checker: warmup must not be negative")
	}
	if c.Checker.PullInterval.Duration <= 0 {
		errs = append(errs, "checker: pull_interval must be positive")
	}
	if c.Checker.Timezone != "" {
		if _, err := time.LoadLocation(c.Checker.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("checker: unknown timezone %q", c.Checker.Timezone))
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must not be negative")
		}
		if c.Server.RateLimit > 0 && c.Server.RateLimitWindow.Duration <= 0 {
			errs = append(errs, "server: rate_limit_window must be positive when rate_limit is set")
		}
	}

	// Telegram token and chat id must be set together, or both empty.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
