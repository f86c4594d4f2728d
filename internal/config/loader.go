package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BREAKOUT_* environment variable overrides, and
// returns the final Config. A missing file is not an error; the service can
// run entirely from defaults plus environment variables. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after
// Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// A .env file is optional; secrets usually arrive through it in dev.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides overwrites Config fields from well-known BREAKOUT_*
// variables so operators can inject secrets at deploy time without touching
// the TOML file. Unset and empty variables leave the field alone.
func applyEnvOverrides(cfg *Config) {
	envStr(&cfg.Redis.Addr, "BREAKOUT_REDIS_ADDR")
	envStr(&cfg.Redis.Password, "BREAKOUT_REDIS_PASSWORD")
	envInt(&cfg.Redis.DB, "BREAKOUT_REDIS_DB")
	envInt(&cfg.Redis.PoolSize, "BREAKOUT_REDIS_POOL_SIZE")
	envInt(&cfg.Redis.MaxRetries, "BREAKOUT_REDIS_MAX_RETRIES")
	envBool(&cfg.Redis.TLSEnabled, "BREAKOUT_REDIS_TLS_ENABLED")
	envStr(&cfg.Redis.StateKey, "BREAKOUT_REDIS_STATE_KEY")

	envStr(&cfg.Feed.URL, "BREAKOUT_FEED_URL")
	envList(&cfg.Feed.Assets, "BREAKOUT_FEED_ASSETS")

	envDur(&cfg.Checker.EvalInterval, "BREAKOUT_CHECKER_EVAL_INTERVAL")
	envDur(&cfg.Checker.Cooldown, "BREAKOUT_CHECKER_COOLDOWN")
	envDur(&cfg.Checker.Warmup, "BREAKOUT_CHECKER_WARMUP")
	envDur(&cfg.Checker.PullInterval, "BREAKOUT_CHECKER_PULL_INTERVAL")
	envBool(&cfg.Checker.ClearFiredOnEdit, "BREAKOUT_CHECKER_CLEAR_FIRED_ON_EDIT")
	envStr(&cfg.Checker.Timezone, "BREAKOUT_CHECKER_TIMEZONE")

	envBool(&cfg.Server.Enabled, "BREAKOUT_SERVER_ENABLED")
	envInt(&cfg.Server.Port, "BREAKOUT_SERVER_PORT")
	envStr(&cfg.Server.Password, "BREAKOUT_SERVER_PASSWORD")
	envList(&cfg.Server.CORSOrigins, "BREAKOUT_SERVER_CORS_ORIGINS")
	envInt(&cfg.Server.RateLimit, "BREAKOUT_SERVER_RATE_LIMIT")
	envDur(&cfg.Server.RateLimitWindow, "BREAKOUT_SERVER_RATE_LIMIT_WINDOW")

	envStr(&cfg.Notify.TelegramToken, "BREAKOUT_NOTIFY_TELEGRAM_TOKEN")
	envStr(&cfg.Notify.TelegramChatID, "BREAKOUT_NOTIFY_TELEGRAM_CHAT_ID")
	envStr(&cfg.Notify.DiscordWebhookURL, "BREAKOUT_NOTIFY_DISCORD_WEBHOOK_URL")
	envList(&cfg.Notify.Events, "BREAKOUT_NOTIFY_EVENTS")

	envStr(&cfg.Mode, "BREAKOUT_MODE")
	envStr(&cfg.LogLevel, "BREAKOUT_LOG_LEVEL")
}

func lookup(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func envStr(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func envBool(dst *bool, key string) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}

func envDur(dst *duration, key string) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		dst.Duration = d
	}
}

func envList(dst *[]string, key string) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}
