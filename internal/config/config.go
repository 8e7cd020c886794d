package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	CoalesceWindow  time.Duration
	AllowedOrigins  []string
	LogLevel        string
	LogFormat       string // "text" or "json"
	BridgeRateLimit int    // events per RateLimitWindow per bridge connection
}

type fileConfig struct {
	CoalesceWindowMS *int     `toml:"coalesce_window_ms"`
	AllowedOrigins   []string `toml:"allowed_origins"`
	LogLevel         string   `toml:"log_level"`
	LogFormat        string   `toml:"log_format"`
	BridgeRateLimit  int      `toml:"bridge_rate_limit"`
}

func Default() *Config {
	return &Config{
		CoalesceWindow:  DefaultCoalesceWindow,
		AllowedOrigins:  []string{"*"},
		LogLevel:        "info",
		LogFormat:       "text",
		BridgeRateLimit: MaxBridgeEventsPerSecond,
	}
}

// Load builds the config from defaults, an optional TOML file and the
// environment (after .env is loaded), in increasing precedence.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := Default()

	if path := configFilePath(); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.CoalesceWindow < 0 || c.CoalesceWindow > MaxCoalesceWindow {
		return fmt.Errorf("coalesce window must be between 0 and %s, got %s", MaxCoalesceWindow, c.CoalesceWindow)
	}
	if c.BridgeRateLimit <= 0 {
		return fmt.Errorf("bridge rate limit must be positive, got %d", c.BridgeRateLimit)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	if fc.CoalesceWindowMS != nil {
		cfg.CoalesceWindow = time.Duration(*fc.CoalesceWindowMS) * time.Millisecond
	}
	if len(fc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
	if fc.BridgeRateLimit != 0 {
		cfg.BridgeRateLimit = fc.BridgeRateLimit
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("RECVIEW_COALESCE_WINDOW_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RECVIEW_COALESCE_WINDOW_MS: %w", err)
		}
		cfg.CoalesceWindow = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("RECVIEW_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("RECVIEW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RECVIEW_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("RECVIEW_BRIDGE_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RECVIEW_BRIDGE_RATE_LIMIT: %w", err)
		}
		cfg.BridgeRateLimit = n
	}
	return nil
}

// configFilePath honours RECVIEW_CONFIG, then falls back to
// $XDG_CONFIG_HOME/recording-view/config.toml.
func configFilePath() string {
	if p := os.Getenv("RECVIEW_CONFIG"); p != "" {
		return p
	}

	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "recording-view")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "recording-view")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
