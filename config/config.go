package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment variables read at startup.
const (
	EnvURL               = "KKSTUDIOSOCKET_URL"
	EnvTimeout           = "KKSTUDIO_MCP_TIMEOUT"
	EnvScreenshotTimeout = "KKSTUDIO_MCP_SCREENSHOT_TIMEOUT"
	EnvLogLevel          = "KKSTUDIO_MCP_LOG_LEVEL"
	EnvLogFile           = "KKSTUDIO_MCP_LOG_FILE"
)

// MinTimeout is the shortest exchange timeout accepted.
const MinTimeout = time.Millisecond

type Config struct {
	URL               string
	Timeout           time.Duration
	ScreenshotTimeout time.Duration
	LogLevel          string
	LogFile           string
}

// Load reads the configuration from the environment, falling back to
// defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("url", "ws://127.0.0.1:8765/ws")
	v.SetDefault("timeout", "5000")
	v.SetDefault("screenshot_timeout", "30000")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	for key, env := range map[string]string{
		"url":                EnvURL,
		"timeout":            EnvTimeout,
		"screenshot_timeout": EnvScreenshotTimeout,
		"log_level":          EnvLogLevel,
		"log_file":           EnvLogFile,
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	timeout, err := duration(v, "timeout", EnvTimeout)
	if err != nil {
		return nil, err
	}
	screenshotTimeout, err := duration(v, "screenshot_timeout", EnvScreenshotTimeout)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		URL:               strings.TrimSpace(v.GetString("url")),
		Timeout:           timeout,
		ScreenshotTimeout: screenshotTimeout,
		LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFile:           strings.TrimSpace(v.GetString("log_file")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// duration reads a timeout setting. A bare integer is milliseconds; anything
// else must carry a unit, as in "5s" or "1500ms".
func duration(v *viper.Viper, key, env string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be milliseconds or a duration such as 5s, got %q", env, raw)
	}
	return d, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("%s: %w", EnvURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%s must be a ws:// or wss:// URL, got %q", EnvURL, c.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host: %q", EnvURL, c.URL)
	}
	if c.Timeout < MinTimeout {
		return fmt.Errorf("%s must be at least %s, got %s", EnvTimeout, MinTimeout, c.Timeout)
	}
	if c.ScreenshotTimeout < MinTimeout {
		return fmt.Errorf("%s must be at least %s, got %s", EnvScreenshotTimeout, MinTimeout, c.ScreenshotTimeout)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%s must be one of debug, info, warn, error, got %q", EnvLogLevel, c.LogLevel)
	}
	return nil
}
