package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// ErrMissingWebhook is returned by Validate when no webhook is configured
// and the run is not a dry run.
var ErrMissingWebhook = errors.New("webhook URL is required (set LINKSTAT_WEBHOOK_URL or --webhook)")

// Config is the complete run configuration.
type Config struct {
	Site        string `toml:"site" validate:"required"`
	DryRun      bool   `toml:"dry_run"`
	Schedule    string `toml:"schedule"`     // cron spec, evaluated in UTC+9; empty runs once
	SnapshotDir string `toml:"snapshot_dir"` // empty disables snapshots

	Auth      AuthConfig      `toml:"auth"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Webhook   WebhookConfig   `toml:"webhook"`
	Retry     RetryConfig     `toml:"retry"`
	Scroll    ScrollConfig    `toml:"scroll"`
	Browser   BrowserConfig   `toml:"browser"`
	Logging   LoggingConfig   `toml:"logging"`
}

// AuthConfig holds secrets; prefer environment variables over the file.
type AuthConfig struct {
	Cookie   string `toml:"cookie"`
	Email    string `toml:"email" validate:"required_with=Password"`
	Password string `toml:"password" validate:"required_with=Email"`
}

// DashboardConfig overrides parts of the registered dashboard profile.
type DashboardConfig struct {
	LandingURL   string `toml:"landing_url" validate:"omitempty,url"`
	LoginURL     string `toml:"login_url" validate:"omitempty,url"`
	CookieDomain string `toml:"cookie_domain"`
}

type WebhookConfig struct {
	URL     string   `toml:"url" validate:"omitempty,url"`
	Timeout Duration `toml:"timeout"`
}

type RetryConfig struct {
	MaxAttempts int      `toml:"max_attempts" validate:"min=1"`
	BaseDelay   Duration `toml:"base_delay"`
}

type ScrollConfig struct {
	Settle        Duration `toml:"settle"`
	MaxIterations int      `toml:"max_iterations" validate:"min=0"`
}

type BrowserConfig struct {
	Headless  bool     `toml:"headless"`
	ProxyURL  string   `toml:"proxy_url" validate:"omitempty,url"`
	UserAgent string   `toml:"user_agent"`
	Timeout   Duration `toml:"timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level" validate:"oneof=trace debug info warn error"`
	Format string `toml:"format" validate:"oneof=console json"`
}

// Duration decodes "2s"-style strings.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// NewDefaultConfig returns the built-in defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Site: "litlink",
		Webhook: WebhookConfig{
			Timeout: Duration(30 * time.Second),
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   Duration(time.Second),
		},
		Scroll: ScrollConfig{
			Settle:        Duration(2 * time.Second),
			MaxIterations: 50,
		},
		Browser: BrowserConfig{
			Headless: true,
			Timeout:  Duration(30 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load applies, in order: defaults, the TOML file at path (if any), then
// environment overrides. CLI flags are applied by the caller afterwards.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LINKSTAT_SITE"); v != "" {
		cfg.Site = v
	}
	if v := os.Getenv("LINKSTAT_COOKIE"); v != "" {
		cfg.Auth.Cookie = v
	}
	if v := os.Getenv("LINKSTAT_EMAIL"); v != "" {
		cfg.Auth.Email = v
	}
	if v := os.Getenv("LINKSTAT_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
	if v := os.Getenv("LINKSTAT_WEBHOOK_URL"); v != "" {
		cfg.Webhook.URL = v
	}
	if v := os.Getenv("LINKSTAT_PROXY"); v != "" {
		cfg.Browser.ProxyURL = v
	}
	if v := os.Getenv("LINKSTAT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LINKSTAT_SCHEDULE"); v != "" {
		cfg.Schedule = v
	}
	if v := os.Getenv("LINKSTAT_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Browser.Headless = b
		}
	}
}

// Validate checks the configuration once, before anything is launched.
func (c *Config) Validate() error {
	if !c.DryRun && c.Webhook.URL == "" {
		return ErrMissingWebhook
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// HasAuth reports whether a cookie or a complete credential pair is set.
func (c *Config) HasAuth() bool {
	return c.Auth.Cookie != "" || (c.Auth.Email != "" && c.Auth.Password != "")
}
