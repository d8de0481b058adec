// Package config defines the application configuration tree and its viper
// loading. The loaded Config is passed explicitly into each component's
// constructor; there is no package-level singleton.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Network  NetworkConfig  `mapstructure:"network"`
	Rewards  RewardsConfig  `mapstructure:"rewards"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Accounts AccountsConfig `mapstructure:"accounts"`
	History  HistoryConfig  `mapstructure:"history"`
}

// ColorConfig defines the color settings for different log levels.
// These are used for console output to make logs more readable.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" json:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" json:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" json:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" json:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" json:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" json:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" json:"fatal" yaml:"fatal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" json:"level" yaml:"level"`
	Format      string      `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" json:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" json:"colors" yaml:"colors"`
}

// BrowserConfig holds settings for the controlled browser.
type BrowserConfig struct {
	// Visible disables headless mode for debugging sign-in issues.
	Visible bool `mapstructure:"visible"`
	// ExecPath overrides the Chrome binary location (empty = autodetect).
	ExecPath string `mapstructure:"exec_path"`
	// SessionsDir is where per-account profile directories live.
	SessionsDir string `mapstructure:"sessions_dir"`
	// Language/Geolocation are the config-level locale defaults, below
	// per-account values in the resolution order.
	Language    string `mapstructure:"language"`
	Geolocation string `mapstructure:"geolocation"`
	// NavigationTimeout bounds every navigation and visibility wait.
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
}

// ProxyConfig holds the optional upstream proxy.
type ProxyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// NetworkConfig holds settings for outbound traffic.
type NetworkConfig struct {
	Proxy ProxyConfig `mapstructure:"proxy"`
}

// RewardsConfig holds the activity-engine knobs.
type RewardsConfig struct {
	// BaseURL is the rewards portal; overridable for testing only.
	BaseURL string `mapstructure:"base_url"`
	// SearchURL is the search engine front page used by redirect searches.
	SearchURL string `mapstructure:"search_url"`
	// IgnoreActivities are activity titles never attempted and excluded
	// from the incomplete report.
	IgnoreActivities []string `mapstructure:"ignore_activities"`
	// DesktopSearches/MobileSearches toggle the search spender per surface.
	DesktopSearches bool `mapstructure:"desktop_searches"`
	MobileSearches  bool `mapstructure:"mobile_searches"`
}

// SummaryMode configures when the end-of-run summary notification is sent.
type SummaryMode string

const (
	SummaryAlways  SummaryMode = "ALWAYS"
	SummaryOnError SummaryMode = "ON_ERROR"
	SummaryNever   SummaryMode = "NEVER"
)

// NotifyConfig holds the webhook notifier settings.
type NotifyConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// URLs receive a JSON {title, body} POST, fire-and-forget.
	URLs []string `mapstructure:"urls"`
	// Summary selects when the per-account summary is delivered.
	Summary SummaryMode `mapstructure:"summary"`
	// IncompleteActivity toggles the end-of-run incomplete report.
	IncompleteActivity bool `mapstructure:"incomplete_activity"`
}

// AccountsConfig locates the accounts credential file.
type AccountsConfig struct {
	File string `mapstructure:"file"`
}

// HistoryConfig locates the points-history artifacts.
type HistoryConfig struct {
	Dir string `mapstructure:"dir"`
}

// SetDefaults registers defaults so the app can run with a minimal config.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "rewards-cli")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 2)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("browser.sessions_dir", "sessions")
	v.SetDefault("browser.geolocation", "US")
	v.SetDefault("browser.navigation_timeout", 60*time.Second)

	v.SetDefault("rewards.base_url", "https://rewards.bing.com/")
	v.SetDefault("rewards.search_url", "https://bing.com/")
	v.SetDefault("rewards.desktop_searches", true)
	v.SetDefault("rewards.mobile_searches", true)

	v.SetDefault("notify.summary", string(SummaryOnError))
	v.SetDefault("notify.incomplete_activity", true)

	v.SetDefault("accounts.file", "accounts.json")
	v.SetDefault("history.dir", "logs")
}

// Load unmarshals the viper tree into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot possibly work.
func (c *Config) Validate() error {
	if c.Rewards.BaseURL == "" {
		return fmt.Errorf("rewards.base_url must not be empty")
	}
	if c.Browser.SessionsDir == "" {
		return fmt.Errorf("browser.sessions_dir must not be empty")
	}
	switch c.Notify.Summary {
	case SummaryAlways, SummaryOnError, SummaryNever, "":
	default:
		return fmt.Errorf("notify.summary: unknown mode %q", c.Notify.Summary)
	}
	if c.Network.Proxy.Enabled && c.Network.Proxy.Address == "" {
		return fmt.Errorf("network.proxy.address required when proxy is enabled")
	}
	return nil
}
