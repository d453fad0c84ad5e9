// Package config loads and validates archiver configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mwhitaker/foia-archive/internal/archive"
	"github.com/mwhitaker/foia-archive/internal/storage"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Hub     HubConfig      `mapstructure:"foiahub"`
	Crawler CrawlerConfig  `mapstructure:"crawler"`
	DB      DBConfig       `mapstructure:"db"`
	Files   storage.Config `mapstructure:"files"`
	Server  ServerConfig   `mapstructure:"server"`
	Logging LoggingConfig  `mapstructure:"logging"`
}

// HubConfig points at the upstream agency directory.
type HubConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	APIKey         string `mapstructure:"api_key"`
	RequireAPIKey  bool   `mapstructure:"require_api_key"`
	PageSize       int    `mapstructure:"page_size"`
	MaxPages       int    `mapstructure:"max_pages"`
}

// CrawlerConfig governs crawl pipeline behavior.
type CrawlerConfig struct {
	UserAgent         string  `mapstructure:"user_agent"`
	Mode              string  `mapstructure:"mode"`
	MaxDocsPerSource  int     `mapstructure:"max_docs_per_source"`
	RoomLimit         int     `mapstructure:"room_limit"`
	Concurrency       int     `mapstructure:"concurrency"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	RespectRobots     bool    `mapstructure:"respect_robots"`
	IntervalHours     float64 `mapstructure:"interval_hours"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
}

// DBConfig controls access to the catalog database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// ServerConfig controls the read-only browse server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FOIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("foiahub.base_url", "https://www.foia.gov/api")
	v.SetDefault("foiahub.timeout_seconds", 30)
	v.SetDefault("foiahub.require_api_key", false)
	v.SetDefault("foiahub.page_size", 0)
	v.SetDefault("foiahub.max_pages", 500)
	v.SetDefault("crawler.user_agent", "FOIAArchiveBot/0.1")
	v.SetDefault("crawler.mode", string(archive.ModeSimulate))
	v.SetDefault("crawler.max_docs_per_source", 10)
	v.SetDefault("crawler.room_limit", 0)
	v.SetDefault("crawler.concurrency", 1)
	v.SetDefault("crawler.requests_per_second", 2.0)
	v.SetDefault("crawler.respect_robots", true)
	v.SetDefault("crawler.interval_hours", 6)
	v.SetDefault("crawler.timeout_seconds", 60)
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("files.provider", "local")
	v.SetDefault("files.base_dir", "data/files")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. A missing required
// access key is reported here, before any network call is attempted.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Hub.BaseURL) == "" {
		return fmt.Errorf("foiahub.base_url is required")
	}
	if c.Hub.TimeoutSeconds <= 0 {
		return fmt.Errorf("foiahub.timeout_seconds must be > 0")
	}
	if c.Hub.RequireAPIKey && c.Hub.APIKey == "" {
		return fmt.Errorf("foiahub.api_key must be set when foiahub.require_api_key is enabled")
	}
	if _, err := archive.ParseMode(c.Crawler.Mode); err != nil {
		return err
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// Mode returns the validated default crawl mode.
func (c Config) Mode() archive.Mode {
	mode, err := archive.ParseMode(c.Crawler.Mode)
	if err != nil {
		return archive.ModeSimulate
	}
	return mode
}

// HubTimeout converts the directory timeout into a duration.
func (c Config) HubTimeout() time.Duration {
	return time.Duration(c.Hub.TimeoutSeconds) * time.Second
}

// CrawlTimeout converts the page/download timeout into a duration.
func (c Config) CrawlTimeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}

// Interval converts the scheduler interval into a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Crawler.IntervalHours * float64(time.Hour))
}
