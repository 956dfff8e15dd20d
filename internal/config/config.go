package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Crawl      CrawlConfig      `mapstructure:"crawl"`
	Retention  RetentionConfig  `mapstructure:"retention"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path       string `mapstructure:"path"`
	BackupDir  string `mapstructure:"backup_dir"`
	SeedSample bool   `mapstructure:"seed_sample"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// CrawlConfig holds crawl orchestration configuration.
type CrawlConfig struct {
	Platforms     []string `mapstructure:"platforms"`
	Keywords      []string `mapstructure:"keywords"`
	MaxKeywords   int      `mapstructure:"max_keywords"`
	MaxNotes      int      `mapstructure:"max_notes"`
	DeepSentiment bool     `mapstructure:"deep_sentiment"`
	TimeoutSec    int      `mapstructure:"timeout_sec"`
	Command       string   `mapstructure:"command"`
	Args          []string `mapstructure:"args"`
	WorkDir       string   `mapstructure:"work_dir"`
	Times         []string `mapstructure:"times"`
}

// RetentionConfig holds data retention configuration.
type RetentionConfig struct {
	Days       int    `mapstructure:"days"`
	BackupDays int    `mapstructure:"backup_days"`
	Time       string `mapstructure:"time"`
}

// ClassifierConfig holds sentiment classifier configuration.
type ClassifierConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
}

// Timeout returns the per-platform crawl timeout as a duration.
func (c *CrawlConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 600 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// Default returns a Config with default values.
func Default() *Config {
	cfg := &Config{}
	v := viper.New()
	setDefaults(v)
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.brandpulse")
	}

	v.SetEnvPrefix("BRANDPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8650)

	v.SetDefault("database.path", "./data/brandpulse.db")
	v.SetDefault("database.backup_dir", "./data/backups")
	v.SetDefault("database.seed_sample", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("crawl.platforms", []string{"xhs", "dy", "wb", "bili"})
	v.SetDefault("crawl.keywords", []string{})
	v.SetDefault("crawl.max_keywords", 10)
	v.SetDefault("crawl.max_notes", 20)
	v.SetDefault("crawl.deep_sentiment", true)
	v.SetDefault("crawl.timeout_sec", 600)
	v.SetDefault("crawl.command", "")
	v.SetDefault("crawl.args", []string{})
	v.SetDefault("crawl.work_dir", "")
	v.SetDefault("crawl.times", []string{"08:00", "13:00", "20:00"})

	v.SetDefault("retention.days", 14)
	v.SetDefault("retention.backup_days", 30)
	v.SetDefault("retention.time", "02:00")

	v.SetDefault("classifier.endpoint", "https://api.deepseek.com/chat/completions")
	v.SetDefault("classifier.model", "deepseek-chat")
	v.SetDefault("classifier.api_key", "")
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
