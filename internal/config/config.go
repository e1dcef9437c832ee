package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Defaults applied when the config file is absent or leaves keys unset.
const (
	DefaultSMTPHost     = "smtp.gmail.com"
	DefaultSMTPPort     = 587
	DefaultScanInterval = time.Minute
	DefaultDayLead      = 24 * time.Hour
	DefaultHourLead     = time.Hour
	DefaultServerAddr   = ":5000"
)

// Config is the top-level application configuration, constructed once
// at startup and passed into the components that need it.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	SMTP     SMTPConfig     `mapstructure:"smtp" yaml:"smtp"`
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
	Scan     ScanConfig     `mapstructure:"scan" yaml:"scan"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

// DatabaseConfig locates the task database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// SMTPConfig holds the outbound email settings. Port 465 uses implicit
// TLS; 587 and 25 use STARTTLS.
type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`

	// From is the envelope sender; falls back to Username when empty.
	From string `mapstructure:"from" yaml:"from"`

	// DefaultTo is the fallback reminder recipient for tasks without
	// their own notify address.
	DefaultTo string `mapstructure:"default_to" yaml:"default_to"`

	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// TelegramConfig holds the optional secondary notification channel.
type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Token   string `mapstructure:"token" yaml:"token"`
	ChatID  int64  `mapstructure:"chat_id" yaml:"chat_id"`
}

// ScanConfig drives the deadline scanner. The leads are fixed at one
// day and one hour in practice but kept as durations for testability.
type ScanConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	DayLead  time.Duration `mapstructure:"day_lead" yaml:"day_lead"`
	HourLead time.Duration `mapstructure:"hour_lead" yaml:"hour_lead"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Sender returns the envelope sender address.
func (c SMTPConfig) Sender() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskherald/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskherald", "config.yaml")
}

// defaultDBPath returns the default sqlite database location.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "taskherald.db")
	}
	return filepath.Join(home, ".config", "taskherald", "tasks.db")
}

// defaultConfig returns a sensible default configuration.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: defaultDBPath()},
		SMTP: SMTPConfig{
			Host: DefaultSMTPHost,
			Port: DefaultSMTPPort,
		},
		Scan: ScanConfig{
			Interval: DefaultScanInterval,
			DayLead:  DefaultDayLead,
			HourLead: DefaultHourLead,
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}

// Load reads configuration from the given YAML file path using Viper,
// then applies environment variable overrides. If the file does not
// exist, the defaults are used.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("database.path", defaultDBPath())
	v.SetDefault("smtp.host", DefaultSMTPHost)
	v.SetDefault("smtp.port", DefaultSMTPPort)
	v.SetDefault("scan.interval", DefaultScanInterval)
	v.SetDefault("scan.day_lead", DefaultDayLead)
	v.SetDefault("scan.hour_lead", DefaultHourLead)
	v.SetDefault("server.addr", DefaultServerAddr)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides layers TASKHERALD_* environment variables over the
// file-based configuration so credentials can stay out of the file.
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("TASKHERALD_SMTP_HOST"); host != "" {
		cfg.SMTP.Host = host
	}
	if user := os.Getenv("TASKHERALD_SMTP_USER"); user != "" {
		cfg.SMTP.Username = user
	}
	if pass := os.Getenv("TASKHERALD_SMTP_PASS"); pass != "" {
		cfg.SMTP.Password = pass
	}
	if from := os.Getenv("TASKHERALD_SMTP_FROM"); from != "" {
		cfg.SMTP.From = from
	}
	if to := os.Getenv("TASKHERALD_SMTP_TO"); to != "" {
		cfg.SMTP.DefaultTo = to
	}
	if token := os.Getenv("TASKHERALD_TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
	if path := os.Getenv("TASKHERALD_DB_PATH"); path != "" {
		cfg.Database.Path = path
	}
}

// Save writes the given configuration to a YAML file at path, creating
// parent directories if needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("smtp", cfg.SMTP)
	v.Set("telegram", cfg.Telegram)
	v.Set("scan", cfg.Scan)
	v.Set("server", cfg.Server)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
