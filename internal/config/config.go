package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the static process configuration. Credentials and other
// operator-editable values live in Settings instead.
type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Database  DatabaseConfig    `yaml:"database"`
	JWT       JWTConfig         `yaml:"jwt"`
	Log       LogConfig         `yaml:"log"`
	Providers ProvidersConfig   `yaml:"providers"`
	Scheduler SchedulerConfig   `yaml:"scheduler"`
	Ledger    LedgerConfig      `yaml:"ledger"`
	Webhook   WebhookConfig     `yaml:"webhook"`
	Settings  map[string]string `yaml:"settings"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST"`
	Port int    `yaml:"port" env:"SERVER_PORT"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Database string `yaml:"database" env:"DB_NAME"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE"`
	Migrate  bool   `yaml:"migrate" env:"DB_MIGRATE"`
}

// JWTConfig contains operator token settings
type JWTConfig struct {
	Secret            string `yaml:"secret" env:"JWT_SECRET"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes" env:"JWT_ACCESS_EXPIRY_MINUTES"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format" env:"LOG_FORMAT"` // "json" or "text"
}

// ProvidersConfig bounds every outbound provider call
type ProvidersConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"PROVIDER_TIMEOUT_SECONDS"`
	RetryMax       int    `yaml:"retry_max" env:"PROVIDER_RETRY_MAX"`
	CertDir        string `yaml:"cert_dir" env:"PROVIDER_CERT_DIR"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	Enabled          bool   `yaml:"enabled" env:"SCHEDULER_ENABLED"`
	AccountantExport string `yaml:"accountant_export" env:"SCHEDULE_ACCOUNTANT_EXPORT"`
	Timezone         string `yaml:"timezone" env:"SCHEDULE_TIMEZONE"`
}

// LedgerConfig holds the allow-list for manual expense categories
type LedgerConfig struct {
	ExpenseCategories []string `yaml:"expense_categories" env:"LEDGER_EXPENSE_CATEGORIES" envSeparator:","`
}

// WebhookConfig contains gateway webhook settings
type WebhookConfig struct {
	Token       string `yaml:"token" env:"WEBHOOK_TOKEN"`
	JournalPath string `yaml:"journal_path" env:"WEBHOOK_JOURNAL_PATH"`
}

const (
	maxRetries     = 3
	minSecretBytes = 32
)

var defaultExpenseCategories = []string{
	"Royalties", "Contador", "Taxa de aluguel de espaço", "Cooperloc",
	"Fundo de marketing", "Taxa de publicidade", "Licenciamento",
	"IPVA", "Seguros", "Pró-labore", "Manutenção",
}

// Load reads configuration from a YAML file and overlays the environment
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks required values and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if len(c.JWT.Secret) < minSecretBytes {
		return fmt.Errorf("JWT secret must be at least %d characters", minSecretBytes)
	}
	if c.JWT.AccessTokenExpiry <= 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Providers.TimeoutSeconds <= 0 {
		c.Providers.TimeoutSeconds = 15
	}
	if c.Providers.RetryMax < 0 {
		c.Providers.RetryMax = 0
	}
	if c.Providers.RetryMax > maxRetries {
		c.Providers.RetryMax = maxRetries
	}
	if c.Providers.CertDir == "" {
		c.Providers.CertDir = "certs"
	}

	if c.Scheduler.AccountantExport == "" {
		c.Scheduler.AccountantExport = "0 0 8 5 * *" // 5th of month at 08:00
	}
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = "America/Sao_Paulo"
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("invalid scheduler timezone %q: %w", c.Scheduler.Timezone, err)
	}

	if len(c.Ledger.ExpenseCategories) == 0 {
		c.Ledger.ExpenseCategories = append([]string(nil), defaultExpenseCategories...)
	}

	if c.Webhook.JournalPath == "" {
		c.Webhook.JournalPath = "data/webhook-journal.db"
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ProviderTimeout is the per-request bound applied to every provider call
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Providers.TimeoutSeconds) * time.Second
}

// Location returns the scheduler timezone; Validate guarantees it loads
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
