package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config holds all configuration for our application.
// Keys are flat environment names; the sections only group them.
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	RateLimit RateLimitConfig `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"DATABASE_DRIVER"`
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
	TxTimeout       time.Duration `mapstructure:"DATABASE_TX_TIMEOUT"`
	AutoMigrate     bool          `mapstructure:"DATABASE_AUTO_MIGRATE"`
}

type RedisConfig struct {
	Host     string        `mapstructure:"REDIS_HOST"`
	Port     string        `mapstructure:"REDIS_PORT"`
	Password string        `mapstructure:"REDIS_PASSWORD"`
	DB       int           `mapstructure:"REDIS_DB"`
	CacheTTL time.Duration `mapstructure:"REDIS_CACHE_TTL"`
}

type SchedulerConfig struct {
	OverdueSpec string `mapstructure:"SCHEDULER_OVERDUE_SPEC"`
	Timezone    string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"RATE_LIMIT_RPS"`
	Burst             int     `mapstructure:"RATE_LIMIT_BURST"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]any{
	"SERVER_PORT":                "8080",
	"SERVER_HOST":                "0.0.0.0",
	"ENV":                        "development",
	"SERVER_READ_TIMEOUT":        "15s",
	"SERVER_WRITE_TIMEOUT":       "15s",
	"DATABASE_DRIVER":            DriverPostgres,
	"DATABASE_URL":               "",
	"DATABASE_MAX_OPEN_CONNS":    25,
	"DATABASE_MAX_IDLE_CONNS":    5,
	"DATABASE_CONN_MAX_LIFETIME": "30m",
	"DATABASE_TX_TIMEOUT":        "10s",
	"DATABASE_AUTO_MIGRATE":      true,
	"REDIS_HOST":                 "localhost",
	"REDIS_PORT":                 "6379",
	"REDIS_PASSWORD":             "",
	"REDIS_DB":                   0,
	"REDIS_CACHE_TTL":            "10m",
	"SCHEDULER_OVERDUE_SPEC":     "0 0 0 * * *",
	"SCHEDULER_TIMEZONE":         "Asia/Jakarta",
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "",
	"RATE_LIMIT_RPS":             20.0,
	"RATE_LIMIT_BURST":           40,
	"HEALTH_CHECK_TIMEOUT":       "5s",
}

// Load reads configuration from defaults, an optional config file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Every key needs a default, otherwise AutomaticEnv values are not unmarshalled
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}

	if c.Database.Driver == DriverSQLite {
		if err := c.Database.validateSQLite(); err != nil {
			return err
		}
	}

	if c.Database.TxTimeout <= 0 {
		return fmt.Errorf("DATABASE_TX_TIMEOUT must be greater than 0")
	}

	if c.Redis.CacheTTL < 0 {
		return fmt.Errorf("REDIS_CACHE_TTL must not be negative")
	}

	if _, err := cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	).Parse(c.Scheduler.OverdueSpec); err != nil {
		return fmt.Errorf("SCHEDULER_OVERDUE_SPEC must be a valid cron expression: %w", err)
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid location: %w", err)
	}

	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be greater than 0")
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}

	if c.Health.Timeout <= 0 {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be greater than 0")
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// LogFormat returns LOG_FORMAT, or console output in development and JSON elsewhere when unset
func (c *Config) LogFormat() string {
	if c.Logging.Format != "" {
		return c.Logging.Format
	}
	if c.IsDevelopment() {
		return "console"
	}
	return "json"
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// RedisAddr returns the host:port of the Redis server
func (r RedisConfig) RedisAddr() string {
	return r.Host + ":" + r.Port
}

// sqliteOptions are the go-sqlite3 connection options the ledger relies on.
// Immediate transactions take the write lock at BEGIN, which is what
// serializes concurrent writers. Each option is added unless the URL already
// sets it under any of its names.
var sqliteOptions = []struct {
	names []string
	value string
}{
	{names: []string{"_foreign_keys", "_fk"}, value: "on"},
	{names: []string{"_txlock"}, value: "immediate"},
	{names: []string{"_busy_timeout", "_timeout"}, value: "10000"},
	{names: []string{"_journal_mode", "_journal"}, value: "WAL"},
}

// MigrationURL returns the database URL in the form golang-migrate expects
func (d DatabaseConfig) MigrationURL() string {
	if d.Driver == DriverSQLite {
		return "sqlite3://" + d.DSN()
	}
	return d.URL
}

// DSN returns the data source name handed to the database/sql driver
func (d DatabaseConfig) DSN() string {
	if d.Driver != DriverSQLite {
		return d.URL
	}

	path, rawQuery, _ := strings.Cut(strings.TrimPrefix(d.URL, "sqlite3://"), "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		// Rejected by Validate
		return strings.TrimPrefix(d.URL, "sqlite3://")
	}

	for _, opt := range sqliteOptions {
		if lookup(query, opt.names) == "" {
			query.Set(opt.names[0], opt.value)
		}
	}
	return path + "?" + query.Encode()
}

// validateSQLite rejects URL options that turn off foreign keys or let
// writers start deferred transactions
func (d DatabaseConfig) validateSQLite() error {
	_, rawQuery, _ := strings.Cut(d.URL, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return fmt.Errorf("DATABASE_URL has malformed options: %w", err)
	}

	switch strings.ToLower(lookup(query, []string{"_foreign_keys", "_fk"})) {
	case "", "1", "yes", "true", "on":
	default:
		return fmt.Errorf("DATABASE_URL must not disable foreign keys")
	}

	switch strings.ToLower(query.Get("_txlock")) {
	case "", "immediate", "exclusive":
	default:
		return fmt.Errorf("DATABASE_URL _txlock must be immediate or exclusive")
	}

	return nil
}

func lookup(query url.Values, names []string) string {
	for _, name := range names {
		if v := query.Get(name); v != "" {
			return v
		}
	}
	return ""
}
