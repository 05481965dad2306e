package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Weights     WeightsConfig   `mapstructure:"weights"`
	Patterns    PatternsConfig  `mapstructure:"patterns"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
	Sentry      SentryConfig    `mapstructure:"sentry"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	ShutdownTimeout string   `mapstructure:"shutdown_timeout"`
	AdminAPIKey     string   `mapstructure:"admin_api_key" json:"-" yaml:"-"`
}

type DatabaseConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password" json:"-" yaml:"-"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password" json:"-" yaml:"-"`
	DB       int    `mapstructure:"db"`
}

// WeightsConfig controls persistence of the adaptive weight store.
type WeightsConfig struct {
	Persist            bool   `mapstructure:"persist"`
	CheckpointInterval string `mapstructure:"checkpoint_interval"`
}

// PatternsConfig controls variant assignment and result storage.
type PatternsConfig struct {
	MinDataPoints   int    `mapstructure:"min_data_points"`
	Store           bool   `mapstructure:"store"`
	MaxSeriesSize   int    `mapstructure:"max_series_size"`
	Retention       string `mapstructure:"retention"`
	CleanupInterval string `mapstructure:"cleanup_interval"`
}

// RetentionPeriod is how long stored classifications are kept. Zero
// disables cleanup.
func (p PatternsConfig) RetentionPeriod() time.Duration {
	d, err := time.ParseDuration(p.Retention)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func (p PatternsConfig) CleanupEvery() time.Duration {
	d, err := time.ParseDuration(p.CleanupInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Exporter       string `mapstructure:"exporter"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	LogLevel       string `mapstructure:"log_level"`
}

type SentryConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	DSN              string  `mapstructure:"dsn" json:"-" yaml:"-"`
	Environment      string  `mapstructure:"environment"`
	Release          string  `mapstructure:"release"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate"`
}

// Interval returns the parsed checkpoint interval.
func (w WeightsConfig) Interval() time.Duration {
	d, err := time.ParseDuration(w.CheckpointInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Timeout returns the parsed graceful shutdown timeout.
func (s ServerConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("sentry.dsn", "SENTRY_DSN"); err != nil {
		return nil, fmt.Errorf("failed to bind SENTRY_DSN environment variable: %w", err)
	}
	if err := viper.BindEnv("server.admin_api_key", "ADMIN_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind ADMIN_API_KEY environment variable: %w", err)
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Normalize environment to lowercase for consistent comparison
	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the values that cannot be defaulted silently.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
			return fmt.Errorf("invalid shutdown timeout: %w", err)
		}
	}

	if c.Environment == "production" && c.Server.AdminAPIKey == "" {
		return fmt.Errorf("an admin API key is required in production")
	}

	if c.Weights.CheckpointInterval != "" {
		d, err := time.ParseDuration(c.Weights.CheckpointInterval)
		if err != nil {
			return fmt.Errorf("invalid weights checkpoint interval: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("weights checkpoint interval must be positive, got %s", d)
		}
	}

	if c.Weights.Persist && !c.Redis.Enabled {
		return fmt.Errorf("weights persistence requires redis to be enabled")
	}

	if c.Patterns.Store && !c.Database.Enabled {
		return fmt.Errorf("pattern storage requires the database to be enabled")
	}

	if c.Patterns.Retention != "" {
		if _, err := time.ParseDuration(c.Patterns.Retention); err != nil {
			return fmt.Errorf("invalid patterns retention: %w", err)
		}
	}

	if c.Patterns.MinDataPoints < 1 {
		return fmt.Errorf("patterns min_data_points must be at least 1, got %d", c.Patterns.MinDataPoints)
	}

	if c.Sentry.TracesSampleRate < 0 || c.Sentry.TracesSampleRate > 1 {
		return fmt.Errorf("sentry traces sample rate must be between 0 and 1, got %v", c.Sentry.TracesSampleRate)
	}

	switch c.Telemetry.Exporter {
	case "otlp", "stdout":
	default:
		return fmt.Errorf("unknown telemetry exporter %q", c.Telemetry.Exporter)
	}

	return nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.admin_api_key", "")

	// Set database defaults
	viper.SetDefault("database.enabled", true)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "trendpulse")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "300s")
	viper.SetDefault("database.conn_max_idle_time", "60s")

	// Redis
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Weights
	viper.SetDefault("weights.persist", true)
	viper.SetDefault("weights.checkpoint_interval", "30s")

	// Patterns
	viper.SetDefault("patterns.min_data_points", 10)
	viper.SetDefault("patterns.store", true)
	viper.SetDefault("patterns.max_series_size", 10000)
	viper.SetDefault("patterns.retention", "720h")
	viper.SetDefault("patterns.cleanup_interval", "1h")

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.exporter", "otlp")
	viper.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	viper.SetDefault("telemetry.service_name", "trendpulse")
	viper.SetDefault("telemetry.service_version", "1.0.0")
	viper.SetDefault("telemetry.log_level", "info")

	// Sentry
	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "")
	viper.SetDefault("sentry.release", "")
	viper.SetDefault("sentry.traces_sample_rate", 0.0)
}
