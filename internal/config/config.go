package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "OUTCOMES"

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	History  HistoryConfig  `mapstructure:"history"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Report   ReportConfig   `mapstructure:"report"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	// AutoMigrate runs schema migration when the app starts.
	AutoMigrate bool `mapstructure:"auto_migrate"`
	// LockTimeout bounds row lock waits inside aggregate writes. Postgres only.
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	// SlowWrite logs aggregate writes at or above this duration. Zero disables.
	SlowWrite time.Duration `mapstructure:"slow_write"`
}

type LogConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
	// Redact hides secrets and hashes learner ids in log fields.
	Redact   bool   `mapstructure:"redact"`
	HashSalt string `mapstructure:"hash_salt"`
}

// SourcesConfig describes the host platform tables the reports read.
type SourcesConfig struct {
	TablePrefix     string   `mapstructure:"table_prefix"`
	GradebookRoles  []uint   `mapstructure:"gradebook_roles"`
	GuestUserID     uint     `mapstructure:"guest_user_id"`
	ResourceModules []string `mapstructure:"resource_modules"`
}

type HistoryConfig struct {
	Retention time.Duration `mapstructure:"retention"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Addr) != "" }

type ReportConfig struct {
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	Concurrency int           `mapstructure:"concurrency"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	Environment string  `mapstructure:"environment"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "postgres://postgres@localhost:5432/outcomes?sslmode=disable")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.lock_timeout", 5*time.Second)
	v.SetDefault("database.slow_write", 500*time.Millisecond)
	v.SetDefault("log.mode", "production")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.redact", true)
	v.SetDefault("log.hash_salt", "")
	v.SetDefault("sources.table_prefix", "mdl_")
	v.SetDefault("sources.gradebook_roles", []uint{5})
	v.SetDefault("sources.guest_user_id", 1)
	v.SetDefault("sources.resource_modules", []string{})
	v.SetDefault("history.retention", 365*24*time.Hour)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("report.cache_ttl", 5*time.Minute)
	v.SetDefault("report.concurrency", 4)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.environment", "")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// Load reads defaults, then the optional YAML file at path, then
// OUTCOMES_* environment variables (OUTCOMES_DATABASE_DSN and so on).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver: unsupported %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn: required")
	}
	if c.Database.LockTimeout < 0 || c.Database.SlowWrite < 0 {
		return errors.New("database: lock_timeout and slow_write must not be negative")
	}
	if c.History.Retention < 0 {
		return errors.New("history.retention: must not be negative")
	}
	if c.Tracing.Enabled && strings.TrimSpace(c.Tracing.Endpoint) == "" {
		return errors.New("tracing.endpoint: required when tracing is enabled")
	}
	if c.Report.Concurrency < 0 {
		return errors.New("report.concurrency: must not be negative")
	}
	return nil
}
