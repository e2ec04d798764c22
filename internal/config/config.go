package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full service configuration.
type Config struct {
	Server    ServerConfig
	Upstream  UpstreamConfig
	Cache     CacheConfig
	Log       LogConfig
	Metrics   MetricsConfig
	ErrReport ErrReportConfig `mapstructure:"err_report"`
	Poll      PollConfig
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// UpstreamConfig points at the CRM REST API the feed consumes.
type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig selects the snapshot cache backend.
// Driver: memory (default), sqlite, postgres.
type CacheConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`  // postgres
	Path   string `mapstructure:"path"` // sqlite
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ErrReportConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
	Release     string `mapstructure:"release"`
}

type PollConfig struct {
	ReadinessInterval    time.Duration `mapstructure:"readiness_interval"`
	ReadinessMaxAttempts int           `mapstructure:"readiness_max_attempts"`
	ActivityInterval     time.Duration `mapstructure:"activity_interval"`
}

// Load reads config.yaml from the working directory when present and lets
// LEADFEED_* environment variables override every key
// (e.g. LEADFEED_UPSTREAM_BASE_URL, LEADFEED_CACHE_DRIVER).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEADFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing file is fine: env + defaults carry a full config.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")

	v.SetDefault("upstream.base_url", "")
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.timeout", 10*time.Second)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.dsn", "")
	v.SetDefault("cache.path", "leadfeed-cache.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("err_report.enabled", false)
	v.SetDefault("err_report.dsn", "")
	v.SetDefault("err_report.environment", "development")
	v.SetDefault("err_report.release", "")

	v.SetDefault("poll.readiness_interval", 2*time.Second)
	v.SetDefault("poll.readiness_max_attempts", 10)
	v.SetDefault("poll.activity_interval", time.Minute)
}
