package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Refdata RefdataConfig `yaml:"refdata" mapstructure:"refdata"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port             int `yaml:"port" mapstructure:"port"`
	ReadTimeoutSecs  int `yaml:"read_timeout_secs" mapstructure:"read_timeout_secs"`
	WriteTimeoutSecs int `yaml:"write_timeout_secs" mapstructure:"write_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// RefdataConfig selects the reference tables. An empty Dir uses the
// embedded release.
type RefdataConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ScoringConfig pins the evaluation year. Zero means the current calendar year.
type ScoringConfig struct {
	AsOfYear int `yaml:"as_of_year" mapstructure:"as_of_year"`
}

// APIConfig configures request handling in front of the engine.
// TrustedProxies lists peers (addresses or CIDRs) whose X-Forwarded-For and
// X-Real-IP headers are believed; when empty the connection address is used.
type APIConfig struct {
	RateLimitRPS    float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst  int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	CORSOrigins     []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	AdminAllowedIPs []string `yaml:"admin_allowed_ips" mapstructure:"admin_allowed_ips"`
	AdminAPIKey     string   `yaml:"admin_api_key" mapstructure:"admin_api_key"`
	TrustedProxies  []string `yaml:"trusted_proxies" mapstructure:"trusted_proxies"`
	HSTS            bool     `yaml:"hsts" mapstructure:"hsts"`
}

// BatchConfig configures batch scoring.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// MetricsConfig configures the background report-stats poller.
type MetricsConfig struct {
	RefreshIntervalSecs int `yaml:"refresh_interval_secs" mapstructure:"refresh_interval_secs"`
	LookbackDays        int `yaml:"lookback_days" mapstructure:"lookback_days"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EVRISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "evrisk.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_secs", 10)
	v.SetDefault("server.write_timeout_secs", 15)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("refdata.dir", "")
	v.SetDefault("scoring.as_of_year", 0)
	v.SetDefault("api.rate_limit_rps", 5)
	v.SetDefault("api.rate_limit_burst", 10)
	v.SetDefault("api.cors_origins", []string{"*"})
	v.SetDefault("api.admin_allowed_ips", []string{})
	v.SetDefault("api.admin_api_key", "")
	v.SetDefault("api.trusted_proxies", []string{})
	v.SetDefault("api.hsts", false)
	v.SetDefault("batch.concurrency", 8)
	v.SetDefault("metrics.refresh_interval_secs", 60)
	v.SetDefault("metrics.lookback_days", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
