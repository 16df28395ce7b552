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
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Matcher MatcherConfig `yaml:"matcher" mapstructure:"matcher"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database holding the reference table.
type StoreConfig struct {
	Driver          string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL     string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns        int32  `yaml:"max_conns" mapstructure:"max_conns"`
	ConnectAttempts int    `yaml:"connect_attempts" mapstructure:"connect_attempts"`
}

// DatasetConfig points at a crop tolerance file. When Path is empty the
// table comes from the store, or from the embedded sample when the store is
// empty.
type DatasetConfig struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Sheet string `yaml:"sheet" mapstructure:"sheet"`
}

// MatcherConfig configures crop matching.
type MatcherConfig struct {
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
	Limit     int     `yaml:"limit" mapstructure:"limit"`

	// FallbackSameSoil restricts the nearest-match scan to records of the
	// query's soil type. Off by default: the fallback scans the whole table.
	FallbackSameSoil bool `yaml:"fallback_same_soil" mapstructure:"fallback_same_soil"`

	Weights WeightConfig `yaml:"weights" mapstructure:"weights"`
}

// WeightConfig holds the per-reading importance weights of the fallback
// distance.
type WeightConfig struct {
	Nitrogen   float64 `yaml:"nitrogen" mapstructure:"nitrogen"`
	Phosphorus float64 `yaml:"phosphorus" mapstructure:"phosphorus"`
	Potassium  float64 `yaml:"potassium" mapstructure:"potassium"`
	PH         float64 `yaml:"ph" mapstructure:"ph"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	RateLimit   float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst   int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "crops.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.connect_attempts", 3)
	v.SetDefault("dataset.path", "")
	v.SetDefault("dataset.sheet", "")
	v.SetDefault("matcher.threshold", 5.0)
	v.SetDefault("matcher.limit", 3)
	v.SetDefault("matcher.fallback_same_soil", false)
	v.SetDefault("matcher.weights.nitrogen", 2.0)
	v.SetDefault("matcher.weights.phosphorus", 1.5)
	v.SetDefault("matcher.weights.potassium", 1.0)
	v.SetDefault("matcher.weights.ph", 0.5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the keys a command mode depends on. Known modes are
// "recommend", "store" and "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "recommend":
	case "store":
		errs = append(errs, c.validateStore()...)
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
			errs = append(errs, "server.rate_burst must be >= 1 when rate limiting is enabled")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	case "":
		errs = append(errs, "store.driver is required")
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
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
