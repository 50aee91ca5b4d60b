package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zakupwatch/lotscan/internal/scorer"
	"github.com/zakupwatch/lotscan/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Scrape ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	Store  store.Config  `yaml:"store" mapstructure:"store"`
	Scorer scorer.Config `yaml:"scorer" mapstructure:"scorer"`
	Log    LogConfig     `yaml:"log" mapstructure:"log"`
}

// ScrapeConfig configures the upstream fetch behavior.
type ScrapeConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	CountRecord int    `yaml:"count_record" mapstructure:"count_record"`
	DelaySecs   int    `yaml:"delay_secs" mapstructure:"delay_secs"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Delay returns the minimum inter-request spacing.
func (c ScrapeConfig) Delay() time.Duration {
	return time.Duration(c.DelaySecs) * time.Second
}

// Timeout returns the per-request transport timeout.
func (c ScrapeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
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
	v.SetEnvPrefix("LOTSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("scrape.base_url", "https://goszakup.gov.kz/ru/search/lots")
	v.SetDefault("scrape.count_record", 2000)
	v.SetDefault("scrape.delay_secs", 1)
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "lots.db")
	v.SetDefault("store.dedup", false)
	v.SetDefault("scorer.models_dir", "models")
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
