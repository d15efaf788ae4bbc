// Package config loads application configuration from file and environment
// and initializes the global logger.
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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Definitive DefinitiveConfig `yaml:"definitive" mapstructure:"definitive"`
	Apollo     ApolloConfig     `yaml:"apollo" mapstructure:"apollo"`
	Directory  DirectoryConfig  `yaml:"directory" mapstructure:"directory"`
	Match      MatchConfig      `yaml:"match" mapstructure:"match"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Contacts   ContactsConfig   `yaml:"contacts" mapstructure:"contacts"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
}

// DefinitiveConfig holds directory API settings.
type DefinitiveConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ApolloConfig holds people-enrichment API settings.
type ApolloConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// DirectoryConfig configures the in-memory directory cache.
type DirectoryConfig struct {
	TTLHours  int `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	PageLimit int `yaml:"page_limit" mapstructure:"page_limit"`
}

// MatchConfig configures entity resolution scoring.
type MatchConfig struct {
	AcceptThreshold float64 `yaml:"accept_threshold" mapstructure:"accept_threshold"`
	ContainsBoost   float64 `yaml:"contains_boost" mapstructure:"contains_boost"`
	ContainedBoost  float64 `yaml:"contained_boost" mapstructure:"contained_boost"`
	SearchLimit     int     `yaml:"search_limit" mapstructure:"search_limit"`
}

// EnrichConfig configures batch enrichment.
type EnrichConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ContactsConfig configures contact-merge name matching.
type ContactsConfig struct {
	LastNameThreshold  float64 `yaml:"last_name_threshold" mapstructure:"last_name_threshold"`
	FirstNameThreshold float64 `yaml:"first_name_threshold" mapstructure:"first_name_threshold"`
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
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to empty so env-only values survive Unmarshal.
	v.SetDefault("store.database_url", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("definitive.key", "")
	v.SetDefault("apollo.key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("definitive.base_url", "https://api.defhc.com/v4")
	v.SetDefault("apollo.base_url", "https://api.apollo.io/api/v1")
	v.SetDefault("directory.ttl_hours", 24)
	v.SetDefault("directory.page_limit", 7000)
	v.SetDefault("match.accept_threshold", 0.4)
	v.SetDefault("match.contains_boost", 0.10)
	v.SetDefault("match.contained_boost", 0.05)
	v.SetDefault("match.search_limit", 20)
	v.SetDefault("enrich.workers", 1)
	v.SetDefault("contacts.last_name_threshold", 0.9)
	v.SetDefault("contacts.first_name_threshold", 0.6)

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
