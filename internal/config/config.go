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
	Estima   EstimaConfig   `yaml:"estima" mapstructure:"estima"`
	Riskcast RiskcastConfig `yaml:"riskcast" mapstructure:"riskcast"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Personas PersonasConfig `yaml:"personas" mapstructure:"personas"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// EstimaConfig holds estimation service credentials and limits.
type EstimaConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second
	Burst     int     `yaml:"burst" mapstructure:"burst"`
}

// RiskcastConfig holds risk service credentials and limits.
type RiskcastConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst     int     `yaml:"burst" mapstructure:"burst"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// AnalysisConfig holds defaults applied to every analysis run.
type AnalysisConfig struct {
	ProjectLifetimeYears int `yaml:"project_lifetime_years" mapstructure:"project_lifetime_years"`
}

// PersonasConfig points to an external persona catalog. An empty path uses
// the catalog compiled into the binary.
type PersonasConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("RENOPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.concurrency", 3)
	v.SetDefault("analysis.project_lifetime_years", 30)
	v.SetDefault("estima.base_url", "https://api.estima.energy/v1")
	v.SetDefault("estima.rate_limit", 10.0)
	v.SetDefault("estima.burst", 5)
	v.SetDefault("riskcast.base_url", "https://api.riskcast.io/v1")
	v.SetDefault("riskcast.rate_limit", 10.0)
	v.SetDefault("riskcast.burst", 5)

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

// Validate checks the fields the given mode actually needs. Modes are the
// CLI subcommands: "analyze", "rank" and "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 50 {
		problems = append(problems, "batch.concurrency must be between 1 and 50")
	}
	if c.Analysis.ProjectLifetimeYears < 1 {
		problems = append(problems, "analysis.project_lifetime_years must be >= 1")
	}

	switch mode {
	case "analyze", "serve":
		if c.Estima.Key == "" {
			problems = append(problems, "estima.key is required")
		}
		if c.Riskcast.Key == "" {
			problems = append(problems, "riskcast.key is required")
		}
		if mode == "serve" && c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "rank", "personas":
		// Ranking is offline; only the catalog matters and a missing
		// path falls back to the embedded one.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
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
