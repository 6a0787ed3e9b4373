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
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Cities     CitiesConfig     `yaml:"cities" mapstructure:"cities"`
	Valuation  ValuationConfig  `yaml:"valuation" mapstructure:"valuation"`
	Market     MarketConfig     `yaml:"market" mapstructure:"market"`
	Recommend  RecommendConfig  `yaml:"recommend" mapstructure:"recommend"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
}

// StoreConfig configures the valuation history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// PerplexityConfig holds Perplexity API settings for city enrichment.
type PerplexityConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	Model            string  `yaml:"model" mapstructure:"model"`
	QueriesPerMinute float64 `yaml:"queries_per_minute" mapstructure:"queries_per_minute"`
}

// CitiesConfig configures the known-city profile table.
type CitiesConfig struct {
	// TablePath points to a YAML city table. Empty means the built-in table.
	TablePath string `yaml:"table_path" mapstructure:"table_path"`
}

// ValuationConfig holds the ensemble and interval parameters.
type ValuationConfig struct {
	// ArtifactPath points to the trained model artifact file. Empty means
	// the built-in artifact shipped with the binary.
	ArtifactPath string `yaml:"artifact_path" mapstructure:"artifact_path"`

	// VarianceFraction sets the symmetric interval half-width as a fraction
	// of the point estimate. This is a fixed heuristic, not a statistically
	// derived interval.
	VarianceFraction float64 `yaml:"variance_fraction" mapstructure:"variance_fraction"`

	// CrimeDamping is the per-point price reduction applied for the city
	// crime index: estimate *= 1 - crimeIndex*CrimeDamping.
	CrimeDamping float64 `yaml:"crime_damping" mapstructure:"crime_damping"`

	// BaseConfidence and ConfidenceJitter define the reported confidence
	// score: base ± a bounded random perturbation. A model-quality signal,
	// not measured calibration.
	BaseConfidence   float64 `yaml:"base_confidence" mapstructure:"base_confidence"`
	ConfidenceJitter float64 `yaml:"confidence_jitter" mapstructure:"confidence_jitter"`
}

// MarketSource describes one notional listing platform and the factor
// range its simulated quotes are drawn from.
type MarketSource struct {
	Name      string  `yaml:"name" mapstructure:"name"`
	MinFactor float64 `yaml:"min_factor" mapstructure:"min_factor"`
	MaxFactor float64 `yaml:"max_factor" mapstructure:"max_factor"`
}

// MarketConfig configures the market simulator.
type MarketConfig struct {
	Sources []MarketSource `yaml:"sources" mapstructure:"sources"`
}

// RecommendConfig holds the verdict tier thresholds, as upper bounds on
// percent difference versus the simulated market average. Changing them
// is a product decision, not an algorithmic one.
type RecommendConfig struct {
	StrongBuyMax  float64 `yaml:"strong_buy_max" mapstructure:"strong_buy_max"`
	GoodValueMax  float64 `yaml:"good_value_max" mapstructure:"good_value_max"`
	FairMax       float64 `yaml:"fair_max" mapstructure:"fair_max"`
	OverpricedMax float64 `yaml:"overpriced_max" mapstructure:"overpriced_max"`
}

// BatchConfig configures batch valuation.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VALUATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "valuations.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("perplexity.queries_per_minute", 20)
	v.SetDefault("valuation.variance_fraction", 0.12)
	v.SetDefault("valuation.crime_damping", 0.05)
	v.SetDefault("valuation.base_confidence", 85)
	v.SetDefault("valuation.confidence_jitter", 5)
	v.SetDefault("recommend.strong_buy_max", -10)
	v.SetDefault("recommend.good_value_max", -5)
	v.SetDefault("recommend.fair_max", 5)
	v.SetDefault("recommend.overpriced_max", 15)
	v.SetDefault("batch.concurrency", 4)

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
