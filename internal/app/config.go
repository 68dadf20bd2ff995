package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/pagecraft-backend/internal/data/db"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/quality"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/rotation"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/steps"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/variation"
	"github.com/yungbote/pagecraft-backend/internal/observability"
	"github.com/yungbote/pagecraft-backend/internal/platform/envutil"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
	"github.com/yungbote/pagecraft-backend/internal/services"
)

const configPathEnv = "PAGECRAFT_CONFIG_PATH"

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type GenerationConfig struct {
	MaxCombinations  int           `yaml:"max_combinations"`
	BatchSize        int           `yaml:"batch_size"`
	RotationStrategy string        `yaml:"rotation_strategy"`
	TotalVariations  int           `yaml:"total_variations"`
	MaxAttempts      int           `yaml:"max_attempts"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
	SynthesisTimeout time.Duration `yaml:"synthesis_timeout"`
	PatternLogSize   int           `yaml:"pattern_log_size"`

	strategy rotation.Strategy
}

// Strategy is the parsed RotationStrategy; valid after LoadConfig.
func (g GenerationConfig) Strategy() rotation.Strategy { return g.strategy }

type QualityConfig struct {
	MinWords  int     `yaml:"min_words"`
	Threshold float64 `yaml:"threshold"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

type Config struct {
	LogMode        string                   `yaml:"log_mode"`
	MetricsEnabled bool                     `yaml:"metrics_enabled"`
	HTTP           HTTPConfig               `yaml:"http"`
	DB             db.Config                `yaml:"db"`
	Generation     GenerationConfig         `yaml:"generation"`
	Quality        QualityConfig            `yaml:"quality"`
	OpenAI         OpenAIConfig             `yaml:"openai"`
	Redis          RedisConfig              `yaml:"redis"`
	Otel           observability.OtelConfig `yaml:"otel"`
}

func defaultConfig() Config {
	return Config{
		LogMode:        "development",
		MetricsEnabled: true,
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
		DB: db.Config{
			Driver:  db.DriverPostgres,
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "pagecraft",
			SSLMode: "disable",
		},
		Generation: GenerationConfig{
			MaxCombinations:  services.DefaultMaxCombinations,
			BatchSize:        steps.DefaultBatchSize,
			RotationStrategy: rotation.DefaultStrategy.String(),
			TotalVariations:  steps.DefaultTotalVariations,
			MaxAttempts:      steps.DefaultMaxAttempts,
			RetryBackoff:     steps.DefaultRetryBackoff,
			SynthesisTimeout: 60 * time.Second,
			PatternLogSize:   variation.DefaultPatternLogSize,
		},
		Quality: QualityConfig{
			MinWords:  quality.DefaultMinWords,
			Threshold: quality.DefaultThreshold,
		},
		Redis: RedisConfig{Channel: "pagecraft.generation"},
		Otel: observability.OtelConfig{
			ServiceName: "pagecraft-backend",
			SampleRatio: 1,
		},
	}
}

// LoadConfig layers defaults, the optional YAML file named by
// PAGECRAFT_CONFIG_PATH, then environment overrides.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv(configPathEnv)); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}
	applyEnv(&cfg)
	if err := cfg.normalize(log); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled)

	if port := envutil.String("PORT", ""); port != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	cfg.HTTP.Addr = envutil.String("HTTP_ADDR", cfg.HTTP.Addr)
	if origins := envutil.String("CORS_ORIGINS", ""); origins != "" {
		cfg.HTTP.CORSOrigins = splitList(origins)
	}

	cfg.DB.Driver = envutil.String("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.DSN = envutil.String("DATABASE_URL", cfg.DB.DSN)
	cfg.DB.Host = envutil.String("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envutil.String("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = envutil.String("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Password = envutil.String("POSTGRES_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = envutil.String("POSTGRES_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.SQLitePath = envutil.String("SQLITE_PATH", cfg.DB.SQLitePath)

	g := &cfg.Generation
	g.MaxCombinations = envutil.Int("MAX_COMBINATIONS", g.MaxCombinations)
	g.BatchSize = envutil.Int("GENERATION_BATCH_SIZE", g.BatchSize)
	g.RotationStrategy = envutil.String("ROTATION_STRATEGY", g.RotationStrategy)
	g.TotalVariations = envutil.Int("TOTAL_VARIATIONS", g.TotalVariations)
	g.MaxAttempts = envutil.Int("SYNTHESIS_MAX_ATTEMPTS", g.MaxAttempts)
	g.RetryBackoff = envutil.Duration("SYNTHESIS_RETRY_BACKOFF", g.RetryBackoff)
	g.SynthesisTimeout = envutil.Duration("SYNTHESIS_TIMEOUT", g.SynthesisTimeout)
	g.PatternLogSize = envutil.Int("PATTERN_LOG_SIZE", g.PatternLogSize)

	cfg.Quality.MinWords = envutil.Int("QUALITY_MIN_WORDS", cfg.Quality.MinWords)
	cfg.Quality.Threshold = envutil.Float("QUALITY_THRESHOLD", cfg.Quality.Threshold)

	cfg.OpenAI.APIKey = envutil.String("OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.Model = envutil.String("OPENAI_MODEL", cfg.OpenAI.Model)
	cfg.OpenAI.BaseURL = envutil.String("OPENAI_BASE_URL", cfg.OpenAI.BaseURL)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)

	o := &cfg.Otel
	o.Enabled = envutil.Bool("OTEL_ENABLED", o.Enabled)
	o.ServiceName = envutil.String("OTEL_SERVICE_NAME", o.ServiceName)
	o.Environment = envutil.String("OTEL_ENVIRONMENT", o.Environment)
	o.Version = envutil.String("OTEL_SERVICE_VERSION", o.Version)
	o.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", o.Endpoint)
	if raw := envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""); raw != "" {
		o.Headers = observability.ParseHeaders(raw)
	}
	o.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", o.Insecure)
	o.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", o.SampleRatio)
}

// normalize clamps numeric options into their supported ranges and parses
// the rotation strategy. Only an unknown strategy or db driver is an error.
func (c *Config) normalize(log *logger.Logger) error {
	g := &c.Generation
	requested := g.MaxCombinations
	g.MaxCombinations = services.EffectiveMaxCombinations(0, g.MaxCombinations)
	if requested > services.HardMaxCombinations && log != nil {
		log.Warn("max_combinations clamped", "requested", requested, "max", g.MaxCombinations)
	}
	g.BatchSize = steps.ClampBatchSize(g.BatchSize)
	if g.TotalVariations <= 0 {
		g.TotalVariations = steps.DefaultTotalVariations
	}
	if g.MaxAttempts <= 0 {
		g.MaxAttempts = steps.DefaultMaxAttempts
	}
	if g.RetryBackoff < 0 {
		g.RetryBackoff = 0
	}
	if g.PatternLogSize <= 0 {
		g.PatternLogSize = variation.DefaultPatternLogSize
	}
	st, err := rotation.ParseStrategy(g.RotationStrategy)
	if err != nil {
		return fmt.Errorf("generation.rotation_strategy: %w", err)
	}
	g.strategy = st
	g.RotationStrategy = st.String()

	if c.Quality.MinWords <= 0 {
		c.Quality.MinWords = quality.DefaultMinWords
	}
	if c.Quality.Threshold <= 0 || c.Quality.Threshold > 1 {
		c.Quality.Threshold = quality.DefaultThreshold
	}

	switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
	case "", db.DriverPostgres, db.DriverSQLite:
	default:
		return errors.New("db.driver must be postgres or sqlite")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 15 * time.Second
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
