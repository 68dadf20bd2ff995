package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/pagecraft-backend/internal/modules/pages/rotation"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
	"github.com/yungbote/pagecraft-backend/internal/services"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Generation.MaxCombinations != services.DefaultMaxCombinations {
		t.Fatalf("max_combinations default: %d", cfg.Generation.MaxCombinations)
	}
	if cfg.Generation.Strategy() != rotation.WeightedRandom || cfg.Generation.RotationStrategy != "weighted_random" {
		t.Fatalf("strategy default: %v %q", cfg.Generation.Strategy(), cfg.Generation.RotationStrategy)
	}
	if cfg.Generation.BatchSize != 4 || cfg.Generation.MaxAttempts != 3 || cfg.Generation.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("generation defaults: %#v", cfg.Generation)
	}
	if cfg.Quality.MinWords != 300 || cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
http:
  addr: ":9000"
db:
  driver: sqlite
  sqlite_path: /tmp/pages.db
generation:
  max_combinations: 500000
  batch_size: 100
  rotation_strategy: least_used
  retry_backoff: 2s
quality:
  min_words: 120
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv("PORT", "7070")
	t.Setenv("ROTATION_STRATEGY", "performance_based")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("env PORT should win over file: %q", cfg.HTTP.Addr)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.SQLitePath != "/tmp/pages.db" {
		t.Fatalf("db from file: %#v", cfg.DB)
	}
	if cfg.Generation.MaxCombinations != services.HardMaxCombinations {
		t.Fatalf("max_combinations should clamp to the hard cap, got %d", cfg.Generation.MaxCombinations)
	}
	if cfg.Generation.BatchSize != 32 {
		t.Fatalf("batch_size should clamp to 32, got %d", cfg.Generation.BatchSize)
	}
	if cfg.Generation.Strategy() != rotation.PerformanceBased {
		t.Fatalf("env strategy should win: %v", cfg.Generation.Strategy())
	}
	if cfg.Generation.RetryBackoff != 2*time.Second || cfg.Quality.MinWords != 120 {
		t.Fatalf("file values lost: %#v %#v", cfg.Generation, cfg.Quality)
	}
}

func TestLoadConfigRejectsUnknownStrategy(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("ROTATION_STRATEGY", "round_robin")
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("expected an error for an unknown strategy")
	}
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("expected an error for an unknown driver")
	}
}
