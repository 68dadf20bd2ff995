package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
)

// Event is one progress notification for a generation run.
type Event struct {
	Type            string    `json:"type"`
	RunID           string    `json:"run_id"`
	PotentialPageID string    `json:"potential_page_id,omitempty"`
	Status          string    `json:"status,omitempty"`
	Attempts        int       `json:"attempts,omitempty"`
	QualityScore    float64   `json:"quality_score,omitempty"`
	Error           string    `json:"error,omitempty"`
	At              time.Time `json:"at"`
}

const (
	EventPageDone = "page_done"
	EventRunDone  = "run_done"
)

type Bus interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

type Config struct {
	Addr    string
	Channel string
}

type bus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func New(log *logger.Logger, cfg Config) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = "pagecraft.generation"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &bus{
		log:     log.With("service", "RedisGenerationBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *bus) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *bus) Close() error {
	return b.rdb.Close()
}

// Noop drops every event. Used when no redis address is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
