package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
	"github.com/yungbote/pagecraft-backend/internal/platform/openai"
	"github.com/yungbote/pagecraft-backend/internal/platform/redisbus"
)

type Clients struct {
	AI  openai.Client
	Bus redisbus.Bus
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var bus redisbus.Bus = redisbus.Noop{}
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, err := redisbus.New(log, redisbus.Config{Addr: cfg.Redis.Addr, Channel: cfg.Redis.Channel})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis bus: %w", err)
		}
		bus = b
	} else {
		log.Info("REDIS_ADDR not set; generation events are not published")
	}

	// Openai
	var ai openai.Client
	if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
		log.Warn("OPENAI_API_KEY not set; using the mock synthesizer")
		ai = openai.NewMockClient()
	} else {
		c, err := openai.NewClient(log, openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
			Timeout: cfg.Generation.SynthesisTimeout,
		})
		if err != nil {
			_ = bus.Close()
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
		ai = c
	}

	return Clients{AI: ai, Bus: bus}, nil
}
