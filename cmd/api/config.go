package main

import (
	"fmt"

	"github.com/fastprodman/wagerledger/internal/config"
)

func readConfig() (*config.APIConfig, error) {
	cfg := new(config.APIConfig)

	err := config.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("load api config: %w", err)
	}

	if cfg.Redis.Enabled() && cfg.Redis.EventsChannel == "" {
		return nil, fmt.Errorf("REDIS_EVENTS_CHANNEL must not be empty when REDIS_URL is set")
	}

	return cfg, nil
}
