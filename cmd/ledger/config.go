package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type cliConfig struct {
	APIURL      string        `env:"LEDGER_API_URL,      default=http://localhost:5000"`
	SessionFile string        `env:"LEDGER_SESSION_FILE"`
	Timeout     time.Duration `env:"LEDGER_TIMEOUT,      default=10s"`
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (cliConfig, error) {
	var cfg cliConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	if cfg.SessionFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return cfg, fmt.Errorf("config: locate session file: %w", err)
		}
		cfg.SessionFile = filepath.Join(dir, "ledger", "session.json")
	}
	return cfg, nil
}
