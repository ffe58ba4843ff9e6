package config

import (
	"github.com/caarlos0/env/v11"
)

// Server holds process-level settings read from the environment.
type Server struct {
	Port        string `env:"DYNASTY_PORT" envDefault:"42070"`
	DataDir     string `env:"DYNASTY_DATA_DIR" envDefault:"data"`
	BalancePath string `env:"DYNASTY_BALANCE_PATH"`
	JournalPath string `env:"DYNASTY_JOURNAL_PATH"`

	// Identity fixes the player identity for a standalone run. Empty
	// means no identity: records stay in staging until one appears.
	Identity string `env:"DYNASTY_IDENTITY"`

	// BypassTokens seeds the standalone bypass-token pouch.
	BypassTokens int `env:"DYNASTY_BYPASS_TOKENS" envDefault:"0"`

	// HourSeconds is how many real seconds one in-game hour lasts when
	// running on the built-in clock.
	HourSeconds int `env:"DYNASTY_HOUR_SECONDS" envDefault:"60"`
}

// ServerFromEnv parses server settings from the environment, falling back
// to defaults for anything unset.
func ServerFromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// LoadBalance resolves the balance config for a server: the YAML file when a
// path is configured, stock defaults otherwise.
func LoadBalance(cfg Server) (Balance, error) {
	if cfg.BalancePath == "" {
		return Default(), nil
	}
	return Load(cfg.BalancePath)
}
