package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration of the scorekeeper server.
type Config struct {
	HTTPAddr string `env:"DOKO_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr string `env:"DOKO_GRPC_ADDR" envDefault:":9090"`

	DBPath   string `env:"DOKO_DB_PATH" envDefault:"doko.db"`
	RulesDir string `env:"DOKO_RULES_DIR" envDefault:"config"`

	// defaults for new games
	Ruleset   string `env:"DOKO_RULESET" envDefault:"canonical"`
	ValuePair string `env:"DOKO_VALUE_PAIR" envDefault:"10/20"`
	SoloValue string `env:"DOKO_SOLO_VALUE" envDefault:"50"`
	Locale    string `env:"DOKO_LOCALE" envDefault:"de"`

	ReloadInterval time.Duration `env:"DOKO_RELOAD_INTERVAL" envDefault:"2s"`

	// browser origins allowed to call the HTTP API
	AllowedOrigins []string `env:"DOKO_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("DOKO_DB_PATH is required")
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
