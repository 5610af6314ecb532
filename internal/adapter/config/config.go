// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full process configuration.
type Config struct {
	// TelegramToken is the bot token from @BotFather.
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`

	// AllowedUsers is the fixed allow-list of Telegram user ids.
	AllowedUsers []int64 `env:"TELEGRAM_ALLOWED_USERS,required,notEmpty"`

	// GatewayURL is the base URL of the agent gateway.
	GatewayURL string `env:"CLAWBOT_GATEWAY_URL" envDefault:"http://openclaw-gateway:18789"`

	// GatewayToken is the bearer token for the agent gateway.
	GatewayToken string `env:"CLAWBOT_GATEWAY_TOKEN,required,notEmpty"`

	// Workspace is reported to the agent as its working directory.
	Workspace string `env:"CLAWBOT_WORKSPACE" envDefault:"/home/node/projects"`

	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"3000"`
}

// Load reads the configuration from the environment, after a best-effort
// .env load. Any missing required value or validation failure is returned as
// an error; the caller is expected to treat it as fatal.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks constraints the env tags cannot express.
func (c *Config) Validate() error {
	if len(c.AllowedUsers) == 0 {
		return fmt.Errorf("TELEGRAM_ALLOWED_USERS must contain at least one user ID")
	}

	if c.GatewayURL == "" {
		return fmt.Errorf("CLAWBOT_GATEWAY_URL cannot be empty")
	}

	if c.HealthPort < 1 || c.HealthPort > 65535 {
		return fmt.Errorf("invalid health port: %d (must be 1-65535)", c.HealthPort)
	}

	return nil
}
