package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123456:test-token")
	t.Setenv("TELEGRAM_ALLOWED_USERS", "42,99")
	t.Setenv("CLAWBOT_GATEWAY_TOKEN", "gateway-secret")
}

func TestLoad_Success(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "123456:test-token", cfg.TelegramToken)
	assert.Equal(t, []int64{42, 99}, cfg.AllowedUsers)
	assert.Equal(t, "gateway-secret", cfg.GatewayToken)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://openclaw-gateway:18789", cfg.GatewayURL)
	assert.Equal(t, "/home/node/projects", cfg.Workspace)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 3000, cfg.HealthPort)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CLAWBOT_GATEWAY_URL", "http://localhost:18789")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HEALTH_PORT", "8080")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:18789", cfg.GatewayURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.HealthPort)
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name string
		omit string
	}{
		{"bot token", "TELEGRAM_BOT_TOKEN"},
		{"allow-list", "TELEGRAM_ALLOWED_USERS"},
		{"gateway token", "CLAWBOT_GATEWAY_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.omit, "")

			_, err := Load()

			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedAllowList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TELEGRAM_ALLOWED_USERS", "42,banana")

	_, err := Load()

	assert.Error(t, err)
}

func TestValidate_HealthPortRange(t *testing.T) {
	cfg := &Config{
		AllowedUsers: []int64{42},
		GatewayURL:   "http://localhost:18789",
		HealthPort:   70000,
	}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "health port")
}
