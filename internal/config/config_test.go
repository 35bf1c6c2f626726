package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "WemaTrust", cfg.HomeBankID)
	assert.Equal(t, 3, cfg.SettlementDelaySeconds)
	assert.Equal(t, "@every 1s", cfg.SettlementSweepSchedule)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/transfers")
	t.Setenv("HOME_BANK_ID", "FirstTrust")
	t.Setenv("SETTLEMENT_DELAY_SECONDS", "10")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("PORT", "")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "postgres://localhost:5432/transfers", cfg.DatabaseURL)
	assert.Equal(t, "FirstTrust", cfg.HomeBankID)
	assert.Equal(t, 10, cfg.SettlementDelaySeconds)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins())
}

func TestLoadConfig_PlatformPortWins(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PORT", "3000")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.ServerPort)
}

func TestLoadConfig_NonPositiveSettlementDelayFallsBack(t *testing.T) {
	t.Setenv("SETTLEMENT_DELAY_SECONDS", "0")
	t.Setenv("PORT", "")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.SettlementDelaySeconds)
}
