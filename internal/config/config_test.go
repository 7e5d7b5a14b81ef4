package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ESCROW_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8002, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "http://localhost:9100", cfg.TokenServiceURL)
	assert.Equal(t, "USDM", cfg.TokenAsset)
	assert.Equal(t, "escrow", cfg.EscrowAccount)
	assert.Equal(t, []string{"seller"}, cfg.Withdrawers)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ESCROW_DATA_DIR", t.TempDir())
	t.Setenv("ESCROW_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("TOKEN_ASSET", "EURM")
	t.Setenv("ESCROW_WITHDRAWERS", "seller, ops ,backup")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "EURM", cfg.TokenAsset)
	assert.Equal(t, []string{"seller", "ops", "backup"}, cfg.Withdrawers)
}

func TestLoad_InvalidPortFallsBack(t *testing.T) {
	t.Setenv("ESCROW_DATA_DIR", t.TempDir())
	t.Setenv("ESCROW_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8002, cfg.Port)
}

func TestValidate(t *testing.T) {
	cfg := &Config{EscrowAccount: "escrow", TokenAsset: "USDM"}
	assert.NoError(t, cfg.Validate())

	cfg = &Config{EscrowAccount: "", TokenAsset: "USDM"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{EscrowAccount: "escrow", TokenAsset: ""}
	assert.Error(t, cfg.Validate())
}
