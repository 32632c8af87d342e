package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.Contains(t, c.DatabaseDSN, "postgres://")
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 30*24*time.Hour, c.RefreshTokenValidityDuration)
}

func Test_parseEnv(t *testing.T) {
	t.Setenv("ADDRESS", ":9999")
	t.Setenv("SECRET_KEY", "env-secret")
	t.Setenv("ACCESS_TOKEN_VALIDITY", "5m")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddr)
	assert.Equal(t, "env-secret", cfg.SecretKey)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
	// Untouched field keeps its default.
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenValidityDuration)
}

func Test_parseEnv_BadDurationIgnored(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_VALIDITY", "not-a-duration")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
}

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig()
	require.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.EndpointAddr)
}
