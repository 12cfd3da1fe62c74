package config

import (
	"testing"

	"github.com/caarlos0/env/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	require.NoError(t, env.Parse(cfg))
	return cfg
}

func TestValidate_DevelopmentAcceptsDefaults(t *testing.T) {
	cfg := parse(t)

	assert.Equal(t, defaultReturnSecret, cfg.Gateway.ReturnSecret)
	assert.Equal(t, defaultSessionSecret, cfg.Session.Secret)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ProductionRefusesDefaultSecrets(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	err := parse(t).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATEWAY_RETURN_SECRET")
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestValidate_ProductionRefusesEitherDefault(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SESSION_SECRET", "a-real-session-secret")

	err := parse(t).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATEWAY_RETURN_SECRET")
	assert.NotContains(t, err.Error(), "SESSION_SECRET")
}

func TestValidate_ProductionWithSecrets(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SESSION_SECRET", "a-real-session-secret")
	t.Setenv("GATEWAY_RETURN_SECRET", "a-real-return-secret")

	assert.NoError(t, parse(t).Validate())
}
