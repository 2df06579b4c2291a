package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelseyhightower/envconfig"
)

func TestDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, envconfig.Process("", &cfg))

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "https://connect.instacart.com", cfg.InstacartAPIURL)
}

func TestValidateRequiresProviderKey(t *testing.T) {
	cfg := Config{Provider: ProviderAnthropic}
	require.Error(t, cfg.Validate())

	cfg.AnthropicAPIKey = "sk-ant-test"
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := Config{Provider: "llama-at-home"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llama-at-home")
}
