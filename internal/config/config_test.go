package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BACKEND_URL", "https://prod.example.com")
	t.Setenv("BACKEND_ANON_KEY", "prod-key")
}

func TestLoadBranchMapping(t *testing.T) {
	tests := []struct {
		branch  string
		wantEnv string
	}{
		{"main", EnvProduction},
		{"release", EnvStaging},
		{"dev", EnvDevelopment},
		{"feature/anything", EnvDevelopment},
		{"", EnvDevelopment},
	}
	for _, tt := range tests {
		t.Run("branch "+tt.branch, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("DEPLOY_BRANCH", tt.branch)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.wantEnv, cfg.Environment)
		})
	}
}

func TestLoadAppEnvOverridesBranch(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DEPLOY_BRANCH", "main")
	t.Setenv("APP_ENV", EnvDevelopment)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
}

func TestLoadUnknownAppEnvFallsBackToBranch(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DEPLOY_BRANCH", "release")
	t.Setenv("APP_ENV", "qa")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvStaging, cfg.Environment)
}

func TestLoadPerEnvironmentOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("BACKEND_URL_DEV", "https://dev.example.com")
	t.Setenv("BACKEND_ANON_KEY_DEV", "dev-key")
	t.Setenv("BACKEND_URL_RELEASE", "https://staging.example.com")
	t.Setenv("BACKEND_ANON_KEY_RELEASE", "staging-key")

	t.Setenv("DEPLOY_BRANCH", "dev")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://dev.example.com", cfg.Backend.URL)
	assert.Equal(t, "dev-key", cfg.Backend.APIKey)

	t.Setenv("DEPLOY_BRANCH", "release")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com", cfg.Backend.URL)
	assert.Equal(t, "staging-key", cfg.Backend.APIKey)

	t.Setenv("DEPLOY_BRANCH", "main")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "https://prod.example.com", cfg.Backend.URL)
	assert.Equal(t, "prod-key", cfg.Backend.APIKey)
}

func TestLoadFallsBackToBaseVariables(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DEPLOY_BRANCH", "dev")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://prod.example.com", cfg.Backend.URL)
}

func TestLoadMissingBackendConfig(t *testing.T) {
	t.Setenv("BACKEND_URL", "")
	t.Setenv("BACKEND_ANON_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_URL")

	t.Setenv("BACKEND_URL", "https://dev.example.com")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_ANON_KEY")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.Tracing.Endpoint)
}
