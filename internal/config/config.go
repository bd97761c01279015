// Package config builds the process configuration once at startup.
// The collaborator project (URL + API key) is selected by the
// deployment branch: main runs against production, release against
// staging, everything else against development. The resulting Config
// is passed explicitly to every component that talks to the
// collaborator.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config is the fully-resolved process configuration.
type Config struct {
	Environment string
	Port        string
	Backend     Backend
	Tracing     Tracing
}

// Backend holds the connection parameters for the hosted collaborator.
type Backend struct {
	URL    string
	APIKey string
}

// Tracing holds the OTLP trace exporter target; empty disables export.
type Tracing struct {
	Endpoint string
}

// rawEnv mirrors the environment variable surface. Per-environment
// overrides fall back to the base variables, the same way the three
// collaborator projects share one deployment.
type rawEnv struct {
	DeployBranch string `env:"DEPLOY_BRANCH" env-default:""`
	AppEnv       string `env:"APP_ENV" env-default:""`
	Port         string `env:"PORT" env-default:"8080"`

	BackendURL    string `env:"BACKEND_URL" env-default:""`
	BackendAPIKey string `env:"BACKEND_ANON_KEY" env-default:""`

	BackendURLDev    string `env:"BACKEND_URL_DEV" env-default:""`
	BackendAPIKeyDev string `env:"BACKEND_ANON_KEY_DEV" env-default:""`

	BackendURLRelease    string `env:"BACKEND_URL_RELEASE" env-default:""`
	BackendAPIKeyRelease string `env:"BACKEND_ANON_KEY_RELEASE" env-default:""`

	TracingEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:""`
}

// Load reads .env (when present) and the process environment, resolves
// the deployment environment and returns the Config for it.
func Load() (*Config, error) {
	// A missing .env file is fine; real deployments set variables
	// directly.
	_ = godotenv.Load()

	var raw rawEnv
	if err := cleanenv.ReadEnv(&raw); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	env := resolveEnvironment(raw)
	cfg := &Config{
		Environment: env,
		Port:        raw.Port,
		Tracing:     Tracing{Endpoint: raw.TracingEndpoint},
	}

	switch env {
	case EnvProduction:
		cfg.Backend = Backend{URL: raw.BackendURL, APIKey: raw.BackendAPIKey}
	case EnvStaging:
		cfg.Backend = Backend{
			URL:    firstNonEmpty(raw.BackendURLRelease, raw.BackendURL),
			APIKey: firstNonEmpty(raw.BackendAPIKeyRelease, raw.BackendAPIKey),
		}
	default:
		cfg.Backend = Backend{
			URL:    firstNonEmpty(raw.BackendURLDev, raw.BackendURL),
			APIKey: firstNonEmpty(raw.BackendAPIKeyDev, raw.BackendAPIKey),
		}
	}

	if cfg.Backend.URL == "" {
		return nil, fmt.Errorf("missing BACKEND_URL for environment %q", env)
	}
	if cfg.Backend.APIKey == "" {
		return nil, fmt.Errorf("missing BACKEND_ANON_KEY for environment %q", env)
	}

	return cfg, nil
}

// resolveEnvironment prefers an explicit APP_ENV, then falls back to
// mapping the deployment branch name.
func resolveEnvironment(raw rawEnv) string {
	switch raw.AppEnv {
	case EnvDevelopment, EnvStaging, EnvProduction:
		return raw.AppEnv
	}

	switch raw.DeployBranch {
	case "main":
		return EnvProduction
	case "release":
		return EnvStaging
	default:
		return EnvDevelopment
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
