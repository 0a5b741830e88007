package oauth2

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ConfigFromEnv loads OAuth2 settings from OAUTH_* environment variables.
// Scopes are comma-separated in OAUTH_SCOPES.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse oauth config from env: %w", err)
	}
	return cfg, nil
}
