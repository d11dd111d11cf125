package config

import (
	"errors"
	"fmt"
)

// Validate checks invariants that env parsing alone cannot express.
func (c *Config) Validate() error {
	if c.AppEnv != "development" && c.AppEnv != "production" {
		return fmt.Errorf("APP_ENV must be 'development' or 'production', got %q", c.AppEnv)
	}
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		return errors.New("ACCESS_SECRET and REFRESH_SECRET are required")
	}
	if c.AccessSecret == c.RefreshSecret {
		return errors.New("ACCESS_SECRET and REFRESH_SECRET must differ")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.TokenClockSkew < 0 {
		return errors.New("TOKEN_CLOCK_SKEW must not be negative")
	}
	if c.IsProduction() && len(c.AccessSecret) < 32 {
		return errors.New("production deployment requires ACCESS_SECRET of at least 32 bytes")
	}
	if c.IsProduction() && len(c.RefreshSecret) < 32 {
		return errors.New("production deployment requires REFRESH_SECRET of at least 32 bytes")
	}
	return nil
}
