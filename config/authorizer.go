package config

import "time"

const defaultStepTimeout = 5 * time.Second

// AuthorizerConfig bounds the outbound steps of a single authorization.
type AuthorizerConfig struct {
	ClaimTimeout time.Duration `env:"AUTHORIZER_CLAIM_TIMEOUT" envDefault:"5s"`
	KeyTimeout   time.Duration `env:"AUTHORIZER_KEY_TIMEOUT"   envDefault:"5s"`
}

// Sanitize replaces non-positive timeouts with the default.
func (c *AuthorizerConfig) Sanitize() {
	if c.ClaimTimeout <= 0 {
		c.ClaimTimeout = defaultStepTimeout
	}
	if c.KeyTimeout <= 0 {
		c.KeyTimeout = defaultStepTimeout
	}
}
