package config

import (
	"errors"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - cloudfront.go: signing key location and cookie policy
//   - identity.go: claim resolution
//   - keystore.go: signing key backends
//   - http.go: HTTP server configuration
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// AuthorisedDomains lists the email domain suffixes allowed through the gate.
	AuthorisedDomains []string `env:"AUTHORISED_DOMAINS,required" envSeparator:","`

	CloudFront CloudFrontConfig
	Identity   IdentityConfig
	KeyStore   KeyStoreConfig
	Authorizer AuthorizerConfig

	// HTTP server configuration
	HTTP HTTPConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.AuthorisedDomains = trimList(c.AuthorisedDomains)
	c.CloudFront.Sanitize()
	c.Identity.Sanitize()
	c.KeyStore.Sanitize()
	c.Authorizer.Sanitize()
	c.HTTP.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// Validate reports every configuration problem at once.
func (c *AppConfig) Validate() error {
	var errs []error
	if len(c.AuthorisedDomains) == 0 {
		errs = append(errs, errors.New("AUTHORISED_DOMAINS must list at least one domain"))
	}
	errs = append(errs,
		c.CloudFront.Validate(),
		c.Identity.Validate(c.IsDev),
		c.KeyStore.Validate(c.IsDev),
	)
	return errors.Join(errs...)
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

func trimList(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
