package config

import (
	"errors"
	"fmt"
	"strings"
)

// IdentityMode selects how identity assertions are resolved into claims.
type IdentityMode string

const (
	// IdentityModeTokenInfo introspects the assertion against a token-info endpoint.
	IdentityModeTokenInfo IdentityMode = "tokeninfo"
	// IdentityModeOIDC verifies the assertion locally as an OIDC ID token.
	IdentityModeOIDC IdentityMode = "oidc"
	// IdentityModeMock answers with a fixed identity (development only).
	IdentityModeMock IdentityMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for IdentityMode.
func (m *IdentityMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "tokeninfo", "oidc", "mock":
		*m = IdentityMode(v)
		return nil
	default:
		return fmt.Errorf("invalid IdentityMode: %q (valid options: tokeninfo, oidc, mock)", v)
	}
}

// TokenInfoConfig configures the token-info introspection resolver.
type TokenInfoConfig struct {
	// URL is a template; "{token}" is replaced with the escaped assertion.
	URL      string `env:"URL"      envDefault:"https://www.googleapis.com/oauth2/v3/tokeninfo?id_token={token}"`
	Audience string `env:"AUDIENCE"`
}

// OIDCConfig configures local ID token verification.
type OIDCConfig struct {
	IssuerURL string `env:"ISSUER_URL" envDefault:"https://accounts.google.com"`
	ClientID  string `env:"CLIENT_ID"`
}

// DevIdentityConfig is the identity returned when IDENTITY_MODE=mock.
type DevIdentityConfig struct {
	Email   string `env:"EMAIL"   envDefault:"dev@example.com"`
	Subject string `env:"SUBJECT" envDefault:"dev-user"`
}

// IdentityConfig groups all claim-resolution configuration.
type IdentityConfig struct {
	Mode IdentityMode `env:"IDENTITY_MODE" envDefault:"tokeninfo"`

	// ProviderKey is the Logins entry holding the assertion.
	ProviderKey string `env:"IDENTITY_PROVIDER_KEY" envDefault:"accounts.google.com"`

	// EmailExpression is a JMESPath expression selecting the email from the provider claims.
	EmailExpression string `env:"IDENTITY_EMAIL_EXPRESSION" envDefault:"email"`

	// RequireVerifiedEmail rejects claims whose email_verified is false.
	RequireVerifiedEmail bool `env:"IDENTITY_REQUIRE_VERIFIED_EMAIL" envDefault:"false"`

	TokenInfo TokenInfoConfig   `envPrefix:"IDENTITY_TOKENINFO_"`
	OIDC      OIDCConfig        `envPrefix:"IDENTITY_OIDC_"`
	Dev       DevIdentityConfig `envPrefix:"IDENTITY_DEV_"`
}

// Sanitize trims values and restores defaults cleared by empty env vars.
func (c *IdentityConfig) Sanitize() {
	c.ProviderKey = strings.TrimSpace(c.ProviderKey)
	if c.ProviderKey == "" {
		c.ProviderKey = "accounts.google.com"
	}
	c.EmailExpression = strings.TrimSpace(c.EmailExpression)
	if c.EmailExpression == "" {
		c.EmailExpression = "email"
	}
	c.TokenInfo.URL = strings.TrimSpace(c.TokenInfo.URL)
	c.TokenInfo.Audience = strings.TrimSpace(c.TokenInfo.Audience)
	c.OIDC.IssuerURL = strings.TrimSpace(c.OIDC.IssuerURL)
	c.OIDC.ClientID = strings.TrimSpace(c.OIDC.ClientID)
}

// Validate checks the selected mode has what it needs.
// Mock mode is refused outside development.
func (c *IdentityConfig) Validate(isDev bool) error {
	switch c.Mode {
	case IdentityModeTokenInfo, "":
		if c.TokenInfo.URL == "" {
			return errors.New("IDENTITY_TOKENINFO_URL is required in tokeninfo mode")
		}
	case IdentityModeOIDC:
		if c.OIDC.IssuerURL == "" || c.OIDC.ClientID == "" {
			return errors.New("IDENTITY_OIDC_ISSUER_URL and IDENTITY_OIDC_CLIENT_ID are required in oidc mode")
		}
	case IdentityModeMock:
		if !isDev {
			return errors.New("IDENTITY_MODE=mock is only allowed when DEV=true")
		}
		if c.Dev.Email == "" {
			return errors.New("IDENTITY_DEV_EMAIL is required in mock mode")
		}
	}
	return nil
}
