package devauth

// Package devauth provides a config-driven ClaimResolver for local development.
// It accepts any non-empty assertion and answers with a fixed identity.

import (
	"context"
	"errors"

	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

var _ ports.ClaimResolver = (*Resolver)(nil)

// Config controls the dev resolver identity.
type Config struct {
	Email   string
	Subject string // default "dev-user"
}

// Resolver implements ports.ClaimResolver without contacting any provider.
type Resolver struct {
	claim authz.IdentityClaim
}

// NewResolver constructs a dev resolver from Config.
func NewResolver(cfg Config) (*Resolver, error) {
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	sub := cfg.Subject
	if sub == "" {
		sub = "dev-user"
	}
	verified := true
	return &Resolver{claim: authz.IdentityClaim{
		Email:         cfg.Email,
		Subject:       sub,
		Issuer:        "devauth",
		EmailVerified: &verified,
	}}, nil
}

func (r *Resolver) Resolve(ctx context.Context, assertion string) (authz.IdentityClaim, error) {
	if err := ctx.Err(); err != nil {
		return authz.IdentityClaim{}, err
	}
	if assertion == "" {
		return authz.IdentityClaim{}, ports.ErrInvalidAssertion
	}
	return r.claim, nil
}
