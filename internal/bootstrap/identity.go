package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/mmk-cdn-authorizer/config"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/claims"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/devauth"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/oidc"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/tokeninfo"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

// BuildClaimResolver creates the claim resolver for the configured identity mode.
//
//nolint:ireturn // the resolver implementation is chosen at runtime.
func BuildClaimResolver(ctx context.Context, cfg config.IdentityConfig, logger *slog.Logger) (ports.ClaimResolver, error) {
	extractor, err := claims.NewExtractor(cfg.EmailExpression, cfg.RequireVerifiedEmail)
	if err != nil {
		return nil, fmt.Errorf("email expression: %w", err)
	}

	switch cfg.Mode {
	case config.IdentityModeMock:
		if logger != nil {
			logger.WarnContext(ctx, "IDENTITY_MODE=mock: every assertion resolves to a fixed identity",
				"email", cfg.Dev.Email)
		}
		return devauth.NewResolver(devauth.Config{Email: cfg.Dev.Email, Subject: cfg.Dev.Subject})

	case config.IdentityModeOIDC:
		r, err := oidc.NewResolver(ctx, oidc.ResolverConfig{
			IssuerURL: cfg.OIDC.IssuerURL,
			ClientID:  cfg.OIDC.ClientID,
			Extractor: extractor,
		})
		if err != nil {
			return nil, fmt.Errorf("create oidc resolver: %w", err)
		}
		return r, nil

	case config.IdentityModeTokenInfo, "":
		r, err := tokeninfo.NewResolver(tokeninfo.Config{
			URLTemplate: cfg.TokenInfo.URL,
			Audience:    cfg.TokenInfo.Audience,
			Extractor:   extractor,
		})
		if err != nil {
			return nil, fmt.Errorf("create tokeninfo resolver: %w", err)
		}
		return r, nil

	default:
		return nil, fmt.Errorf("unsupported identity mode %q", cfg.Mode)
	}
}
