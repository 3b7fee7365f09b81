package oidc

// Package oidc resolves identity claims by verifying the assertion locally as an
// OIDC ID token against the issuer's published keys.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/claims"
	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
	"golang.org/x/oauth2"
)

var _ ports.ClaimResolver = (*Resolver)(nil)

// ResolverConfig holds configuration for the OIDC resolver.
type ResolverConfig struct {
	IssuerURL string
	// ClientID is the expected audience. Required unless SkipClientIDCheck is set.
	ClientID          string
	SkipClientIDCheck bool
	Extractor         *claims.Extractor
	HTTPClient        *http.Client // Optional, defaults to a client with a 30s timeout
}

// Resolver implements ports.ClaimResolver with go-oidc's ID token verifier.
type Resolver struct {
	verifier   *gooidc.IDTokenVerifier
	extractor  *claims.Extractor
	httpClient *http.Client
}

// NewResolver runs discovery against the issuer and builds a verifier.
func NewResolver(ctx context.Context, cfg ResolverConfig) (*Resolver, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.ClientID == "" && !cfg.SkipClientIDCheck {
		return nil, errors.New("client ID is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")

	// go-oidc keeps this context for later JWKS refreshes, so it must outlive ctx's deadline.
	discoveryCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, httpClient)
	op, err := gooidc.NewProvider(discoveryCtx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	verifier := op.Verifier(&gooidc.Config{
		ClientID:          cfg.ClientID,
		SkipClientIDCheck: cfg.SkipClientIDCheck,
	})
	return NewResolverWithVerifier(verifier, cfg.Extractor, httpClient)
}

// NewResolverWithVerifier builds a Resolver around an existing verifier.
func NewResolverWithVerifier(verifier *gooidc.IDTokenVerifier, ex *claims.Extractor, httpClient *http.Client) (*Resolver, error) {
	if verifier == nil {
		return nil, errors.New("verifier is required")
	}
	if ex == nil {
		var err error
		ex, err = claims.NewExtractor(claims.DefaultEmailExpression, false)
		if err != nil {
			return nil, err
		}
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Resolver{verifier: verifier, extractor: ex, httpClient: httpClient}, nil
}

func (r *Resolver) Resolve(ctx context.Context, assertion string) (authz.IdentityClaim, error) {
	if assertion == "" {
		return authz.IdentityClaim{}, ports.ErrInvalidAssertion
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	idTok, err := r.verifier.Verify(ctx, assertion)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return authz.IdentityClaim{}, fmt.Errorf("verify id_token: %w", ctxErr)
		}
		return authz.IdentityClaim{}, fmt.Errorf("%w: verify id_token: %w", ports.ErrInvalidAssertion, err)
	}

	var doc map[string]any
	if err = idTok.Claims(&doc); err != nil {
		return authz.IdentityClaim{}, fmt.Errorf("parse id_token claims: %w", err)
	}

	claim, err := r.extractor.Claim(doc)
	if err != nil {
		if errors.Is(err, claims.ErrEmailUnverified) {
			return authz.IdentityClaim{}, fmt.Errorf("%w: %w", ports.ErrInvalidAssertion, err)
		}
		return authz.IdentityClaim{}, err
	}
	claim.Subject = idTok.Subject
	claim.Issuer = idTok.Issuer
	return claim, nil
}
