// Package bootstrap wires configuration into a ready-to-serve authorizer.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/mmk-cdn-authorizer/config"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/cloudfront"
	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	"github.com/target/mmk-cdn-authorizer/internal/observability/statsd"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
	"github.com/target/mmk-cdn-authorizer/internal/service"
)

// Runtime holds the process-wide authorizer and the resources it owns.
type Runtime struct {
	Authorizer *service.Authorizer
	Metrics    *statsd.Client

	closers []func() error
}

// Close releases every resource opened by NewRuntime.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// RuntimeDeps allows tests to substitute adapters. Nil fields are built from config.
type RuntimeDeps struct {
	Config   *config.AppConfig
	Logger   *slog.Logger
	Resolver ports.ClaimResolver
	Keys     ports.KeyStore
	Signer   ports.CookieSigner
}

// NewRuntime builds the allow-list, adapters, metrics sink and authorizer.
func NewRuntime(ctx context.Context, deps RuntimeDeps) (*Runtime, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	allow, err := authz.NewAllowList(cfg.AuthorisedDomains)
	if err != nil {
		return nil, fmt.Errorf("authorised domains: %w", err)
	}

	rt := &Runtime{}
	fail := func(err error) (*Runtime, error) {
		if cerr := rt.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return nil, err
	}

	resolver := deps.Resolver
	if resolver == nil {
		if resolver, err = BuildClaimResolver(ctx, cfg.Identity, logger); err != nil {
			return fail(err)
		}
	}

	keys := deps.Keys
	if keys == nil {
		var closeKeys func() error
		keys, closeKeys, err = BuildKeyStore(ctx, KeyStoreDeps{Config: cfg.KeyStore, Logger: logger})
		if err != nil {
			return fail(err)
		}
		rt.closers = append(rt.closers, closeKeys)
	}

	signer := deps.Signer
	if signer == nil {
		signer = cloudfront.NewSigner()
	}

	rt.Metrics, err = statsd.NewClient(statsd.Config{
		Enabled: cfg.Observability.Metrics.IsEnabled(),
		Address: cfg.Observability.Metrics.StatsdAddress,
		Prefix:  cfg.Observability.Metrics.Prefix,
		Logger:  logger,
		GlobalTags: map[string]string{
			"identity_mode": string(cfg.Identity.Mode),
			"keystore":      string(cfg.KeyStore.Backend),
		},
	})
	if err != nil {
		return fail(fmt.Errorf("create metrics client: %w", err))
	}
	rt.closers = append(rt.closers, rt.Metrics.Close)

	rt.Authorizer, err = service.NewAuthorizer(service.AuthorizerOptions{
		Resolver:  resolver,
		Keys:      keys,
		Signer:    signer,
		AllowList: allow,
		KeyLocation: authz.KeyLocation{
			Bucket: cfg.CloudFront.KeyBucket,
			Key:    cfg.CloudFront.KeyObject,
		},
		Policy: authz.CookiePolicy{
			Domain:       cfg.CloudFront.CookieDomain,
			KeyID:        cfg.CloudFront.KeyID,
			ValidityDays: cfg.CloudFront.CookieValidityDays,
		},
		ProviderKey:  cfg.Identity.ProviderKey,
		ClaimTimeout: cfg.Authorizer.ClaimTimeout,
		KeyTimeout:   cfg.Authorizer.KeyTimeout,
		Metrics:      rt.Metrics,
		Logger:       logger,
	})
	if err != nil {
		return fail(err)
	}

	logger.InfoContext(ctx, "authorizer ready",
		"identity_mode", cfg.Identity.Mode,
		"keystore", cfg.KeyStore.Backend,
		"authorised_domains", allow.Entries(),
		"cookie_domain", cfg.CloudFront.CookieDomain,
		"validity_days", cfg.CloudFront.CookieValidityDays,
	)
	return rt, nil
}
