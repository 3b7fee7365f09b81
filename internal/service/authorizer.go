package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	apperrors "github.com/target/mmk-cdn-authorizer/internal/errors"
	"github.com/target/mmk-cdn-authorizer/internal/observability/metrics"
	"github.com/target/mmk-cdn-authorizer/internal/observability/statsd"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

const defaultStepTimeout = 5 * time.Second

// AuthorizerOptions groups dependencies and immutable configuration for Authorizer.
type AuthorizerOptions struct {
	Resolver ports.ClaimResolver
	Keys     ports.KeyStore
	Signer   ports.CookieSigner

	AllowList   authz.AllowList
	KeyLocation authz.KeyLocation
	Policy      authz.CookiePolicy
	ProviderKey string

	// ClaimTimeout and KeyTimeout bound the two outbound calls. Zero means 5s.
	ClaimTimeout time.Duration
	KeyTimeout   time.Duration

	Metrics statsd.Sink
	Logger  *slog.Logger
	Now     func() time.Time
}

// Authorizer decides whether an identity assertion grants CDN access and mints signed cookies.
// It holds no mutable state and is safe for concurrent use.
type Authorizer struct {
	resolver ports.ClaimResolver
	keys     ports.KeyStore
	signer   ports.CookieSigner

	allow       authz.AllowList
	keyLoc      authz.KeyLocation
	policy      authz.CookiePolicy
	providerKey string

	claimTimeout time.Duration
	keyTimeout   time.Duration

	metrics statsd.Sink
	logger  *slog.Logger
	now     func() time.Time
}

// NewAuthorizer constructs an Authorizer.
func NewAuthorizer(opts AuthorizerOptions) (*Authorizer, error) {
	if opts.Resolver == nil {
		return nil, errors.New("claim resolver is required")
	}
	if opts.Keys == nil {
		return nil, errors.New("key store is required")
	}
	if opts.Signer == nil {
		return nil, errors.New("cookie signer is required")
	}

	a := &Authorizer{
		resolver:     opts.Resolver,
		keys:         opts.Keys,
		signer:       opts.Signer,
		allow:        opts.AllowList,
		keyLoc:       opts.KeyLocation,
		policy:       opts.Policy,
		providerKey:  opts.ProviderKey,
		claimTimeout: opts.ClaimTimeout,
		keyTimeout:   opts.KeyTimeout,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		now:          opts.Now,
	}
	if a.providerKey == "" {
		a.providerKey = authz.DefaultProviderKey
	}
	if a.claimTimeout <= 0 {
		a.claimTimeout = defaultStepTimeout
	}
	if a.keyTimeout <= 0 {
		a.keyTimeout = defaultStepTimeout
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a, nil
}

// Authorize runs resolve claim → authorize → fetch key → sign.
// Every failure is terminal and returned as an *apperrors.AppError; no partial cookie set is returned.
func (a *Authorizer) Authorize(ctx context.Context, req authz.LoginRequest) (*authz.AuthorizationResult, error) {
	start := time.Now()
	res, err := a.authorize(ctx, req)
	a.record(ctx, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *Authorizer) authorize(ctx context.Context, req authz.LoginRequest) (*authz.AuthorizationResult, error) {
	claim, err := a.resolveClaim(ctx, req)
	if err != nil {
		return nil, err
	}

	if err = a.checkAllowList(ctx, claim.Email); err != nil {
		return nil, err
	}

	key, err := a.fetchKey(ctx)
	if err != nil {
		return nil, err
	}

	cookies, err := a.sign(key)
	if err != nil {
		return nil, err
	}

	return &authz.AuthorizationResult{Email: claim.Email, Cookies: cookies}, nil
}

func (a *Authorizer) resolveClaim(ctx context.Context, req authz.LoginRequest) (authz.IdentityClaim, error) {
	assertion := req.Assertion(a.providerKey)
	if assertion == "" {
		return authz.IdentityClaim{}, apperrors.ClaimResolution(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("no identity assertion for provider %q", a.providerKey), nil)
	}

	stepCtx, cancel := context.WithTimeout(ctx, a.claimTimeout)
	defer cancel()

	claim, err := a.resolver.Resolve(stepCtx, assertion)
	if err != nil {
		code := apperrors.ErrCodeUnavailable
		if errors.Is(err, ports.ErrInvalidAssertion) {
			code = apperrors.ErrCodeInvalidAssertion
		}
		return authz.IdentityClaim{}, apperrors.ClaimResolution(code, "resolve identity claim", err)
	}
	if claim.Email == "" {
		return authz.IdentityClaim{}, apperrors.ClaimResolution(apperrors.ErrCodeUnavailable,
			"resolve identity claim", errors.New("provider response has no email"))
	}
	return claim, nil
}

func (a *Authorizer) checkAllowList(ctx context.Context, email string) error {
	decision, matched := a.allow.Evaluate(email)
	if decision == authz.DecisionApproved {
		a.logger.InfoContext(ctx, "login approved", "email", email, "matched_domain", matched)
		return nil
	}
	a.logger.WarnContext(ctx, "login rejected", "email", email)
	return apperrors.AccessDenied(email)
}

func (a *Authorizer) fetchKey(ctx context.Context) (authz.SigningKey, error) {
	stepCtx, cancel := context.WithTimeout(ctx, a.keyTimeout)
	defer cancel()

	key, err := a.keys.GetKey(stepCtx, a.keyLoc)
	if err != nil {
		code := apperrors.ErrCodeUnavailable
		if errors.Is(err, ports.ErrKeyNotFound) {
			code = apperrors.ErrCodeNotFound
		}
		return nil, apperrors.KeyRetrieval(code, fmt.Sprintf("fetch signing key %s", a.keyLoc), err)
	}
	if len(key) == 0 {
		return nil, apperrors.KeyRetrieval(apperrors.ErrCodeNotFound,
			fmt.Sprintf("fetch signing key %s", a.keyLoc), errors.New("empty key object"))
	}
	return key, nil
}

func (a *Authorizer) sign(key authz.SigningKey) (authz.SignedCookies, error) {
	expires := a.policy.ExpiresAt(a.now())
	values, err := a.signer.Sign(ports.SignInput{
		Resource:  a.policy.Resource(),
		KeyID:     a.policy.KeyID,
		Key:       key,
		ExpiresAt: expires,
	})
	if err != nil {
		return authz.SignedCookies{}, apperrors.Signing("sign cookies", err)
	}
	if len(values) == 0 {
		return authz.SignedCookies{}, apperrors.Signing("sign cookies", errors.New("signer returned no cookies"))
	}
	return authz.SignedCookies{Values: values, ExpiresAt: expires}, nil
}

func (a *Authorizer) record(ctx context.Context, err error, elapsed time.Duration) {
	m := metrics.DecisionMetric{
		Result:   metrics.ResultApproved,
		Provider: a.providerKey,
		Duration: elapsed,
	}
	if err != nil {
		m.Result = metrics.ResultError
		if apperrors.IsAccessDenied(err) {
			m.Result = metrics.ResultDenied
		}
		m.Stage = string(apperrors.GetStage(err))
		m.Code = string(apperrors.GetCode(err))
		switch {
		case apperrors.IsAccessDenied(err):
		case apperrors.IsDenial(err):
			a.logger.WarnContext(ctx, "authorization refused",
				"stage", m.Stage,
				"code", m.Code,
				"error", err)
		default:
			a.logger.ErrorContext(ctx, "authorization failed",
				"stage", m.Stage,
				"code", m.Code,
				"error", err)
		}
	}
	metrics.EmitDecision(a.metrics, m)
}
