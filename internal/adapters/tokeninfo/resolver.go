package tokeninfo

// Package tokeninfo resolves identity claims by introspecting the assertion
// against a provider's token-info endpoint.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/target/mmk-cdn-authorizer/internal/adapters/claims"
	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

const (
	// DefaultURL is Google's token-info endpoint.
	DefaultURL = "https://www.googleapis.com/oauth2/v3/tokeninfo?id_token={token}"
	// Placeholder is replaced by the query-escaped assertion.
	Placeholder = "{token}"

	defaultTokenParam = "id_token"
	maxBodyBytes      = 1 << 20
)

var _ ports.ClaimResolver = (*Resolver)(nil)

// Config holds configuration for the token-info resolver.
type Config struct {
	// URLTemplate may contain Placeholder; otherwise the assertion is sent as TokenParam.
	URLTemplate string
	TokenParam  string
	// Audience, when set, must equal the "aud" field of the response.
	Audience   string
	Extractor  *claims.Extractor
	HTTPClient *http.Client // Optional, defaults to a client with a 30s timeout
}

// Resolver implements ports.ClaimResolver over HTTP introspection.
// It trusts the provider's answer; the assertion's signature is not checked locally.
type Resolver struct {
	template   string
	tokenParam string
	audience   string
	extractor  *claims.Extractor
	httpClient *http.Client
}

// NewResolver validates cfg and builds a Resolver.
func NewResolver(cfg Config) (*Resolver, error) {
	tmpl := strings.TrimSpace(cfg.URLTemplate)
	if tmpl == "" {
		tmpl = DefaultURL
	}
	probe := strings.ReplaceAll(tmpl, Placeholder, "x")
	u, err := url.Parse(probe)
	if err != nil {
		return nil, fmt.Errorf("parse token-info url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("token-info url must be http(s), got %q", u.Scheme)
	}

	ex := cfg.Extractor
	if ex == nil {
		ex, err = claims.NewExtractor(claims.DefaultEmailExpression, false)
		if err != nil {
			return nil, err
		}
	}

	param := cfg.TokenParam
	if param == "" {
		param = defaultTokenParam
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Resolver{
		template:   tmpl,
		tokenParam: param,
		audience:   cfg.Audience,
		extractor:  ex,
		httpClient: httpClient,
	}, nil
}

// VerificationURL embeds assertion into the configured endpoint.
func (r *Resolver) VerificationURL(assertion string) (string, error) {
	if strings.Contains(r.template, Placeholder) {
		return strings.ReplaceAll(r.template, Placeholder, url.QueryEscape(assertion)), nil
	}
	u, err := url.Parse(r.template)
	if err != nil {
		return "", fmt.Errorf("parse token-info url: %w", err)
	}
	q := u.Query()
	q.Set(r.tokenParam, assertion)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (r *Resolver) Resolve(ctx context.Context, assertion string) (authz.IdentityClaim, error) {
	if assertion == "" {
		return authz.IdentityClaim{}, ports.ErrInvalidAssertion
	}

	target, err := r.VerificationURL(assertion)
	if err != nil {
		return authz.IdentityClaim{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return authz.IdentityClaim{}, fmt.Errorf("build token-info request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		// The URL carries the assertion; keep it out of the error text.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return authz.IdentityClaim{}, fmt.Errorf("token-info request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return authz.IdentityClaim{}, fmt.Errorf("read token-info response: %w", err)
	}

	if err = checkStatus(resp.StatusCode); err != nil {
		return authz.IdentityClaim{}, err
	}

	var doc map[string]any
	if err = json.Unmarshal(body, &doc); err != nil {
		return authz.IdentityClaim{}, fmt.Errorf("decode token-info response: %w", err)
	}

	if r.audience != "" {
		if aud, _ := doc["aud"].(string); aud != r.audience {
			return authz.IdentityClaim{}, fmt.Errorf("%w: audience %q not accepted", ports.ErrInvalidAssertion, aud)
		}
	}

	claim, err := r.extractor.Claim(doc)
	if err != nil {
		if errors.Is(err, claims.ErrEmailUnverified) {
			return authz.IdentityClaim{}, fmt.Errorf("%w: %w", ports.ErrInvalidAssertion, err)
		}
		return authz.IdentityClaim{}, err
	}
	return claim, nil
}

// checkStatus maps a provider 4xx to ErrInvalidAssertion and anything else non-2xx to a fault.
func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 400 && code < 500 && code != http.StatusTooManyRequests:
		return fmt.Errorf("%w: token-info status %d", ports.ErrInvalidAssertion, code)
	default:
		return fmt.Errorf("token-info status %d", code)
	}
}
