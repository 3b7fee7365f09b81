package authz

// Package authz contains the domain types for the CDN access decision.
// It is pure and free of framework/adapter concerns.

import (
	"slices"
	"strings"
	"time"
)

// DefaultProviderKey is the Logins entry consulted when none is configured.
const DefaultProviderKey = "accounts.google.com"

// LoginRequest is the per-invocation input: provider identifier → identity assertion.
type LoginRequest struct {
	Logins map[string]string `json:"Logins"`
}

// Assertion returns the trimmed assertion registered under providerKey.
func (r LoginRequest) Assertion(providerKey string) string {
	if r.Logins == nil {
		return ""
	}
	return strings.TrimSpace(r.Logins[providerKey])
}

// IdentityClaim holds the attributes a provider resolved for an assertion.
// It lives only for a single invocation.
type IdentityClaim struct {
	Email         string
	EmailVerified *bool
	Subject       string
	Issuer        string
}

// Decision is the outcome of evaluating a claim against the allow-list.
// The zero value is DecisionPending so an unevaluated outcome is never approval.
type Decision int

const (
	DecisionPending Decision = iota
	DecisionApproved
	DecisionDenied
)

func (d Decision) String() string {
	switch d {
	case DecisionApproved:
		return "approved"
	case DecisionDenied:
		return "denied"
	default:
		return "pending"
	}
}

// CookiePolicy scopes the signed cookies.
type CookiePolicy struct {
	Domain       string
	KeyID        string
	ValidityDays int
}

// Resource is the URL pattern covering every path under Domain over http and https.
func (p CookiePolicy) Resource() string {
	return "http*://" + p.Domain + "/*"
}

// ExpiresAt returns now plus ValidityDays days. Zero days yields now.
func (p CookiePolicy) ExpiresAt(now time.Time) time.Time {
	return now.Add(time.Duration(p.ValidityDays) * 24 * time.Hour)
}

// KeyLocation identifies the signing key inside a key store.
type KeyLocation struct {
	Bucket string
	Key    string
}

func (l KeyLocation) String() string {
	return l.Bucket + "/" + l.Key
}

// SigningKey is raw PEM private key material. Fetched per invocation, never cached.
type SigningKey []byte

// SignedCookies is the cookie set produced for an approved claim.
type SignedCookies struct {
	Values    map[string]string
	ExpiresAt time.Time
}

// Names returns the cookie names in a stable order.
func (c SignedCookies) Names() []string {
	names := make([]string, 0, len(c.Values))
	for _, n := range cookieOrder {
		if _, ok := c.Values[n]; ok {
			names = append(names, n)
		}
	}
	var extra []string
	for n := range c.Values {
		if !slices.Contains(cookieOrder, n) {
			extra = append(extra, n)
		}
	}
	slices.Sort(extra)
	return append(names, extra...)
}

// CloudFront cookie names.
const (
	CookiePolicyName    = "CloudFront-Policy"
	CookieSignatureName = "CloudFront-Signature"
	CookieKeyPairIDName = "CloudFront-Key-Pair-Id"
)

var cookieOrder = []string{CookiePolicyName, CookieSignatureName, CookieKeyPairIDName}

// AuthorizationResult is returned for approved requests only.
type AuthorizationResult struct {
	Email   string
	Cookies SignedCookies
}
