package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/claims"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

type testIssuer struct {
	srv *httptest.Server
	key *rsa.PrivateKey
}

func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	ti := &testIssuer{key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                ti.srv.URL,
			"authorization_endpoint":                ti.srv.URL + "/auth",
			"token_endpoint":                        ti.srv.URL + "/token",
			"jwks_uri":                              ti.srv.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
			Key:       &key.PublicKey,
			KeyID:     "test-key",
			Algorithm: string(jose.RS256),
			Use:       "sig",
		}}})
	})
	ti.srv = httptest.NewServer(mux)
	t.Cleanup(ti.srv.Close)
	return ti
}

func (ti *testIssuer) token(t *testing.T, key *rsa.PrivateKey, claims map[string]any) string {
	t.Helper()

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithHeader("kid", "test-key").WithType("JWT"))
	require.NoError(t, err)

	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	obj, err := signer.Sign(payload)
	require.NoError(t, err)
	raw, err := obj.CompactSerialize()
	require.NoError(t, err)
	return raw
}

func (ti *testIssuer) claims(email string) map[string]any {
	now := time.Now()
	return map[string]any{
		"iss":            ti.srv.URL,
		"aud":            "client-1",
		"sub":            "user-42",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"email":          email,
		"email_verified": true,
	}
}

func TestNewResolver_ValidationErrors(t *testing.T) {
	_, err := NewResolver(context.Background(), ResolverConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issuer URL is required")

	_, err = NewResolver(context.Background(), ResolverConfig{IssuerURL: "https://accounts.google.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client ID is required")

	_, err = NewResolverWithVerifier(nil, nil, nil)
	assert.Error(t, err)
}

func TestResolve_VerifiesIDToken(t *testing.T) {
	ti := newTestIssuer(t)

	r, err := NewResolver(context.Background(), ResolverConfig{
		IssuerURL: ti.srv.URL + "/.well-known/openid-configuration",
		ClientID:  "client-1",
	})
	require.NoError(t, err)

	claim, err := r.Resolve(context.Background(), ti.token(t, ti.key, ti.claims("jane@acme.com")))
	require.NoError(t, err)
	assert.Equal(t, "jane@acme.com", claim.Email)
	assert.Equal(t, "user-42", claim.Subject)
	assert.Equal(t, ti.srv.URL, claim.Issuer)
	require.NotNil(t, claim.EmailVerified)
	assert.True(t, *claim.EmailVerified)
}

func TestResolve_RejectsBadTokens(t *testing.T) {
	ti := newTestIssuer(t)

	ex, err := claims.NewExtractor("email", true)
	require.NoError(t, err)
	r, err := NewResolver(context.Background(), ResolverConfig{IssuerURL: ti.srv.URL, ClientID: "client-1", Extractor: ex})
	require.NoError(t, err)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	expired := ti.claims("jane@acme.com")
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	wrongAud := ti.claims("jane@acme.com")
	wrongAud["aud"] = "someone-else"

	unverified := ti.claims("jane@acme.com")
	unverified["email_verified"] = false

	tests := map[string]string{
		"garbage":         "not-a-jwt",
		"foreign key":     ti.token(t, otherKey, ti.claims("jane@acme.com")),
		"expired":         ti.token(t, ti.key, expired),
		"wrong audience":  ti.token(t, ti.key, wrongAud),
		"unverified mail": ti.token(t, ti.key, unverified),
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrInvalidAssertion)
		})
	}
}

func TestResolve_MissingEmailIsNotAssertionFault(t *testing.T) {
	ti := newTestIssuer(t)
	r, err := NewResolver(context.Background(), ResolverConfig{IssuerURL: ti.srv.URL, ClientID: "client-1"})
	require.NoError(t, err)

	c := ti.claims("")
	delete(c, "email")
	_, err = r.Resolve(context.Background(), ti.token(t, ti.key, c))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrInvalidAssertion)
	assert.Contains(t, err.Error(), "yielded no email")
}

func TestResolve_EmptyAssertion(t *testing.T) {
	ti := newTestIssuer(t)
	r, err := NewResolver(context.Background(), ResolverConfig{IssuerURL: ti.srv.URL, SkipClientIDCheck: true})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ports.ErrInvalidAssertion)
}
