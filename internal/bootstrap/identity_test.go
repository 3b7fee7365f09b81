package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/mmk-cdn-authorizer/config"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/devauth"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/tokeninfo"
)

func TestBuildClaimResolver(t *testing.T) {
	base := config.IdentityConfig{
		EmailExpression: "email",
		TokenInfo:       config.TokenInfoConfig{URL: tokeninfo.DefaultURL},
		Dev:             config.DevIdentityConfig{Email: "dev@example.com"},
	}

	t.Run("tokeninfo", func(t *testing.T) {
		cfg := base
		cfg.Mode = config.IdentityModeTokenInfo
		r, err := BuildClaimResolver(context.Background(), cfg, discardLogger())
		require.NoError(t, err)
		assert.IsType(t, &tokeninfo.Resolver{}, r)
	})

	t.Run("mock", func(t *testing.T) {
		cfg := base
		cfg.Mode = config.IdentityModeMock
		r, err := BuildClaimResolver(context.Background(), cfg, discardLogger())
		require.NoError(t, err)
		assert.IsType(t, &devauth.Resolver{}, r)
	})

	t.Run("oidc discovery failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)

		cfg := base
		cfg.Mode = config.IdentityModeOIDC
		cfg.OIDC = config.OIDCConfig{IssuerURL: srv.URL, ClientID: "client"}
		_, err := BuildClaimResolver(context.Background(), cfg, discardLogger())
		assert.Error(t, err)
	})

	t.Run("bad expression", func(t *testing.T) {
		cfg := base
		cfg.EmailExpression = "email[["
		_, err := BuildClaimResolver(context.Background(), cfg, discardLogger())
		assert.Error(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		cfg := base
		cfg.Mode = "saml"
		_, err := BuildClaimResolver(context.Background(), cfg, discardLogger())
		assert.Error(t, err)
	})
}
