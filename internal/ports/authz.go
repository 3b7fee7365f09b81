// Package ports defines interfaces (hexagonal ports) for the authorizer pipeline.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
)

// ErrKeyNotFound is returned by key stores when the requested object does not exist.
var ErrKeyNotFound = errors.New("signing key not found")

// ErrInvalidAssertion is returned by claim resolvers when the provider rejects the assertion.
var ErrInvalidAssertion = errors.New("identity assertion rejected by provider")

// ClaimResolver turns an identity assertion into the provider's claims.
type ClaimResolver interface {
	Resolve(ctx context.Context, assertion string) (authz.IdentityClaim, error)
}

// KeyStore fetches signing key material by bucket and key.
type KeyStore interface {
	GetKey(ctx context.Context, loc authz.KeyLocation) (authz.SigningKey, error)
}

// SignInput groups parameters for producing a signed cookie set.
type SignInput struct {
	Resource  string
	KeyID     string
	Key       authz.SigningKey
	ExpiresAt time.Time
}

// CookieSigner produces the signed cookie values for a resource pattern.
type CookieSigner interface {
	Sign(in SignInput) (map[string]string, error)
}
