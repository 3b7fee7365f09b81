// Package cloudfront mints CloudFront signed cookies with a custom policy.
package cloudfront

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/cloudfront/sign"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

var _ ports.CookieSigner = (*Signer)(nil)

// ErrMalformedKey is returned when the key material is not an RSA private key in PEM form.
var ErrMalformedKey = errors.New("malformed signing key")

// Signer implements ports.CookieSigner on top of the AWS SDK signer.
type Signer struct{}

// NewSigner creates a new Signer.
func NewSigner() *Signer { return &Signer{} }

// Sign builds a policy granting in.Resource until in.ExpiresAt and returns
// the three CloudFront cookies keyed by name.
func (s *Signer) Sign(in ports.SignInput) (map[string]string, error) {
	if strings.TrimSpace(in.KeyID) == "" {
		return nil, errors.New("key pair id is required")
	}
	if in.Resource == "" {
		return nil, errors.New("resource is required")
	}
	priv, err := ParsePrivateKey(in.Key)
	if err != nil {
		return nil, err
	}

	// NewCannedPolicy yields a single statement with DateLessThan only. Signed
	// through SignWithPolicy so wildcard schemes such as "http*" are preserved.
	policy := sign.NewCannedPolicy(in.Resource, in.ExpiresAt)
	cookies, err := sign.NewCookieSigner(in.KeyID, priv).SignWithPolicy(policy)
	if err != nil {
		return nil, fmt.Errorf("sign policy: %w", err)
	}

	out := make(map[string]string, len(cookies))
	for _, c := range cookies {
		out[c.Name] = c.Value
	}
	return out, nil
}

// ParsePrivateKey decodes a PKCS#1 or PKCS#8 PEM encoded RSA private key.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrMalformedKey)
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedKey, err)
		}
		return key, nil
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedKey, err)
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: expected RSA key, got %T", ErrMalformedKey, parsed)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unsupported PEM type %q", ErrMalformedKey, block.Type)
	}
}
