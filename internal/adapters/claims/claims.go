package claims

// Package claims maps provider JSON documents onto domain identity claims.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
)

// DefaultEmailExpression selects the top-level email field.
const DefaultEmailExpression = "email"

// ErrEmailUnverified is returned when verification is required and the provider says the email is unverified.
var ErrEmailUnverified = errors.New("email address is not verified")

// Extractor pulls the email (and a few standard fields) out of a decoded claims document.
type Extractor struct {
	emailExpr     string
	requireVerify bool
}

// NewExtractor validates the JMESPath email expression.
func NewExtractor(emailExpr string, requireVerifiedEmail bool) (*Extractor, error) {
	expr := strings.TrimSpace(emailExpr)
	if expr == "" {
		expr = DefaultEmailExpression
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, fmt.Errorf("compile email expression %q: %w", expr, err)
	}
	return &Extractor{emailExpr: expr, requireVerify: requireVerifiedEmail}, nil
}

// Claim maps doc to an IdentityClaim. doc must be the generic JSON decoding (map[string]any).
func (e *Extractor) Claim(doc map[string]any) (authz.IdentityClaim, error) {
	raw, err := jmespath.Search(e.emailExpr, doc)
	if err != nil {
		return authz.IdentityClaim{}, fmt.Errorf("evaluate email expression: %w", err)
	}
	email, ok := raw.(string)
	if !ok || strings.TrimSpace(email) == "" {
		return authz.IdentityClaim{}, fmt.Errorf("email expression %q yielded no email", e.emailExpr)
	}

	claim := authz.IdentityClaim{
		Email:         strings.TrimSpace(email),
		Subject:       stringField(doc, "sub"),
		Issuer:        stringField(doc, "iss"),
		EmailVerified: verifiedField(doc),
	}
	if e.requireVerify && (claim.EmailVerified == nil || !*claim.EmailVerified) {
		return authz.IdentityClaim{}, ErrEmailUnverified
	}
	return claim, nil
}

func stringField(doc map[string]any, name string) string {
	s, _ := doc[name].(string)
	return s
}

// verifiedField accepts both the boolean (ID token) and string (tokeninfo) forms.
func verifiedField(doc map[string]any) *bool {
	switch v := doc["email_verified"].(type) {
	case bool:
		return &v
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil
		}
		return &b
	default:
		return nil
	}
}
