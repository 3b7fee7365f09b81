// Package lambdahandler adapts the authorizer to a direct AWS Lambda invocation.
package lambdahandler

import (
	"context"
	"errors"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	"github.com/target/mmk-cdn-authorizer/internal/observability/logctx"
)

// Authorizer is the service the handler delegates to.
type Authorizer interface {
	Authorize(ctx context.Context, req authz.LoginRequest) (*authz.AuthorizationResult, error)
}

// Handler answers {"Logins": {...}} events with the signed cookie map.
type Handler struct {
	svc Authorizer
}

// New creates a Handler.
func New(svc Authorizer) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("authorizer is required")
	}
	return &Handler{svc: svc}, nil
}

// Handle is registered with lambda.Start. Failures are returned to the runtime unchanged.
func (h *Handler) Handle(ctx context.Context, req authz.LoginRequest) (map[string]string, error) {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		ctx = logctx.WithRequestID(ctx, lc.AwsRequestID)
	}

	res, err := h.svc.Authorize(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Cookies.Values, nil
}
