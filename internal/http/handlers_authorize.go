// Package httpx exposes the authorizer over HTTP.
package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	apperrors "github.com/target/mmk-cdn-authorizer/internal/errors"
)

// Authorizer is the service the handler delegates to.
type Authorizer interface {
	Authorize(ctx context.Context, req authz.LoginRequest) (*authz.AuthorizationResult, error)
}

// AuthorizeHandlers serves POST /authorize.
type AuthorizeHandlers struct {
	Svc          Authorizer
	CookieDomain string
	MaxBodyBytes int64
}

// Authorize decodes a LoginRequest, runs the pipeline and, on approval, sets the
// signed cookies and echoes them as a name to value JSON object.
func (h *AuthorizeHandlers) Authorize(w http.ResponseWriter, r *http.Request) {
	if h.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	}

	var req authz.LoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.Authorize(r.Context(), req)
	if err != nil {
		writeAuthorizeError(w, err)
		return
	}

	for _, name := range res.Cookies.Names() {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    res.Cookies.Values[name],
			Domain:   h.CookieDomain,
			Path:     "/",
			Expires:  res.Cookies.ExpiresAt,
			Secure:   true,
			HttpOnly: true,
		})
	}
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, res.Cookies.Values)
}

// writeAuthorizeError never exposes the wrapped cause, only the stage message.
func writeAuthorizeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: string(apperrors.ErrCodeInternal),
			Err:     errors.New("internal error"),
		})
		return
	}
	WriteError(w, ErrorParams{
		Code:    apperrors.HTTPStatus(appErr),
		ErrCode: string(appErr.Code),
		Stage:   string(appErr.Stage),
		Err:     errors.New(appErr.Message),
	})
}
