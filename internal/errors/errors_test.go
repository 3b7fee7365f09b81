package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  AccessDenied("jane@evil.com"),
			want: "access denied",
		},
		{
			name: "error with cause",
			err:  KeyRetrieval(ErrCodeUnavailable, "fetch signing key", errors.New("connection refused")),
			want: "fetch signing key: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Signing("parse private key", cause)

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestStagePredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"claim resolution", ClaimResolution(ErrCodeUnavailable, "x", nil), IsClaimResolution},
		{"access denied", AccessDenied("a@b.c"), IsAccessDenied},
		{"key retrieval", KeyRetrieval(ErrCodeNotFound, "x", nil), IsKeyRetrieval},
		{"signing", Signing("x", nil), IsSigning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("predicate returned false for %v", tt.err)
			}
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !tt.check(wrapped) {
				t.Errorf("predicate returned false for wrapped %v", wrapped)
			}
		})
	}

	if IsAccessDenied(errors.New("plain")) {
		t.Error("IsAccessDenied(plain error) = true, want false")
	}
	if IsSigning(AccessDenied("a@b.c")) {
		t.Error("IsSigning(AccessDenied) = true, want false")
	}
}

func TestContextErrorsReclassified(t *testing.T) {
	err := KeyRetrieval(ErrCodeUnavailable, "fetch signing key", context.DeadlineExceeded)
	if err.Code != ErrCodeTimeout {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeTimeout)
	}

	err = Wrapf(fmt.Errorf("get: %w", context.Canceled), StageClaimResolution, ErrCodeUnavailable, "resolve %s", "claim")
	if err.Code != ErrCodeCanceled {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeCanceled)
	}
	if err.Message != "resolve claim" {
		t.Errorf("Message = %q, want %q", err.Message, "resolve claim")
	}

	if Wrapf(nil, StageSigning, ErrCodeInternal, "x") != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}

func TestAccessDenied_CarriesEmail(t *testing.T) {
	err := fmt.Errorf("authorize: %w", AccessDenied("jane@evilacme.com"))
	if got := GetEmail(err); got != "jane@evilacme.com" {
		t.Errorf("GetEmail() = %q", got)
	}
	if got := GetStage(err); got != StageAccessDenied {
		t.Errorf("GetStage() = %q", got)
	}
	if GetEmail(errors.New("plain")) != "" {
		t.Error("GetEmail(plain) should be empty")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   int
		denial bool
	}{
		{"nil", nil, http.StatusOK, false},
		{"missing assertion", ClaimResolution(ErrCodeInvalidRequest, "x", nil), http.StatusBadRequest, true},
		{"rejected assertion", ClaimResolution(ErrCodeInvalidAssertion, "x", nil), http.StatusUnauthorized, true},
		{"denied", AccessDenied("a@b.c"), http.StatusForbidden, true},
		{"provider down", ClaimResolution(ErrCodeUnavailable, "x", nil), http.StatusBadGateway, false},
		{"key missing", KeyRetrieval(ErrCodeNotFound, "x", nil), http.StatusInternalServerError, false},
		{"timeout", KeyRetrieval(ErrCodeUnavailable, "x", context.DeadlineExceeded), http.StatusGatewayTimeout, false},
		{"signing", Signing("x", nil), http.StatusInternalServerError, false},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
			if got := IsDenial(tt.err); got != tt.denial {
				t.Errorf("IsDenial() = %v, want %v", got, tt.denial)
			}
		})
	}
}
