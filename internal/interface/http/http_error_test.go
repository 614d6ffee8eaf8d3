package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/roamgrid/roamgrid/pkg/errors"
)

func TestStatusForCode(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{"invalid_input", http.StatusBadRequest},
		{"invalid_token", http.StatusBadRequest},
		{"invalid_request", http.StatusBadRequest},
		{"invalid_credentials", http.StatusUnauthorized},
		{"forbidden", http.StatusForbidden},
		{"invalid_nonce", http.StatusForbidden},
		{"account_linking_disabled", http.StatusForbidden},
		{"not_found", http.StatusNotFound},
		{"user_not_found", http.StatusNotFound},
		{"email_exists", http.StatusConflict},
		{"wallet_taken", http.StatusConflict},
		{"oauth_exchange_failed", http.StatusBadGateway},
		{"auth_not_configured", http.StatusServiceUnavailable},
		{"auth_error", http.StatusInternalServerError},
		{"something_unmapped", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		err := apperrors.Wrap(tc.code, "boom", nil)
		require.Equal(t, tc.want, statusForCode(err), "code %s", tc.code)
	}
}

func TestAsHTTPError(t *testing.T) {
	// Errors without transport metadata become an opaque 500.
	httpErr := asHTTPError(errors.New("pg: connection refused"))
	require.Equal(t, http.StatusInternalServerError, httpErr.Status)
	require.Equal(t, "internal_error", httpErr.Code)
	require.Equal(t, "something went wrong", httpErr.Message)

	// An HTTPError anywhere in the chain passes through untouched.
	wrapped := NewHTTPError(http.StatusForbidden, "forbidden", "no", nil)
	require.Same(t, wrapped, asHTTPError(wrapped))
}
