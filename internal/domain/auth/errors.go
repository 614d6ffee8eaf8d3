package auth

import "errors"

// Credential verification failures. All of them map to 401 at the edge.
var (
	ErrMalformed    = errors.New("credential malformed")
	ErrBadSignature = errors.New("credential signature mismatch")
	ErrExpired      = errors.New("credential expired")
)

// CSRF validation failures. All of them map to 403 at the edge.
var (
	ErrCSRFMissing      = errors.New("csrf cookie missing")
	ErrCSRFMalformed    = errors.New("csrf cookie malformed")
	ErrCSRFBadSignature = errors.New("csrf cookie signature mismatch")
	ErrCSRFMismatch     = errors.New("csrf token mismatch")
)

// ErrEmailExists indicates a duplicate email address.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound indicates a mutation against a missing account.
var ErrUserNotFound = errors.New("user not found")
