package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"strings"
)

// Guard implements the double-submit CSRF protocol: a signed nonce lives in
// a cookie, and the raw nonce must be echoed back in the request body or the
// x-csrf-token header. The cookie is single-use; the caller deletes it after
// a successful validation.
type Guard struct {
	secret []byte
}

// NewGuard constructs a Guard from the shared auth configuration.
func NewGuard(cfg Config) *Guard {
	return &Guard{secret: []byte(cfg.Secret)}
}

// CSRFPair is a freshly minted anti-forgery value. Cookie is the signed
// form stored client-side; Nonce is the raw value exposed to the caller.
// The signature never leaves the cookie surface.
type CSRFPair struct {
	Cookie string
	Nonce  string
}

// Issue mints a random nonce (128 bits) and its signed cookie form.
func (g *Guard) Issue() CSRFPair {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform entropy source is broken.
		panic("auth: csrf nonce entropy unavailable: " + err.Error())
	}
	nonce := base64.RawURLEncoding.EncodeToString(buf)
	return CSRFPair{Cookie: nonce + "." + sign(g.secret, nonce), Nonce: nonce}
}

// Validate checks the cookie signature and compares the submitted value
// against the cookie's nonce. Failures are ErrCSRFMissing,
// ErrCSRFMalformed, ErrCSRFBadSignature, or ErrCSRFMismatch.
func (g *Guard) Validate(cookieValue, submitted string) error {
	if cookieValue == "" {
		return ErrCSRFMissing
	}
	parts := strings.Split(cookieValue, ".")
	if len(parts) != 2 {
		return ErrCSRFMalformed
	}
	nonce, signature := parts[0], parts[1]
	if !hmac.Equal([]byte(signature), []byte(sign(g.secret, nonce))) {
		return ErrCSRFBadSignature
	}
	if submitted == "" || submitted != nonce {
		return ErrCSRFMismatch
	}
	return nil
}
