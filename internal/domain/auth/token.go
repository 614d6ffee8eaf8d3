package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// Codec issues and verifies compact signed session credentials without any
// storage lookup. A credential has the exact shape
//
//	{userID}:{role}:{expUnixSeconds}.{base64url(HMAC-SHA256(secret, payload))}
//
// and is a pure function of (secret, input, clock).
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec constructs a Codec from the shared auth configuration.
func NewCodec(cfg Config) *Codec {
	return &Codec{secret: []byte(cfg.Secret), now: time.Now}
}

// Issue builds a signed credential for the subject. No side effects; a new
// login supersedes the old credential instead of extending it.
func (c *Codec) Issue(userID int64, role string, ttl time.Duration) string {
	exp := c.now().Add(ttl).Unix()
	payload := strconv.FormatInt(userID, 10) + ":" + role + ":" + strconv.FormatInt(exp, 10)
	return payload + "." + sign(c.secret, payload)
}

// Verify checks the signature and expiry and returns the parsed claims.
// Failures are ErrMalformed, ErrBadSignature, or ErrExpired.
func (c *Codec) Verify(credential string) (Claims, error) {
	dot := strings.LastIndexByte(credential, '.')
	if dot <= 0 || dot == len(credential)-1 {
		return Claims{}, ErrMalformed
	}
	payload, signature := credential[:dot], credential[dot+1:]
	if !hmac.Equal([]byte(signature), []byte(sign(c.secret, payload))) {
		return Claims{}, ErrBadSignature
	}
	parts := strings.Split(payload, ":")
	if len(parts) != 3 {
		return Claims{}, ErrMalformed
	}
	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Claims{}, ErrMalformed
	}
	role := parts[1]
	if role == "" {
		return Claims{}, ErrMalformed
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Claims{}, ErrMalformed
	}
	if exp*1000 <= c.now().UnixMilli() {
		return Claims{}, ErrExpired
	}
	return Claims{UserID: userID, Role: role, ExpiresAt: time.Unix(exp, 0)}, nil
}

// sign computes the url-safe base64 HMAC-SHA256 over payload. Shared with
// the CSRF guard, which signs its nonces the same way.
func sign(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
