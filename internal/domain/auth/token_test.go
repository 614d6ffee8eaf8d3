package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCodec(secret string) *Codec {
	return NewCodec(Config{Secret: secret})
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec("test-secret")

	credential := codec.Issue(42, RoleUser, time.Hour)
	claims, err := codec.Verify(credential)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, RoleUser, claims.Role)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 2*time.Second)
}

func TestCodec_WireFormat(t *testing.T) {
	codec := newTestCodec("test-secret")

	credential := codec.Issue(7, RoleAdmin, time.Hour)
	dot := strings.LastIndexByte(credential, '.')
	require.Greater(t, dot, 0)

	payload := credential[:dot]
	parts := strings.Split(payload, ":")
	require.Len(t, parts, 3)
	require.Equal(t, "7", parts[0])
	require.Equal(t, RoleAdmin, parts[1])
}

func TestCodec_TamperedPayload(t *testing.T) {
	codec := newTestCodec("test-secret")

	credential := codec.Issue(42, RoleUser, time.Hour)
	// Promote the role without re-signing.
	tampered := strings.Replace(credential, ":user:", ":admin:", 1)
	require.NotEqual(t, credential, tampered)

	_, err := codec.Verify(tampered)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestCodec_TamperedSignature(t *testing.T) {
	codec := newTestCodec("test-secret")

	credential := codec.Issue(42, RoleUser, time.Hour)
	last := credential[len(credential)-1]
	flip := byte('A')
	if last == 'A' {
		flip = 'B'
	}
	tampered := credential[:len(credential)-1] + string(flip)

	_, err := codec.Verify(tampered)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestCodec_CrossSecret(t *testing.T) {
	issuer := newTestCodec("secret-one")
	verifier := newTestCodec("secret-two")

	_, err := verifier.Verify(issuer.Issue(42, RoleUser, time.Hour))
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestCodec_Expiry(t *testing.T) {
	codec := newTestCodec("test-secret")
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return base }

	credential := codec.Issue(42, RoleUser, time.Hour)

	// One second before expiry the credential still verifies.
	codec.now = func() time.Time { return base.Add(time.Hour - time.Second) }
	_, err := codec.Verify(credential)
	require.NoError(t, err)

	// At the expiry instant it is already dead.
	codec.now = func() time.Time { return base.Add(time.Hour) }
	_, err = codec.Verify(credential)
	require.ErrorIs(t, err, ErrExpired)
}

func TestCodec_Malformed(t *testing.T) {
	codec := newTestCodec("test-secret")

	cases := []string{
		"",
		"no-signature-here",
		".sig-only",
		"payload.",
		"justtwo:fields." + sign([]byte("test-secret"), "justtwo:fields"),
		"x:user:notanumber." + sign([]byte("test-secret"), "x:user:notanumber"),
		"42::123." + sign([]byte("test-secret"), "42::123"),
	}
	for _, credential := range cases {
		_, err := codec.Verify(credential)
		require.Error(t, err, "credential %q", credential)
		require.NotErrorIs(t, err, ErrExpired)
	}
}
