package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roamgrid/roamgrid/internal/domain/access"
	"github.com/roamgrid/roamgrid/internal/domain/auth"
	"github.com/roamgrid/roamgrid/internal/domain/wifi"
	"github.com/roamgrid/roamgrid/internal/infra/avatarstore"
	"github.com/roamgrid/roamgrid/internal/infra/config"
	"github.com/roamgrid/roamgrid/internal/infra/noncestore"
	"github.com/roamgrid/roamgrid/internal/infra/userrepo"
	"github.com/roamgrid/roamgrid/internal/infra/wifirepo"
)

type fixture struct {
	handler  http.Handler
	userRepo *userrepo.MemoryRepository
	codec    *auth.Codec
	guard    *auth.Guard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		HTTP: config.HTTPConfig{Address: ":0"},
		Auth: config.AuthConfig{
			Secret:      "test-secret",
			SystemToken: "system-secret",
			TokenTTL:    time.Hour,
			CSRFTTL:     time.Hour,
			WalletTTL:   5 * time.Minute,
		},
	}
	authCfg := auth.Config{
		Secret:    cfg.Auth.Secret,
		TokenTTL:  cfg.Auth.TokenTTL,
		CSRFTTL:   cfg.Auth.CSRFTTL,
		WalletTTL: cfg.Auth.WalletTTL,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userRepo := userrepo.NewMemoryRepository()
	wifiRepo := wifirepo.NewMemoryRepository()
	codec := auth.NewCodec(authCfg)
	guard := auth.NewGuard(authCfg)

	authSvc := auth.NewService(authCfg, userRepo, codec, noncestore.NewMemoryStore(), avatarstore.NewMemoryStorage(), logger)
	wifiSvc := wifi.NewService(wifiRepo, logger)
	authz := access.NewAuthorizer(access.DefaultRuleset(), codec, guard, userRepo, cfg.Auth.SystemToken, logger)
	handler := NewHandler(authSvc, wifiSvc, guard, cfg, logger)
	server := NewRouter(cfg, handler, authz)

	return &fixture{handler: server.Handler, userRepo: userRepo, codec: codec, guard: guard}
}

// addUser seeds an account directly and returns its credential cookie value.
func (f *fixture) addUser(t *testing.T, email, role string, complete bool) (auth.User, string) {
	t.Helper()
	user, err := f.userRepo.Create(context.Background(), email, "hash", "REF")
	require.NoError(t, err)
	if role != auth.RoleUser {
		require.NoError(t, f.userRepo.SetRole(context.Background(), user.ID, role))
		user.Role = role
	}
	if complete {
		require.NoError(t, f.userRepo.SetConfirmedEmail(context.Background(), user.ID))
		user, err = f.userRepo.UpdateProfile(context.Background(), user.ID, auth.ProfileUpdate{Name: "Traveler"})
		require.NoError(t, err)
	}
	return user, f.codec.Issue(user.ID, user.Role, time.Hour)
}

type requestOptions struct {
	credential  string
	csrfCookie  string
	csrfHeader  string
	systemToken string
	contentType string
}

func (f *fixture) do(t *testing.T, method, path, body string, opts requestOptions) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if opts.contentType != "" {
		req.Header.Set("Content-Type", opts.contentType)
	} else if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.credential != "" {
		req.AddCookie(&http.Cookie{Name: credentialCookie, Value: opts.credential})
	}
	if opts.csrfCookie != "" {
		req.AddCookie(&http.Cookie{Name: csrfCookie, Value: opts.csrfCookie})
	}
	if opts.csrfHeader != "" {
		req.Header.Set(csrfHeader, opts.csrfHeader)
	}
	if opts.systemToken != "" {
		req.Header.Set(systemHeader, opts.systemToken)
	}
	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, req)
	return recorder
}

func responseCookie(recorder *httptest.ResponseRecorder, name string) *http.Cookie {
	resp := http.Response{Header: recorder.Header()}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func decodeErrorBody(t *testing.T, body []byte) map[string]map[string]string {
	t.Helper()
	var out map[string]map[string]string
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestRouter_CSRFEndpoint(t *testing.T) {
	f := newFixture(t)

	recorder := f.do(t, http.MethodGet, "/api/csrf", "", requestOptions{})
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		CSRF string `json:"csrf"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.NotEmpty(t, body.CSRF)

	cookie := responseCookie(recorder, csrfCookie)
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	require.True(t, strings.HasPrefix(cookie.Value, body.CSRF+"."))
}

func TestRouter_RegisterLoginSession(t *testing.T) {
	f := newFixture(t)

	recorder := f.do(t, http.MethodPost, "/api/auth/register", `{"email":"user@example.com","password":"pass1234"}`, requestOptions{})
	require.Equal(t, http.StatusCreated, recorder.Code)

	session := responseCookie(recorder, credentialCookie)
	require.NotNil(t, session)
	require.NotEmpty(t, session.Value)
	require.True(t, session.HttpOnly)

	// The credential never appears in the body.
	require.NotContains(t, recorder.Body.String(), session.Value)

	recorder = f.do(t, http.MethodGet, "/api/auth/session", "", requestOptions{credential: session.Value})
	require.Equal(t, http.StatusOK, recorder.Code)
	var sessionBody struct {
		User *auth.UserView `json:"user"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &sessionBody))
	require.NotNil(t, sessionBody.User)
	require.Equal(t, "user@example.com", sessionBody.User.Email)

	// Anonymous session resolves to a null user, not an error.
	recorder = f.do(t, http.MethodGet, "/api/auth/session", "", requestOptions{})
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &sessionBody))
	require.Nil(t, sessionBody.User)

	recorder = f.do(t, http.MethodPost, "/api/auth/login", `{"email":"user@example.com","password":"wrong"}`, requestOptions{})
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_credentials", errBody["error"]["code"])
}

func TestRouter_ProtectedRouteRequiresCredential(t *testing.T) {
	f := newFixture(t)

	recorder := f.do(t, http.MethodGet, "/api/user/profile", "", requestOptions{})
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "no_token", errBody["error"]["code"])

	recorder = f.do(t, http.MethodGet, "/api/user/profile", "", requestOptions{credential: "1:admin:9999999999.forged"})
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	errBody = decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_token", errBody["error"]["code"])
}

func TestRouter_WifiMutationNeedsCSRF(t *testing.T) {
	f := newFixture(t)
	_, credential := f.addUser(t, "user@example.com", auth.RoleUser, true)

	body := `{"ssid":"CafeNet","latitude":41.38,"longitude":2.17,"_csrf":"PLACEHOLDER"}`

	// No CSRF cookie at all: denied before the handler runs.
	recorder := f.do(t, http.MethodPost, "/api/wifi", body, requestOptions{credential: credential})
	require.Equal(t, http.StatusForbidden, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "csrf_missing", errBody["error"]["code"])

	listing := f.do(t, http.MethodGet, "/api/wifi", "", requestOptions{})
	require.Equal(t, http.StatusOK, listing.Code)
	require.NotContains(t, listing.Body.String(), "CafeNet")

	// With a matching pair in body and cookie, the point is created and the
	// single-use cookie is cleared.
	pair := f.guard.Issue()
	body = strings.Replace(body, "PLACEHOLDER", pair.Nonce, 1)
	recorder = f.do(t, http.MethodPost, "/api/wifi", body, requestOptions{credential: credential, csrfCookie: pair.Cookie})
	require.Equal(t, http.StatusCreated, recorder.Code)

	cleared := responseCookie(recorder, csrfCookie)
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)

	listing = f.do(t, http.MethodGet, "/api/wifi", "", requestOptions{})
	require.Contains(t, listing.Body.String(), "CafeNet")
}

func TestRouter_CSRFHeaderFallback(t *testing.T) {
	f := newFixture(t)
	_, credential := f.addUser(t, "user@example.com", auth.RoleUser, true)

	pair := f.guard.Issue()
	body := `{"ssid":"HeaderNet","latitude":1,"longitude":1}`
	recorder := f.do(t, http.MethodPost, "/api/wifi", body, requestOptions{
		credential: credential, csrfCookie: pair.Cookie, csrfHeader: pair.Nonce,
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
}

func TestRouter_OversizedBodyReachesHandlerIntact(t *testing.T) {
	f := newFixture(t)
	_, credential := f.addUser(t, "user@example.com", auth.RoleUser, true)

	// A body past the CSRF scan limit cannot carry the token inline, so it
	// rides in the header. The handler must still see the full payload.
	padding := strings.Repeat("x", maxCSRFBodyBytes+4096)
	body := `{"ssid":"BigNet","latitude":1,"longitude":1,"notes":"` + padding + `"}`
	require.Greater(t, len(body), maxCSRFBodyBytes)

	pair := f.guard.Issue()
	recorder := f.do(t, http.MethodPost, "/api/wifi", body, requestOptions{
		credential: credential, csrfCookie: pair.Cookie, csrfHeader: pair.Nonce,
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	listing := f.do(t, http.MethodGet, "/api/wifi", "", requestOptions{})
	require.Contains(t, listing.Body.String(), "BigNet")
}

func TestRouter_CompleteProfileGate(t *testing.T) {
	f := newFixture(t)
	_, credential := f.addUser(t, "fresh@example.com", auth.RoleUser, false)

	pair := f.guard.Issue()
	recorder := f.do(t, http.MethodPost, "/api/wifi", `{"ssid":"CafeNet","latitude":1,"longitude":1}`, requestOptions{
		credential: credential, csrfCookie: pair.Cookie, csrfHeader: pair.Nonce,
	})
	require.Equal(t, http.StatusForbidden, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "complete_profile", errBody["error"]["code"])

	// Completing the profile is itself allowed.
	recorder = f.do(t, http.MethodPatch, "/api/user/profile", `{"name":"Traveler"}`, requestOptions{credential: credential})
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_AdminTier(t *testing.T) {
	f := newFixture(t)
	_, memberCredential := f.addUser(t, "member@example.com", auth.RoleUser, true)
	_, adminCredential := f.addUser(t, "admin@example.com", auth.RoleAdmin, true)

	recorder := f.do(t, http.MethodGet, "/api/admin/users", "", requestOptions{credential: memberCredential})
	require.Equal(t, http.StatusForbidden, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "insufficient_role", errBody["error"]["code"])

	recorder = f.do(t, http.MethodGet, "/api/admin/users", "", requestOptions{credential: adminCredential})
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "member@example.com")
}

func TestRouter_SystemTier(t *testing.T) {
	f := newFixture(t)

	recorder := f.do(t, http.MethodPost, "/api/cron/expire-reports", "", requestOptions{systemToken: "system-secret"})
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "closed")

	recorder = f.do(t, http.MethodPost, "/api/cron/expire-reports", "", requestOptions{systemToken: "guessed"})
	require.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestRouter_AvatarUploadUsesHeaderCSRF(t *testing.T) {
	f := newFixture(t)
	_, credential := f.addUser(t, "user@example.com", auth.RoleUser, true)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="avatar"; filename="me.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	pair := f.guard.Issue()
	req := httptest.NewRequest(http.MethodPost, "/api/user/profile/avatar", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(csrfHeader, pair.Nonce)
	req.AddCookie(&http.Cookie{Name: credentialCookie, Value: credential})
	req.AddCookie(&http.Cookie{Name: csrfCookie, Value: pair.Cookie})

	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "avatarKey")
}

func TestRouter_LogoutClearsCookie(t *testing.T) {
	f := newFixture(t)
	_, credential := f.addUser(t, "user@example.com", auth.RoleUser, true)

	pair := f.guard.Issue()
	recorder := f.do(t, http.MethodPost, "/api/auth/logout", `{"_csrf":"`+pair.Nonce+`"}`, requestOptions{
		credential: credential, csrfCookie: pair.Cookie,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	cleared := responseCookie(recorder, credentialCookie)
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)
}

func TestRouter_LocalePrefixedAPIPath(t *testing.T) {
	f := newFixture(t)
	_, credential := f.addUser(t, "user@example.com", auth.RoleUser, true)

	recorder := f.do(t, http.MethodGet, "/ru/api/user/profile", "", requestOptions{credential: credential})
	// The authorizer strips the locale, but gin routing is canonical, so the
	// route itself is not found. What matters is that the gate ran: without a
	// credential the same path is denied.
	require.NotEqual(t, http.StatusForbidden, recorder.Code)

	recorder = f.do(t, http.MethodGet, "/ru/api/user/profile", "", requestOptions{})
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}
