package access

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/roamgrid/roamgrid/internal/domain/auth"
)

// Request carries the authorizer's view of an inbound HTTP request. The
// transport extracts cookie and header values up front; the authorizer
// itself performs no I/O besides the identity lookup.
type Request struct {
	Method        string
	Path          string
	Credential    string // auth-token cookie value, empty if absent
	CSRFCookie    string // csrf-token cookie value, empty if absent
	CSRFSubmitted string // body _csrf field or x-csrf-token header
	SystemToken   string // x-system-token header
}

// Decision is the terminal outcome of authorization. Deny outcomes are
// ordinary values, not errors; errors are reserved for infrastructure
// failures such as an unreachable database.
type Decision struct {
	Allowed     bool
	Identity    auth.Identity // zero for public, system, and skipped paths
	ConsumeCSRF bool          // transport must delete the csrf cookie
	Status      int           // set when !Allowed
	Reason      string        // taxonomy code when !Allowed
}

// Deny reason codes.
const (
	ReasonNoToken           = "no_token"
	ReasonInvalidToken      = "invalid_token"
	ReasonUserNotFound      = "user_not_found"
	ReasonProfileIncomplete = "complete_profile"
	ReasonInsufficientRole  = "insufficient_role"
	ReasonForbidden         = "forbidden"
	ReasonCSRFMissing       = "csrf_missing"
	ReasonCSRFMalformed     = "csrf_malformed"
	ReasonCSRFBadSignature  = "csrf_bad_signature"
	ReasonCSRFMismatch      = "csrf_mismatch"
)

// Authorizer is the single gate every API request passes through before any
// handler runs. All of its shared state is read-only after construction.
type Authorizer struct {
	rules       Ruleset
	codec       *auth.Codec
	guard       *auth.Guard
	users       auth.Repository
	systemToken string
	logger      *slog.Logger
}

// NewAuthorizer wires the request gate.
func NewAuthorizer(rules Ruleset, codec *auth.Codec, guard *auth.Guard, users auth.Repository, systemToken string, logger *slog.Logger) *Authorizer {
	return &Authorizer{
		rules:       rules,
		codec:       codec,
		guard:       guard,
		users:       users,
		systemToken: systemToken,
		logger:      logger.With("component", "access.authorizer"),
	}
}

// Authorize runs the per-request state machine. It returns an error only
// for infrastructure failures; every access decision, including denials, is
// expressed in the Decision value.
func (a *Authorizer) Authorize(ctx context.Context, req Request) (Decision, error) {
	// Pages and framework assets bypass the gate entirely. The locale
	// prefix is stripped first so /ru/api/... is still gated.
	if !strings.HasPrefix(Normalize(req.Path), "/api/") || isInfraPath(req.Path) {
		return allow(auth.Identity{}, false), nil
	}

	if Match(a.rules.Public, req.Method, req.Path) {
		return allow(auth.Identity{}, false), nil
	}

	if Match(a.rules.System, req.Method, req.Path) && a.isSystemRequest(req.SystemToken) {
		return allow(auth.Identity{}, false), nil
	}

	consumeCSRF := false
	if req.Method == http.MethodPost {
		if err := a.guard.Validate(req.CSRFCookie, req.CSRFSubmitted); err != nil {
			return deny(http.StatusForbidden, csrfReason(err)), nil
		}
		// Single use: the cookie is deleted even when a later check denies.
		consumeCSRF = true
	}

	if req.Credential == "" {
		return denyCSRF(http.StatusUnauthorized, ReasonNoToken, consumeCSRF), nil
	}
	claims, err := a.codec.Verify(req.Credential)
	if err != nil {
		a.logger.Debug("credential rejected", "path", req.Path, "error", err)
		return denyCSRF(http.StatusUnauthorized, ReasonInvalidToken, consumeCSRF), nil
	}

	// Admin tier first: an elevated credential passes with the lightweight
	// identity and no database round trip.
	if Match(a.rules.Admin, req.Method, req.Path) {
		identity := auth.Identity{ID: claims.UserID, Role: claims.Role}
		if !identity.Elevated() {
			a.logger.Warn("admin access denied", "path", req.Path, "role", claims.Role)
			return denyCSRF(http.StatusForbidden, ReasonInsufficientRole, consumeCSRF), nil
		}
		return allow(identity, consumeCSRF), nil
	}

	if Match(a.rules.Authenticated, req.Method, req.Path) {
		user, found, err := a.users.GetByID(ctx, claims.UserID)
		if err != nil {
			return Decision{}, err
		}
		if !found {
			return denyCSRF(http.StatusUnauthorized, ReasonUserNotFound, consumeCSRF), nil
		}
		if req.Method != http.MethodGet && !user.ProfileComplete() && !profileGateExempt(req.Method, req.Path) {
			return denyCSRF(http.StatusForbidden, ReasonProfileIncomplete, consumeCSRF), nil
		}
		return allow(auth.Identity{ID: user.ID, Role: user.Role, User: &user}, consumeCSRF), nil
	}

	a.logger.Warn("access denied", "path", req.Path, "method", req.Method, "role", claims.Role)
	return denyCSRF(http.StatusForbidden, ReasonForbidden, consumeCSRF), nil
}

func (a *Authorizer) isSystemRequest(headerToken string) bool {
	return a.systemToken != "" && headerToken == a.systemToken
}

func allow(identity auth.Identity, consumeCSRF bool) Decision {
	return Decision{Allowed: true, Identity: identity, ConsumeCSRF: consumeCSRF}
}

func deny(status int, reason string) Decision {
	return Decision{Status: status, Reason: reason}
}

func denyCSRF(status int, reason string, consumeCSRF bool) Decision {
	return Decision{Status: status, Reason: reason, ConsumeCSRF: consumeCSRF}
}

func csrfReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrCSRFMissing):
		return ReasonCSRFMissing
	case errors.Is(err, auth.ErrCSRFMalformed):
		return ReasonCSRFMalformed
	case errors.Is(err, auth.ErrCSRFBadSignature):
		return ReasonCSRFBadSignature
	default:
		return ReasonCSRFMismatch
	}
}

// isInfraPath matches bundler assets, PWA icons, and similar framework
// paths that must never hit the authorizer.
func isInfraPath(path string) bool {
	switch {
	case strings.HasPrefix(path, "/_nuxt"),
		strings.HasPrefix(path, "/assets"),
		strings.HasPrefix(path, "/images"),
		strings.HasPrefix(path, "/@"),
		path == "/favicon.ico",
		strings.Contains(path, "hot-update"),
		strings.Contains(path, "manifest.webmanifest"):
		return true
	}
	return pwaIconPattern.MatchString(path)
}

var pwaIconPattern = regexp.MustCompile(`/(pwa-\d+x\d+\.png|apple-touch-icon.*\.png|android-chrome-.*\.png|safari-pinned-tab\.svg)$`)

// The complete-profile gate blocks most mutations until the user confirms
// their email and sets a name, but the routes needed to finish (or undo)
// that onboarding stay reachable.
var profileGateExemptions = []struct {
	method  string
	pattern *regexp.Regexp
}{
	{http.MethodPatch, regexp.MustCompile(`^/api/user/profile$`)},
	{http.MethodPost, regexp.MustCompile(`^/api/user/profile/avatar$`)},
	{http.MethodPost, regexp.MustCompile(`^/api/user/profile/wallet$`)},
	{http.MethodPost, regexp.MustCompile(`^/api/user/profile/verify-email$`)},
	{http.MethodPost, regexp.MustCompile(`^/api/wifi/\d+/security-report$`)},
	{http.MethodPatch, regexp.MustCompile(`^/api/wifi/\d+/update$`)},
	{http.MethodDelete, regexp.MustCompile(`^/api/wifi/\d+$`)},
}

func profileGateExempt(method, path string) bool {
	clean := Normalize(path)
	for _, e := range profileGateExemptions {
		if e.method == method && e.pattern.MatchString(clean) {
			return true
		}
	}
	return false
}
