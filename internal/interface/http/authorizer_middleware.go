package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/roamgrid/roamgrid/internal/domain/access"
)

// maxCSRFBodyBytes bounds how much of a request body the middleware will
// buffer while looking for the _csrf field. Larger bodies fall back to the
// header token.
const maxCSRFBodyBytes = 1 << 20

// authorizerMiddleware is the single gate in front of every route. It
// extracts the credential cookie, the CSRF pair, and the system header,
// delegates the decision to the authorizer, and translates the outcome into
// either an attached identity or an aborted error response.
func authorizerMiddleware(authz *access.Authorizer, policy cookiePolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := access.Request{
			Method:      c.Request.Method,
			Path:        c.Request.URL.Path,
			Credential:  cookieValue(c, credentialCookie),
			CSRFCookie:  cookieValue(c, csrfCookie),
			SystemToken: c.GetHeader(systemHeader),
		}
		if c.Request.Method == http.MethodPost {
			req.CSRFSubmitted = readCSRFSubmission(c)
		}

		decision, err := authz.Authorize(c.Request.Context(), req)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusInternalServerError, "auth_failed", "authorization check failed", err))
			return
		}

		if decision.ConsumeCSRF {
			policy.clear(c, csrfCookie)
		}
		if !decision.Allowed {
			abortWithError(c, NewHTTPError(decision.Status, decision.Reason, denyMessage(decision.Reason), nil))
			return
		}

		if decision.Identity.ID != 0 {
			setIdentity(c, decision.Identity)
		}
		c.Next()
	}
}

// readCSRFSubmission extracts the caller's CSRF token. JSON and form bodies
// carry it in a _csrf field; the body is buffered and restored so handlers
// can still bind it. Multipart uploads would require consuming the stream to
// parse, so they must send the token in the header instead.
func readCSRFSubmission(c *gin.Context) string {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/") {
		return c.GetHeader(csrfHeader)
	}

	if c.Request.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCSRFBodyBytes))
		if err == nil {
			// Stitch the unread remainder back on so oversized bodies still
			// reach the handler intact.
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), c.Request.Body))
			if token := csrfFromBody(contentType, raw); token != "" {
				return token
			}
		}
	}
	return c.GetHeader(csrfHeader)
}

func csrfFromBody(contentType string, raw []byte) string {
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		var body struct {
			CSRF string `json:"_csrf"`
		}
		if err := json.Unmarshal(raw, &body); err == nil {
			return body.CSRF
		}
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		if values, err := url.ParseQuery(string(raw)); err == nil {
			return values.Get("_csrf")
		}
	}
	return ""
}

func denyMessage(reason string) string {
	switch reason {
	case access.ReasonNoToken:
		return "authentication required"
	case access.ReasonInvalidToken:
		return "session is invalid or expired"
	case access.ReasonUserNotFound:
		return "account no longer exists"
	case access.ReasonProfileIncomplete:
		return "complete your profile to continue"
	case access.ReasonInsufficientRole:
		return "elevated access required"
	case access.ReasonCSRFMissing, access.ReasonCSRFMalformed,
		access.ReasonCSRFBadSignature, access.ReasonCSRFMismatch:
		return "csrf validation failed"
	default:
		return "access denied"
	}
}
