package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roamgrid/roamgrid/internal/domain/auth"
)

// CSRFToken mints a fresh anti-forgery pair. The signed form goes into the
// single-use cookie; only the raw nonce is returned to the caller.
func (h *Handler) CSRFToken(c *gin.Context) {
	pair := h.guard.Issue()
	h.policy.set(c, csrfCookie, pair.Cookie, int(h.cfg.CSRFTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"csrf": pair.Nonce})
}

// Register creates an account and signs the new user in.
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	h.setSession(c, resp.Credential)
	c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and establishes a session cookie.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	h.setSession(c, resp.Credential)
	c.JSON(http.StatusOK, resp)
}

// Logout clears the session cookie and revokes any stored OAuth refresh
// token. It succeeds even for anonymous callers.
func (h *Handler) Logout(c *gin.Context) {
	if credential := cookieValue(c, credentialCookie); credential != "" {
		if claims, err := h.authSvc.Session(c.Request.Context(), credential); err == nil && claims != nil {
			if err := h.authSvc.Logout(c.Request.Context(), claims.ID); err != nil {
				h.logger.Warn("logout cleanup failed", "user_id", claims.ID, "error", err)
			}
		}
	}
	h.policy.clear(c, credentialCookie)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Session resolves the current user from the credential cookie. Anonymous
// and expired sessions report a null user rather than an error.
func (h *Handler) Session(c *gin.Context) {
	view, err := h.authSvc.Session(c.Request.Context(), cookieValue(c, credentialCookie))
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": view})
}

// GoogleStart begins the PKCE sign-in flow.
func (h *Handler) GoogleStart(c *gin.Context) {
	state, verifier, challenge, err := auth.NewOAuthState()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "auth_error", "failed to start sign-in", err))
		return
	}
	url, err := h.authSvc.GoogleAuthURL(c.Request.Context(), state, challenge)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	h.policy.setOAuthState(c, state, verifier)
	c.Redirect(http.StatusFound, url)
}

// GoogleCallback finishes the PKCE flow and establishes a session.
func (h *Handler) GoogleCallback(c *gin.Context) {
	stored, ok := h.policy.takeOAuthState(c)
	if !ok || c.Query("state") != stored.State {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_state", "oauth state mismatch", nil))
		return
	}
	code := c.Query("code")
	if code == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "missing authorization code", nil))
		return
	}
	resp, err := h.authSvc.GoogleCallback(c.Request.Context(), code, stored.Verifier)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	h.setSession(c, resp.Credential)
	if redirect := h.postLoginRedirect; redirect != "" {
		c.Redirect(http.StatusFound, redirect)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ForgotPassword issues a password reset token. The response is identical
// whether or not the address is registered.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	token, err := h.authSvc.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	if token != "" {
		// Mail delivery lives outside this service; the token is logged for
		// the worker that picks it up.
		h.logger.Info("password reset requested", "email", req.Email)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ResetPassword consumes a reset token and sets a new password.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := h.authSvc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// VerifyEmail consumes an email confirmation token.
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := h.authSvc.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// WalletNonce mints a single-use nonce for the wallet connect flow.
func (h *Handler) WalletNonce(c *gin.Context) {
	nonce, err := h.authSvc.WalletNonce(c.Request.Context())
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

func (h *Handler) setSession(c *gin.Context, credential string) {
	h.policy.set(c, credentialCookie, credential, int(h.cfg.TokenTTL.Seconds()))
}
