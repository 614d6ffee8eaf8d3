package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roamgrid/roamgrid/internal/domain/auth"
)

// Profile returns the signed-in user's full profile view.
func (h *Handler) Profile(c *gin.Context) {
	ident, ok := getIdentity(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "no_token", "authentication required", nil))
		return
	}
	view, err := h.authSvc.Profile(c.Request.Context(), ident.ID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": view})
}

// UpdateProfile applies the self-service profile fields.
func (h *Handler) UpdateProfile(c *gin.Context) {
	ident, ok := getIdentity(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "no_token", "authentication required", nil))
		return
	}
	var update auth.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	view, err := h.authSvc.UpdateProfile(c.Request.Context(), ident.ID, update)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": view})
}

// UploadAvatar stores a multipart avatar image. CSRF for this route arrives
// in the x-csrf-token header because the body is a multipart stream.
func (h *Handler) UploadAvatar(c *gin.Context) {
	ident, ok := getIdentity(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "no_token", "authentication required", nil))
		return
	}
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "avatar file is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to open avatar file", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read avatar file", err))
		return
	}
	key, err := h.authSvc.SaveAvatar(c.Request.Context(), ident.ID, data, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatarKey": key})
}

// RequestEmailVerification issues a confirmation token for the signed-in
// user. Exempt from the complete-profile gate; it is how the gate is lifted.
func (h *Handler) RequestEmailVerification(c *gin.Context) {
	ident, ok := getIdentity(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "no_token", "authentication required", nil))
		return
	}
	if _, err := h.authSvc.RequestEmailVerification(c.Request.Context(), ident.ID); err != nil {
		abortWithDomainError(c, err)
		return
	}
	h.logger.Info("email verification requested", "user_id", ident.ID)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ConnectWallet binds a wallet address to the account using a single-use
// nonce from GET /api/auth/wallet/nonce.
func (h *Handler) ConnectWallet(c *gin.Context) {
	ident, ok := getIdentity(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "no_token", "authentication required", nil))
		return
	}
	var req struct {
		Address string `json:"address"`
		Nonce   string `json:"nonce"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := h.authSvc.ConnectWallet(c.Request.Context(), ident.ID, req.Address, req.Nonce); err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DisconnectWallet removes the wallet binding.
func (h *Handler) DisconnectWallet(c *gin.Context) {
	ident, ok := getIdentity(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "no_token", "authentication required", nil))
		return
	}
	if err := h.authSvc.DisconnectWallet(c.Request.Context(), ident.ID); err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
