package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListUsers pages through accounts. Admin tier; the authorizer guarantees an
// elevated identity before this runs.
func (h *Handler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	views, err := h.authSvc.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

// UpdateUserRole changes an account's role.
func (h *Handler) UpdateUserRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := h.authSvc.UpdateRole(c.Request.Context(), id, req.Role); err != nil {
		abortWithDomainError(c, err)
		return
	}
	ident, _ := getIdentity(c)
	h.logger.Info("role updated", "target_id", id, "role", req.Role, "actor_id", ident.ID)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
