package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roamgrid/roamgrid/internal/domain/wifi"
)

// ListWifi returns a page of Wi-Fi points. Public.
func (h *Handler) ListWifi(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	points, err := h.wifiSvc.List(c.Request.Context(), limit, offset)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

// GetWifi returns one Wi-Fi point. Public.
func (h *Handler) GetWifi(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	point, err := h.wifiSvc.Get(c.Request.Context(), id)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, point)
}

// CreateWifi submits a new point. It enters the moderation queue as pending.
func (h *Handler) CreateWifi(c *gin.Context) {
	ident, ok := getIdentity(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "no_token", "authentication required", nil))
		return
	}
	var req wifi.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	point, err := h.wifiSvc.Create(c.Request.Context(), ident, req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, point)
}

// UpdateWifi edits a point owned by the caller (or any point for elevated
// roles).
func (h *Handler) UpdateWifi(c *gin.Context) {
	ident, ok := getIdentity(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "no_token", "authentication required", nil))
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req wifi.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	point, err := h.wifiSvc.Update(c.Request.Context(), ident, id, req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, point)
}

// DeleteWifi removes a point owned by the caller (or any point for elevated
// roles).
func (h *Handler) DeleteWifi(c *gin.Context) {
	ident, ok := getIdentity(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "no_token", "authentication required", nil))
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.wifiSvc.Delete(c.Request.Context(), ident, id); err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ReportWifiSecurity files a security report against a point.
func (h *Handler) ReportWifiSecurity(c *gin.Context) {
	ident, ok := getIdentity(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "no_token", "authentication required", nil))
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req wifi.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	report, err := h.wifiSvc.ReportSecurity(c.Request.Context(), ident, id, req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid id", err))
		return 0, false
	}
	return id, true
}
