package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const staleReportAge = 30 * 24 * time.Hour

// ExpireReports closes security reports that have been open longer than the
// retention window. System tier, invoked by the scheduler with the
// x-system-token header.
func (h *Handler) ExpireReports(c *gin.Context) {
	closed, err := h.wifiSvc.ExpireStaleReports(c.Request.Context(), staleReportAge)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": closed})
}
