package handler

import (
	"net/http"

	"safepath-server/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) dashboardStats(c *gin.Context) {
	ngoID, ok := requesterID(c)
	if !ok {
		handleServiceError(c, domain.ErrUnauthorized)
		return
	}

	stats, err := h.storyService.DashboardStats(c.Request.Context(), ngoID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
