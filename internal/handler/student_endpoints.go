package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createStudentProfile(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindingError(c, err)
		return
	}

	profile, err := h.studentService.CreateProfile(c.Request.Context(), req.Name, req.AgeGroup, req.Avatar)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}
