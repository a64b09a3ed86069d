package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindingError(c, err)
		return
	}

	td, err := h.authService.Signup(c.Request.Context(), req.OrgName, req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	signupsTotal.Inc()
	c.JSON(http.StatusCreated, newTokenResponse(td))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindingError(c, err)
		return
	}

	td, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(td))
}
