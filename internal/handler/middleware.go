package handler

import (
	"strings"

	"safepath-server/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const ctxKeyNgoID = "ngo_id"

// AuthMiddleware requires a valid NGO bearer token and stores the verified
// NGO id on the context.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, domain.ErrUnauthorized)
			return
		}

		claims, err := h.authService.VerifyAccessToken(tokenString)
		if err != nil {
			h.logger.Warn("Access token verification failed", zap.Error(err))
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, err)
			return
		}

		ngoID, err := claims.NgoID()
		if err != nil {
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, domain.ErrTokenInvalid)
			return
		}

		tokenVerificationsTotal.WithLabelValues("success").Inc()
		c.Set(ctxKeyNgoID, ngoID)
		c.Next()
	}
}

// OptionalAuthMiddleware verifies a bearer token when one is present but
// lets anonymous requests through. Used on listing, where authentication
// widens visibility instead of gating access.
func (h *Handler) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := h.authService.VerifyAccessToken(tokenString)
		if err != nil {
			// A presented-but-invalid token is an error, not anonymity.
			handleServiceError(c, err)
			return
		}
		if ngoID, err := claims.NgoID(); err == nil {
			c.Set(ctxKeyNgoID, ngoID)
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// requesterID returns the verified NGO id set by AuthMiddleware.
func requesterID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ctxKeyNgoID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
