package handler

import (
	"errors"
	"net/http"

	"safepath-server/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error codes surfaced in the uniform envelope.
const (
	errCodeUnauthorized     = "UNAUTHORIZED"
	errCodeForbidden        = "FORBIDDEN"
	errCodeNotFound         = "NOT_FOUND"
	errCodeConflict         = "CONFLICT"
	errCodeValidation       = "VALIDATION_ERROR"
	errCodeGenerationFailed = "STORY_GENERATION_FAILED"
	errCodeSafetyFailed     = "SAFETY_VALIDATION_FAILED"
	errCodeServer           = "SERVER_ERROR"
)

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp errorResponse

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		errResp = errorResponse{Message: "Invalid email or password", Error: errCodeUnauthorized}
	case errors.Is(err, domain.ErrTokenInvalid), errors.Is(err, domain.ErrTokenMalformed):
		statusCode = http.StatusUnauthorized
		errResp = errorResponse{Message: "Token is invalid or malformed", Error: errCodeUnauthorized}
	case errors.Is(err, domain.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errResp = errorResponse{Message: "Token has expired", Error: errCodeUnauthorized}
	case errors.Is(err, domain.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errResp = errorResponse{Message: "Authentication required", Error: errCodeUnauthorized}
	case errors.Is(err, domain.ErrForbidden):
		statusCode = http.StatusForbidden
		errResp = errorResponse{Message: "You cannot access this resource", Error: errCodeForbidden}
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		statusCode = http.StatusConflict
		errResp = errorResponse{Message: "An account with this email already exists", Error: errCodeConflict}
	case errors.Is(err, domain.ErrStoryNotFound), errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = errorResponse{Message: "Resource not found", Error: errCodeNotFound}
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrSlideSetInvalid):
		statusCode = http.StatusBadRequest
		errResp = errorResponse{Message: err.Error(), Error: errCodeValidation}
	case errors.Is(err, domain.ErrSafetyRejected):
		statusCode = http.StatusBadRequest
		errResp = errorResponse{Message: "Content failed safety validation. Please revise your story.", Error: errCodeSafetyFailed}
	case errors.Is(err, domain.ErrGenerationUnavailable):
		// Retryable and not the caller's fault, so not a 4xx.
		statusCode = http.StatusBadGateway
		errResp = errorResponse{Message: "Failed to generate story. Please try again.", Error: errCodeGenerationFailed}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = errorResponse{Message: "An unexpected internal error occurred", Error: errCodeServer}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}

// handleBindingError surfaces gin binding failures in the uniform envelope.
// The raw binding message is truncated so internals never leak wholesale.
func handleBindingError(c *gin.Context, err error) {
	detail := err.Error()
	if len(detail) > 200 {
		detail = detail[:200]
	}
	zap.L().Debug("Request binding failed", zap.String("detail", detail))
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Message: "Validation error: request body is invalid",
		Error:   errCodeValidation,
	})
}
