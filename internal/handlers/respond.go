package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dkuznetsov/bank-cards/internal/apperrors"
	"github.com/dkuznetsov/bank-cards/internal/core/domain"
	"github.com/dkuznetsov/bank-cards/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError maps a classified service error onto an HTTP status. Unknown
// errors become 500 without leaking internals.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInsufficientFunds), errors.Is(err, apperrors.ErrCardNotActive):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logger.Error("Unhandled service error", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// callerIdentity extracts the authenticated user ID and admin flag from the
// request context. ok is false when auth middleware did not run.
func callerIdentity(c *gin.Context) (userID string, isAdmin bool, ok bool) {
	userID, ok = middleware.GetUserIDFromContext(c.Request.Context())
	if !ok {
		return "", false, false
	}
	role, _ := middleware.GetUserRoleFromContext(c.Request.Context())
	return userID, role == string(domain.RoleAdmin), true
}
