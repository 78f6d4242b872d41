package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/middleware"
	"github.com/gin-gonic/gin"
)

// requestIdentity returns the tenant and user the token was issued for.
// It writes a 401 and returns ok=false when either is missing.
func requestIdentity(c *gin.Context, logger *slog.Logger) (tenantID string, userID string, ok bool) {
	userID, ok = middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	tenantID, ok = middleware.GetTenantIDFromContext(c)
	if !ok {
		logger.Error("Tenant ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	return tenantID, userID, true
}

// handleServiceError writes the status apperrors.HTTPStatus assigns to err.
// Client errors carry the error text, server errors only the generic message.
func handleServiceError(c *gin.Context, logger *slog.Logger, err error, message string) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(message, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": message})
		return
	}
	logger.Warn(message, slog.String("error", err.Error()), slog.Int("status", status))
	c.JSON(status, gin.H{"error": err.Error()})
}

// pathInt parses an integer path parameter, writing a 400 on failure.
func pathInt(c *gin.Context, logger *slog.Logger, name string) (int, bool) {
	raw := c.Param(name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("Invalid path parameter", slog.String("param", name), slog.String("value", raw))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + ": " + raw})
		return 0, false
	}
	return v, true
}
