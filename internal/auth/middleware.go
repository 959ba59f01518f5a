package auth

import (
	"net/http"
	"strings"

	"rccafe/internal/config"
	"rccafe/internal/models"
	"rccafe/internal/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

// AuthMiddleware rejects requests without a valid access token.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "NO_AUTH_HEADER",
				Message: "Authorization required",
			})
			return
		}

		claims, err := ParseToken(strings.TrimPrefix(authHeader, "Bearer "), config.Get().JWT.AccessSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "INVALID_TOKEN",
				Message: "Invalid or expired token",
			})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// OptionalAuth sets the caller identity when a valid bearer token is present and never aborts.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			claims, err := ParseToken(strings.TrimPrefix(authHeader, "Bearer "), config.Get().JWT.AccessSecret)
			if err == nil {
				c.Set(ctxUserID, claims.UserID)
				c.Set(ctxRole, claims.Role)
			}
		}
		c.Next()
	}
}

// RequireRoles lets the request through only for the listed roles. ADMIN passes every STAFF gate.
// Must run after AuthMiddleware.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := Role(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "NO_AUTH_HEADER",
				Message: "Authorization required",
			})
			return
		}
		if !HasRole(role, roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "Insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// HasRole reports whether role satisfies any of allowed.
func HasRole(role models.Role, allowed ...models.Role) bool {
	for _, r := range allowed {
		if role == r || (r == models.RoleStaff && role == models.RoleAdmin) {
			return true
		}
	}
	return false
}

// Role returns the role set by AuthMiddleware or OptionalAuth.
func Role(c *gin.Context) (models.Role, bool) {
	v, ok := c.Get(ctxRole)
	if !ok {
		return "", false
	}
	r, ok := v.(models.Role)
	return r, ok
}
