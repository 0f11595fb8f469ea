package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/harshit21255/delhi-transit-buddy/internal/utils"
	"github.com/harshit21255/delhi-transit-buddy/pkg/jwt"
	"github.com/sirupsen/logrus"
)

// AdminContextKey is the key used to store the admin identity in Gin context
const AdminContextKey = "admin"

// AdminContext represents the authenticated admin's information
type AdminContext struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// AuthMiddleware creates a middleware that validates JWT access tokens
func AuthMiddleware(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		fail := func(reason, code, message string) {
			logger.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"ip":     utils.ClientIP(c),
				"reason": reason,
			}).Warn("Auth failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": message,
				"code":    code,
			})
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			fail("missing header", "MISSING_AUTH_HEADER", "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			fail("bad format", "INVALID_AUTH_FORMAT", "Invalid authorization header format. Expected: Bearer <token>")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			fail("empty token", "INVALID_AUTH_FORMAT", "Token cannot be empty")
			return
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			if jwt.IsExpired(err) {
				fail("expired", "TOKEN_EXPIRED", "Access token has expired. Please refresh your token.")
			} else {
				fail(err.Error(), "INVALID_TOKEN", "Invalid access token")
			}
			return
		}

		c.Set(AdminContextKey, AdminContext{
			Username: claims.Username,
			Roles:    claims.Roles,
		})

		c.Next()
	}
}

// RequireRole creates a middleware that checks the caller has one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminCtx, exists := GetAdminContext(c)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Admin context not found. Auth middleware may not be applied.",
				"code":    "MISSING_USER_CONTEXT",
			})
			return
		}

		for _, required := range roles {
			for _, role := range adminCtx.Roles {
				if role == required {
					c.Next()
					return
				}
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"status":  "error",
			"message": "You don't have permission to access this resource",
			"code":    "INSUFFICIENT_PERMISSIONS",
		})
	}
}

// GetAdminContext retrieves the admin identity from Gin context
func GetAdminContext(c *gin.Context) (AdminContext, bool) {
	value, exists := c.Get(AdminContextKey)
	if !exists {
		return AdminContext{}, false
	}

	adminCtx, ok := value.(AdminContext)
	return adminCtx, ok
}
