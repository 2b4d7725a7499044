package middleware

import "github.com/gin-gonic/gin"

// userIDKey and tenantIDKey store the authenticated identity in the Gin
// context. Using a custom type prevents collisions.
const (
	userIDKey   = contextKey("userID")
	tenantIDKey = contextKey("tenantID")
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		// check in the request context as well
		userIDVal := c.Request.Context().Value(userIDKey)
		if userIDVal != nil {
			return userIDVal.(string), true
		}
		return "", false
	}

	userID, ok := userIDVal.(string)
	if !ok {
		// This should not happen if the auth middleware sets it correctly
		return "", false
	}

	return userID, true
}

// GetTenantIDFromContext retrieves the authenticated user's tenant ID from the
// Gin context. Every tenant-scoped handler resolves its tenant through this,
// never from request input.
func GetTenantIDFromContext(c *gin.Context) (string, bool) {
	tenantIDVal, exists := c.Get(string(tenantIDKey))
	if !exists {
		tenantIDVal := c.Request.Context().Value(tenantIDKey)
		if tenantIDVal != nil {
			return tenantIDVal.(string), true
		}
		return "", false
	}

	tenantID, ok := tenantIDVal.(string)
	if !ok {
		return "", false
	}

	return tenantID, true
}
