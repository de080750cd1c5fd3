package middleware

import (
	"strings"

	"offerhive/internal/models"
	"offerhive/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

// AuthRequired validates the bearer token and puts the caller's identity on
// the context. The token's tenant must match the tenant resolved from the
// Host header, so a token from one storefront is useless on another.
func AuthRequired(accessSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, accessSecret)
		if err != nil {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		if tenant := TenantFromContext(c); tenant != nil && tenant.ID.Hex() != claims.TenantID {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUserRole, models.UserRole(claims.Role))

		c.Next()
	}
}

// ManagerRequired allows managers and admins through.
func ManagerRequired() gin.HandlerFunc {
	return roleRequired(models.UserRoleManager, models.UserRoleAdmin)
}

// AdminRequired allows admins only.
func AdminRequired() gin.HandlerFunc {
	return roleRequired(models.UserRoleAdmin)
}

func roleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserRole)
		if !exists {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		role := value.(models.UserRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		utils.ForbiddenResponse(c)
		c.Abort()
	}
}

// UserIDFromContext returns the authenticated user's id.
func UserIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return primitive.NilObjectID, false
	}
	id, ok := value.(primitive.ObjectID)
	return id, ok
}
