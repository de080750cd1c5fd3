package middleware

import (
	"net/http"

	"offerhive/internal/models"
	"offerhive/internal/services"
	"offerhive/internal/utils"

	"github.com/gin-gonic/gin"
)

const ContextTenant = "tenant"

// TenantRequired resolves the tenant from the request's Host header. Every
// route under /api/v1 runs behind it; an unknown or inactive hostname never
// reaches a handler.
func TenantRequired(tenants services.TenantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, err := tenants.GetTenantByHost(c.Request.Context(), c.Request.Host)
		if err != nil {
			switch err {
			case services.ErrTenantNotFound:
				utils.NotFoundResponse(c, "Tenant")
			case services.ErrTenantInactive:
				utils.ErrorResponse(c, http.StatusForbidden, "TENANT_INACTIVE", "This tenant is not active")
			default:
				utils.InternalServerErrorResponse(c)
			}
			c.Abort()
			return
		}

		c.Set(ContextTenant, tenant)
		c.Next()
	}
}

// TenantFromContext returns the tenant resolved by TenantRequired, nil when
// the middleware did not run.
func TenantFromContext(c *gin.Context) *models.Tenant {
	value, exists := c.Get(ContextTenant)
	if !exists {
		return nil
	}
	tenant, _ := value.(*models.Tenant)
	return tenant
}
