package interfaces

import (
	"context"

	"offerhive/internal/models"
	"offerhive/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	GetByHostname(ctx context.Context, hostname string) (*models.Tenant, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Tenant, int64, error)
}
