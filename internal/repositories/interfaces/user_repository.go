package interfaces

import (
	"context"

	"offerhive/internal/models"
	"offerhive/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Lookup operations. Email and phone are unique per tenant, not globally.
	GetByEmail(ctx context.Context, tenantID primitive.ObjectID, email string) (*models.User, error)
	GetByPhone(ctx context.Context, tenantID primitive.ObjectID, phone string) (*models.User, error)
	GetByReferralCode(ctx context.Context, tenantID primitive.ObjectID, code string) (*models.User, error)

	// Verification operations
	UpdateEmailVerification(ctx context.Context, id primitive.ObjectID, verified bool) error
	UpdatePhoneVerification(ctx context.Context, id primitive.ObjectID, verified bool) error
	UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error

	// Listing
	List(ctx context.Context, tenantID primitive.ObjectID, params *utils.PaginationParams) ([]*models.User, int64, error)
	GetByStatus(ctx context.Context, tenantID primitive.ObjectID, status models.UserStatus, params *utils.PaginationParams) ([]*models.User, int64, error)

	// Statistics
	GetTotalCount(ctx context.Context, tenantID primitive.ObjectID) (int64, error)
}
