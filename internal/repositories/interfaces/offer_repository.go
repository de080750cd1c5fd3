package interfaces

import (
	"context"

	"offerhive/internal/models"
	"offerhive/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OfferFilter struct {
	Category   models.OfferCategory
	Difficulty models.OfferDifficulty
	ActiveOnly bool
}

type OfferRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Offer, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	List(ctx context.Context, tenantID primitive.ObjectID, filter *OfferFilter, params *utils.PaginationParams) ([]*models.Offer, int64, error)
}
