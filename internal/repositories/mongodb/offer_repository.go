package mongodb

import (
	"context"
	"fmt"
	"time"

	"offerhive/internal/models"
	"offerhive/internal/repositories/interfaces"
	"offerhive/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type offerRepository struct {
	collection *mongo.Collection
}

func NewOfferRepository(db *mongo.Database) interfaces.OfferRepository {
	return &offerRepository{
		collection: db.Collection("offers"),
	}
}

func (r *offerRepository) Create(ctx context.Context, offer *models.Offer) error {
	offer.ID = primitive.NewObjectID()
	for i := range offer.Steps {
		if offer.Steps[i].ID.IsZero() {
			offer.Steps[i].ID = primitive.NewObjectID()
		}
	}
	offer.CreatedAt = time.Now()
	offer.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, offer)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}

	return nil
}

func (r *offerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Offer, error) {
	var offer models.Offer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&offer)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return &offer, nil
}

func (r *offerRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *offerRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *offerRepository) List(ctx context.Context, tenantID primitive.ObjectID, filter *interfaces.OfferFilter, params *utils.PaginationParams) ([]*models.Offer, int64, error) {
	query := bson.M{"tenant_id": tenantID}
	if filter != nil {
		if filter.Category != "" {
			query["category"] = filter.Category
		}
		if filter.Difficulty != "" {
			query["difficulty_level"] = filter.Difficulty
		}
		if filter.ActiveOnly {
			now := time.Now()
			query["is_active"] = true
			query["$and"] = []bson.M{
				{"$or": []bson.M{{"starts_at": nil}, {"starts_at": bson.M{"$lte": now}}}},
				{"$or": []bson.M{{"ends_at": nil}, {"ends_at": bson.M{"$gte": now}}}},
			}
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count offers: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list offers: %w", err)
	}
	defer cursor.Close(ctx)

	var offers []*models.Offer
	if err := cursor.All(ctx, &offers); err != nil {
		return nil, 0, fmt.Errorf("failed to decode offers: %w", err)
	}

	return offers, total, nil
}
