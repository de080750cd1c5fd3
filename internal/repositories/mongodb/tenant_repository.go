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

type tenantRepository struct {
	collection *mongo.Collection
}

func NewTenantRepository(db *mongo.Database) interfaces.TenantRepository {
	return &tenantRepository{
		collection: db.Collection("tenants"),
	}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	tenant.ID = primitive.NewObjectID()
	tenant.CreatedAt = time.Now()
	tenant.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, tenant)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("tenant slug %s: %w", tenant.Slug, ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	return nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Tenant, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *tenantRepository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *tenantRepository) GetByHostname(ctx context.Context, hostname string) (*models.Tenant, error) {
	return r.findOne(ctx, bson.M{"hostnames": hostname})
}

func (r *tenantRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *tenantRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Tenant, int64, error) {
	filter := bson.M{}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tenants: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer cursor.Close(ctx)

	var tenants []*models.Tenant
	if err := cursor.All(ctx, &tenants); err != nil {
		return nil, 0, fmt.Errorf("failed to decode tenants: %w", err)
	}

	return tenants, total, nil
}

func (r *tenantRepository) findOne(ctx context.Context, filter bson.M) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.collection.FindOne(ctx, filter).Decode(&tenant)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &tenant, nil
}
