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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type referralRepository struct {
	collection *mongo.Collection
}

func NewReferralRepository(db *mongo.Database) interfaces.ReferralRepository {
	return &referralRepository{
		collection: db.Collection("referrals"),
	}
}

func (r *referralRepository) CreateMany(ctx context.Context, referrals []*models.Referral) (int, error) {
	if len(referrals) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(referrals))
	now := time.Now()
	for _, ref := range referrals {
		if ref.ID.IsZero() {
			ref.ID = primitive.NewObjectID()
		}
		ref.CreatedAt = now
		docs = append(docs, ref)
	}

	// Unordered insert keeps going past unique-index collisions, which makes
	// the whole operation idempotent under retries.
	result, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !isDuplicateKeyError(err) {
		return 0, fmt.Errorf("failed to create referral edges: %w", err)
	}
	if result == nil {
		return 0, nil
	}

	return len(result.InsertedIDs), nil
}

func (r *referralRepository) GetUpline(ctx context.Context, inviteeID primitive.ObjectID) ([]*models.Referral, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "level", Value: 1}}).
		SetLimit(models.MaxReferralLevels)

	cursor, err := r.collection.Find(ctx, bson.M{"invitee_id": inviteeID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get upline: %w", err)
	}
	defer cursor.Close(ctx)

	var referrals []*models.Referral
	if err := cursor.All(ctx, &referrals); err != nil {
		return nil, fmt.Errorf("failed to decode upline: %w", err)
	}

	return referrals, nil
}

func (r *referralRepository) GetDirectUplineEdge(ctx context.Context, inviteeID primitive.ObjectID) (*models.Referral, error) {
	var referral models.Referral
	err := r.collection.FindOne(ctx, bson.M{"invitee_id": inviteeID, "level": 1}).Decode(&referral)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get direct upline edge: %w", err)
	}
	return &referral, nil
}

func (r *referralRepository) ListDownline(ctx context.Context, inviterID primitive.ObjectID, level int, params *utils.PaginationParams) ([]*models.Referral, int64, error) {
	query := bson.M{"inviter_id": inviterID}
	if level > 0 {
		query["level"] = level
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count downline: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list downline: %w", err)
	}
	defer cursor.Close(ctx)

	var referrals []*models.Referral
	if err := cursor.All(ctx, &referrals); err != nil {
		return nil, 0, fmt.Errorf("failed to decode downline: %w", err)
	}

	return referrals, total, nil
}

func (r *referralRepository) GetStats(ctx context.Context, inviterID primitive.ObjectID) (*models.ReferralStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"inviter_id": inviterID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$level",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate referral stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Level int `bson:"_id"`
		Count int `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode referral stats: %w", err)
	}

	stats := &models.ReferralStats{ByLevel: make(map[int]int)}
	for _, row := range rows {
		stats.ByLevel[row.Level] = row.Count
		stats.Total += row.Count
	}

	return stats, nil
}
