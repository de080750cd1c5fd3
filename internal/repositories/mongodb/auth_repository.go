package mongodb

import (
	"context"
	"fmt"
	"time"

	"offerhive/internal/models"
	"offerhive/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type otpRepository struct {
	collection *mongo.Collection
}

func NewOTPRepository(db *mongo.Database) interfaces.OTPRepository {
	return &otpRepository{
		collection: db.Collection("otp_codes"),
	}
}

func (r *otpRepository) Create(ctx context.Context, otp *models.OTPCode) error {
	otp.ID = primitive.NewObjectID()
	otp.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, otp)
	if err != nil {
		return fmt.Errorf("failed to create otp code: %w", err)
	}

	return nil
}

func (r *otpRepository) GetActive(ctx context.Context, tenantID primitive.ObjectID, identifier string) (*models.OTPCode, error) {
	var otp models.OTPCode
	err := r.collection.FindOne(
		ctx,
		bson.M{
			"tenant_id":  tenantID,
			"identifier": identifier,
			"used_at":    nil,
			"expires_at": bson.M{"$gt": time.Now()},
		},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&otp)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get otp code: %w", err)
	}
	return &otp, nil
}

func (r *otpRepository) MarkUsed(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "used_at": nil},
		bson.M{"$set": bson.M{"used_at": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark otp used: %w", err)
	}

	return result.MatchedCount == 1, nil
}

func (r *otpRepository) InvalidateForIdentifier(ctx context.Context, tenantID primitive.ObjectID, identifier string) error {
	_, err := r.collection.UpdateMany(
		ctx,
		bson.M{"tenant_id": tenantID, "identifier": identifier, "used_at": nil},
		bson.M{"$set": bson.M{"used_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to invalidate otp codes: %w", err)
	}

	return nil
}

type sessionRepository struct {
	collection *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) interfaces.SessionRepository {
	return &sessionRepository{
		collection: db.Collection("sessions"),
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	session.ID = primitive.NewObjectID()
	session.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

func (r *sessionRepository) GetByRefreshToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := r.collection.FindOne(ctx, bson.M{
		"refresh_token": token,
		"expires_at":    bson.M{"$gt": time.Now()},
	}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	return nil
}
