package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates every index the repositories rely on. The unique
// indexes are load-bearing: idempotency keys, one account per user, and
// at most one upline edge per (inviter, invitee) pair all depend on them.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"tenants": {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "hostnames", Value: 1}}},
		},
		"users": {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}})},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "phone", Value: 1}},
				Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"phone": bson.M{"$type": "string"}})},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "referral_code", Value: 1}},
				Options: options.Index().SetUnique(true)},
		},
		"offers": {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "is_active", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "category", Value: 1}}},
		},
		"tasks": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "offer_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "status", Value: 1}, {Key: "submitted_at", Value: 1}}},
		},
		"ledger_accounts": {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"ledger_entries": {
			{Keys: bson.D{{Key: "idempotency_key", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		"referrals": {
			{Keys: bson.D{{Key: "inviter_id", Value: 1}, {Key: "invitee_id", Value: 1}},
				Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "invitee_id", Value: 1}, {Key: "level", Value: 1}},
				Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "inviter_id", Value: 1}, {Key: "level", Value: 1}}},
		},
		"otp_codes": {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "identifier", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(int32((24 * time.Hour).Seconds()))},
		},
		"sessions": {
			{Keys: bson.D{{Key: "refresh_token", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}

	return nil
}
