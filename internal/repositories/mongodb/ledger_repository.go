package mongodb

import (
	"context"
	"fmt"
	"time"

	"offerhive/internal/models"
	"offerhive/internal/repositories/interfaces"
	"offerhive/internal/utils"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ledgerRepository struct {
	accounts *mongo.Collection
	entries  *mongo.Collection
}

func NewLedgerRepository(db *mongo.Database) interfaces.LedgerRepository {
	return &ledgerRepository{
		accounts: db.Collection("ledger_accounts"),
		entries:  db.Collection("ledger_entries"),
	}
}

func (r *ledgerRepository) GetAccountByUserID(ctx context.Context, userID primitive.ObjectID) (*models.LedgerAccount, error) {
	var account models.LedgerAccount
	err := r.accounts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ledger account: %w", err)
	}
	return &account, nil
}

func (r *ledgerRepository) CreateAccount(ctx context.Context, account *models.LedgerAccount) error {
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()

	_, err := r.accounts.InsertOne(ctx, account)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create ledger account: %w", err)
	}

	return nil
}

func (r *ledgerRepository) AdjustAvailable(ctx context.Context, accountID primitive.ObjectID, delta decimal.Decimal) error {
	d, err := utils.ToDecimal128(delta)
	if err != nil {
		return err
	}

	result, err := r.accounts.UpdateOne(
		ctx,
		bson.M{"_id": accountID},
		bson.M{
			"$inc": bson.M{"balance_available": d},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *ledgerRepository) AdjustAvailableIfSufficient(ctx context.Context, accountID primitive.ObjectID, delta decimal.Decimal) (bool, error) {
	d, err := utils.ToDecimal128(delta)
	if err != nil {
		return false, err
	}
	// The filter requires balance_available >= -delta so the increment can
	// never push the balance below zero.
	floor, err := utils.ToDecimal128(delta.Neg())
	if err != nil {
		return false, err
	}

	result, err := r.accounts.UpdateOne(
		ctx,
		bson.M{"_id": accountID, "balance_available": bson.M{"$gte": floor}},
		bson.M{
			"$inc": bson.M{"balance_available": d},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to adjust balance: %w", err)
	}

	return result.MatchedCount == 1, nil
}

func (r *ledgerRepository) SetBalances(ctx context.Context, accountID primitive.ObjectID, available, pending, frozen decimal.Decimal) error {
	av, err := utils.ToDecimal128(available)
	if err != nil {
		return err
	}
	pe, err := utils.ToDecimal128(pending)
	if err != nil {
		return err
	}
	fr, err := utils.ToDecimal128(frozen)
	if err != nil {
		return err
	}

	result, err := r.accounts.UpdateOne(
		ctx,
		bson.M{"_id": accountID},
		bson.M{"$set": bson.M{
			"balance_available": av,
			"balance_pending":   pe,
			"balance_frozen":    fr,
			"updated_at":        time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to set balances: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *ledgerRepository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	entry.CreatedAt = time.Now()

	_, err := r.entries.InsertOne(ctx, entry)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}

func (r *ledgerRepository) GetEntryByID(ctx context.Context, id primitive.ObjectID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.entries.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return &entry, nil
}

func (r *ledgerRepository) GetEntryByIdempotencyKey(ctx context.Context, key string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.entries.FindOne(ctx, bson.M{"idempotency_key": key}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return &entry, nil
}

func (r *ledgerRepository) ListEntriesByUser(ctx context.Context, userID primitive.ObjectID, filter *interfaces.LedgerEntryFilter, params *utils.PaginationParams) ([]*models.LedgerEntry, int64, error) {
	query := bson.M{"user_id": userID}
	if filter != nil {
		if filter.Category != "" {
			query["category"] = filter.Category
		}
		if filter.Type != "" {
			query["type"] = filter.Type
		}
	}

	total, err := r.entries.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	cursor, err := r.entries.Find(ctx, query, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.LedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, fmt.Errorf("failed to decode ledger entries: %w", err)
	}

	return entries, total, nil
}

func (r *ledgerRepository) SumEntriesByAccount(ctx context.Context, accountID primitive.ObjectID) (decimal.Decimal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"account_id": accountID,
			"status":     models.LedgerEntryStatusCompleted,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"total": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$type", models.LedgerEntryTypeCredit}},
				"$amount",
				bson.M{"$multiply": bson.A{"$amount", -1}},
			}}},
		}}},
	}

	cursor, err := r.entries.Aggregate(ctx, pipeline)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total primitive.Decimal128 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode ledger sum: %w", err)
	}
	if len(results) == 0 {
		return decimal.Zero, nil
	}

	return utils.FromDecimal128(results[0].Total)
}
