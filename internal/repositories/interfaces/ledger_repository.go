package interfaces

import (
	"context"

	"offerhive/internal/models"
	"offerhive/internal/utils"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LedgerEntryFilter struct {
	Category models.LedgerEntryCategory
	Type     models.LedgerEntryType
}

type LedgerRepository interface {
	// Accounts
	GetAccountByUserID(ctx context.Context, userID primitive.ObjectID) (*models.LedgerAccount, error)
	CreateAccount(ctx context.Context, account *models.LedgerAccount) error

	// AdjustAvailable applies a signed delta to the cached available balance
	// with a single atomic increment.
	AdjustAvailable(ctx context.Context, accountID primitive.ObjectID, delta decimal.Decimal) error

	// AdjustAvailableIfSufficient applies a negative delta only while the
	// available balance covers it. Returns false without error when the
	// guard misses.
	AdjustAvailableIfSufficient(ctx context.Context, accountID primitive.ObjectID, delta decimal.Decimal) (bool, error)

	// SetBalances overwrites the cached balances, used by recalculation.
	SetBalances(ctx context.Context, accountID primitive.ObjectID, available, pending, frozen decimal.Decimal) error

	// Entries. Entries are append-only; there is no update or delete.
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	GetEntryByID(ctx context.Context, id primitive.ObjectID) (*models.LedgerEntry, error)
	GetEntryByIdempotencyKey(ctx context.Context, key string) (*models.LedgerEntry, error)
	ListEntriesByUser(ctx context.Context, userID primitive.ObjectID, filter *LedgerEntryFilter, params *utils.PaginationParams) ([]*models.LedgerEntry, int64, error)

	// SumEntriesByAccount returns the signed sum of completed entries,
	// credits positive and debits negative.
	SumEntriesByAccount(ctx context.Context, accountID primitive.ObjectID) (decimal.Decimal, error)
}
