package services

import (
	"context"
	"errors"
	"fmt"

	"offerhive/internal/models"
	"offerhive/internal/repositories/interfaces"
	"offerhive/internal/repositories/mongodb"
	"offerhive/internal/utils"
	"offerhive/pkg/database"
	"offerhive/pkg/logger"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LedgerService owns the append-only money log and the cached balances
// derived from it. Every credit and debit in the system goes through
// CreateEntry; no other code touches balances.
type LedgerService interface {
	CreateEntry(ctx context.Context, request *CreateEntryRequest) (*models.LedgerEntry, error)
	DebitPayout(ctx context.Context, userID primitive.ObjectID, payoutID string, amount decimal.Decimal, currency string) (*models.LedgerEntry, error)
	ManualAdjustment(ctx context.Context, request *ManualAdjustmentRequest) (*models.LedgerEntry, error)
	GetBalance(ctx context.Context, userID primitive.ObjectID) (*models.Balance, error)
	GetEntry(ctx context.Context, id primitive.ObjectID) (*models.LedgerEntry, error)
	GetEntries(ctx context.Context, userID primitive.ObjectID, filter *interfaces.LedgerEntryFilter, params *utils.PaginationParams) ([]*models.LedgerEntry, int64, error)

	// RecalculateBalance replays the full entry stream and overwrites the
	// cached available balance with the result.
	RecalculateBalance(ctx context.Context, userID primitive.ObjectID) (*models.Balance, error)
}

type CreateEntryRequest struct {
	UserID         primitive.ObjectID         `json:"user_id" validate:"required"`
	Type           models.LedgerEntryType     `json:"type" validate:"required,oneof=credit debit"`
	Category       models.LedgerEntryCategory `json:"category" validate:"required"`
	Amount         decimal.Decimal            `json:"amount"`
	Currency       string                     `json:"currency"`
	RefType        models.LedgerRefType       `json:"ref_type" validate:"required"`
	RefID          string                     `json:"ref_id" validate:"required"`
	Description    string                     `json:"description"`
	Metadata       map[string]interface{}     `json:"metadata"`
	IdempotencyKey string                     `json:"idempotency_key"`
	CreatedBy      *primitive.ObjectID        `json:"created_by"`
}

type ManualAdjustmentRequest struct {
	UserID         primitive.ObjectID     `json:"user_id" validate:"required"`
	Type           models.LedgerEntryType `json:"type" validate:"required,oneof=credit debit"`
	Amount         decimal.Decimal        `json:"amount"`
	Currency       string                 `json:"currency"`
	Description    string                 `json:"description" validate:"required"`
	IdempotencyKey string                 `json:"idempotency_key"`
	AdminID        primitive.ObjectID     `json:"admin_id" validate:"required"`
}

type ledgerService struct {
	ledgerRepo      interfaces.LedgerRepository
	tx              database.TxRunner
	defaultCurrency string
	logger          *logger.Logger
}

func NewLedgerService(ledgerRepo interfaces.LedgerRepository, tx database.TxRunner, defaultCurrency string, log *logger.Logger) LedgerService {
	return &ledgerService{
		ledgerRepo:      ledgerRepo,
		tx:              tx,
		defaultCurrency: defaultCurrency,
		logger:          log,
	}
}

func (s *ledgerService) CreateEntry(ctx context.Context, request *CreateEntryRequest) (*models.LedgerEntry, error) {
	result, err := s.tx.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		return s.createEntryTx(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	entry := result.(*models.LedgerEntry)
	s.logger.LogLedgerEvent(entry.ID, "entry_created", request.Amount, entry.Currency)
	return entry, nil
}

// createEntryTx does the actual work and joins whatever transaction is on
// ctx, so task approval can record the reward and every commission in one
// atomic unit.
func (s *ledgerService) createEntryTx(ctx context.Context, request *CreateEntryRequest) (*models.LedgerEntry, error) {
	if !request.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if request.Type != models.LedgerEntryTypeCredit && request.Type != models.LedgerEntryTypeDebit {
		return nil, fmt.Errorf("unknown entry type %q", request.Type)
	}

	if request.IdempotencyKey != "" {
		existing, err := s.ledgerRepo.GetEntryByIdempotencyKey(ctx, request.IdempotencyKey)
		if err != nil && !errors.Is(err, mongodb.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("idempotency key %s: %w", request.IdempotencyKey, ErrDuplicateEntry)
		}
	}

	currency := request.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	account, err := s.ensureAccount(ctx, request.UserID, currency)
	if err != nil {
		return nil, err
	}
	if account.Currency != currency {
		return nil, fmt.Errorf("entry currency %s, account currency %s: %w", currency, account.Currency, ErrCurrencyMismatch)
	}

	amount128, err := utils.ToDecimal128(request.Amount)
	if err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		AccountID:      account.ID,
		UserID:         request.UserID,
		Type:           request.Type,
		Category:       request.Category,
		Amount:         amount128,
		Currency:       currency,
		Status:         models.LedgerEntryStatusCompleted,
		RefType:        request.RefType,
		RefID:          request.RefID,
		Description:    request.Description,
		Metadata:       request.Metadata,
		IdempotencyKey: request.IdempotencyKey,
		CreatedBy:      request.CreatedBy,
	}

	if request.Type == models.LedgerEntryTypeDebit {
		ok, err := s.ledgerRepo.AdjustAvailableIfSufficient(ctx, account.ID, request.Amount.Neg())
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInsufficientBalance
		}
		if err := s.ledgerRepo.CreateEntry(ctx, entry); err != nil {
			if errors.Is(err, mongodb.ErrDuplicateKey) {
				return nil, ErrDuplicateEntry
			}
			return nil, err
		}
		return entry, nil
	}

	if err := s.ledgerRepo.CreateEntry(ctx, entry); err != nil {
		if errors.Is(err, mongodb.ErrDuplicateKey) {
			return nil, ErrDuplicateEntry
		}
		return nil, err
	}
	if err := s.ledgerRepo.AdjustAvailable(ctx, account.ID, request.Amount); err != nil {
		return nil, err
	}

	return entry, nil
}

// creditTaskRewardTx posts the offer reward for an approved task, joining
// the caller's transaction.
func (s *ledgerService) creditTaskRewardTx(ctx context.Context, task *models.Task, offer *models.Offer, amount decimal.Decimal, reviewerID primitive.ObjectID) (*models.LedgerEntry, error) {
	return s.createEntryTx(ctx, &CreateEntryRequest{
		UserID:         task.UserID,
		Type:           models.LedgerEntryTypeCredit,
		Category:       models.LedgerCategoryTaskReward,
		Amount:         amount,
		Currency:       offer.RewardCurrency,
		RefType:        models.LedgerRefTypeTask,
		RefID:          task.ID.Hex(),
		Description:    fmt.Sprintf("Reward for %s", offer.Title),
		IdempotencyKey: EntryIdempotencyKey(models.LedgerCategoryTaskReward, models.LedgerRefTypeTask, task.ID.Hex(), task.UserID),
		CreatedBy:      &reviewerID,
	})
}

// creditReferralCommissionTx posts one upline commission, joining the
// caller's transaction.
func (s *ledgerService) creditReferralCommissionTx(ctx context.Context, inviterID, earnerID primitive.ObjectID, refType models.LedgerRefType, refID string, level int, pct, amount decimal.Decimal, currency string) (*models.LedgerEntry, error) {
	return s.createEntryTx(ctx, &CreateEntryRequest{
		UserID:      inviterID,
		Type:        models.LedgerEntryTypeCredit,
		Category:    models.LedgerCategoryReferralCommission,
		Amount:      amount,
		Currency:    currency,
		RefType:     refType,
		RefID:       refID,
		Description: fmt.Sprintf("Level %d referral commission", level),
		Metadata: map[string]interface{}{
			"level":      level,
			"percentage": pct.String(),
			"earner_id":  earnerID.Hex(),
		},
		IdempotencyKey: CommissionIdempotencyKey(refType, refID, inviterID, level),
	})
}

func (s *ledgerService) DebitPayout(ctx context.Context, userID primitive.ObjectID, payoutID string, amount decimal.Decimal, currency string) (*models.LedgerEntry, error) {
	return s.CreateEntry(ctx, &CreateEntryRequest{
		UserID:         userID,
		Type:           models.LedgerEntryTypeDebit,
		Category:       models.LedgerCategoryPayout,
		Amount:         amount,
		Currency:       currency,
		RefType:        models.LedgerRefTypePayout,
		RefID:          payoutID,
		Description:    "Payout withdrawal",
		IdempotencyKey: EntryIdempotencyKey(models.LedgerCategoryPayout, models.LedgerRefTypePayout, payoutID, userID),
	})
}

// ManualAdjustment records an admin-initiated credit or debit. The admin
// actor id is mandatory so every manual movement is attributable.
func (s *ledgerService) ManualAdjustment(ctx context.Context, request *ManualAdjustmentRequest) (*models.LedgerEntry, error) {
	if request.AdminID.IsZero() {
		return nil, fmt.Errorf("manual adjustment requires an admin actor")
	}

	refID := request.IdempotencyKey
	if refID == "" {
		refID = primitive.NewObjectID().Hex()
	}

	return s.CreateEntry(ctx, &CreateEntryRequest{
		UserID:         request.UserID,
		Type:           request.Type,
		Category:       models.LedgerCategoryManual,
		Amount:         request.Amount,
		Currency:       request.Currency,
		RefType:        models.LedgerRefTypeManual,
		RefID:          refID,
		Description:    request.Description,
		IdempotencyKey: request.IdempotencyKey,
		CreatedBy:      &request.AdminID,
	})
}

// ensureAccount returns the user's account, creating it with zero balances
// on first touch. A concurrent first touch loses the unique-index race and
// falls back to reading the winner's document.
func (s *ledgerService) ensureAccount(ctx context.Context, userID primitive.ObjectID, currency string) (*models.LedgerAccount, error) {
	account, err := s.ledgerRepo.GetAccountByUserID(ctx, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, mongodb.ErrNotFound) {
		return nil, err
	}

	account = &models.LedgerAccount{
		UserID:           userID,
		Currency:         currency,
		BalanceAvailable: utils.Decimal128Zero(),
		BalancePending:   utils.Decimal128Zero(),
		BalanceFrozen:    utils.Decimal128Zero(),
	}
	err = s.ledgerRepo.CreateAccount(ctx, account)
	if err == nil {
		return account, nil
	}
	if errors.Is(err, mongodb.ErrDuplicateKey) {
		return s.ledgerRepo.GetAccountByUserID(ctx, userID)
	}
	return nil, err
}

func (s *ledgerService) GetBalance(ctx context.Context, userID primitive.ObjectID) (*models.Balance, error) {
	account, err := s.ledgerRepo.GetAccountByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			// No entries yet means a zero balance, not an error.
			return &models.Balance{
				Available: decimal.Zero,
				Pending:   decimal.Zero,
				Frozen:    decimal.Zero,
				Total:     decimal.Zero,
			}, nil
		}
		return nil, err
	}

	return balanceFromAccount(account)
}

func (s *ledgerService) GetEntry(ctx context.Context, id primitive.ObjectID) (*models.LedgerEntry, error) {
	entry, err := s.ledgerRepo.GetEntryByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *ledgerService) GetEntries(ctx context.Context, userID primitive.ObjectID, filter *interfaces.LedgerEntryFilter, params *utils.PaginationParams) ([]*models.LedgerEntry, int64, error) {
	return s.ledgerRepo.ListEntriesByUser(ctx, userID, filter, params)
}

func (s *ledgerService) RecalculateBalance(ctx context.Context, userID primitive.ObjectID) (*models.Balance, error) {
	result, err := s.tx.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		account, err := s.ledgerRepo.GetAccountByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, mongodb.ErrNotFound) {
				return nil, ErrAccountNotFound
			}
			return nil, err
		}

		sum, err := s.ledgerRepo.SumEntriesByAccount(ctx, account.ID)
		if err != nil {
			return nil, err
		}

		cached, err := utils.FromDecimal128(account.BalanceAvailable)
		if err != nil {
			return nil, err
		}
		if !cached.Equal(sum) {
			s.logger.WithUserID(userID).WithFields(map[string]interface{}{
				"cached":     cached.String(),
				"recomputed": sum.String(),
			}).Warn("balance drift repaired")
		}

		pending, err := utils.FromDecimal128(account.BalancePending)
		if err != nil {
			return nil, err
		}
		frozen, err := utils.FromDecimal128(account.BalanceFrozen)
		if err != nil {
			return nil, err
		}

		if err := s.ledgerRepo.SetBalances(ctx, account.ID, sum, pending, frozen); err != nil {
			return nil, err
		}

		return &models.Balance{
			Available: sum,
			Pending:   pending,
			Frozen:    frozen,
			Total:     sum.Add(pending).Add(frozen),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*models.Balance), nil
}

func balanceFromAccount(account *models.LedgerAccount) (*models.Balance, error) {
	available, err := utils.FromDecimal128(account.BalanceAvailable)
	if err != nil {
		return nil, err
	}
	pending, err := utils.FromDecimal128(account.BalancePending)
	if err != nil {
		return nil, err
	}
	frozen, err := utils.FromDecimal128(account.BalanceFrozen)
	if err != nil {
		return nil, err
	}

	return &models.Balance{
		Available: available,
		Pending:   pending,
		Frozen:    frozen,
		Total:     available.Add(pending).Add(frozen),
	}, nil
}

// EntryIdempotencyKey builds the deterministic key that makes money
// movements for the same source event collide instead of double-paying.
func EntryIdempotencyKey(category models.LedgerEntryCategory, refType models.LedgerRefType, refID string, userID primitive.ObjectID) string {
	return fmt.Sprintf("%s:%s:%s:%s", category, refType, refID, userID.Hex())
}

// CommissionIdempotencyKey scopes the key by upline level so each ancestor
// is paid exactly once per source event.
func CommissionIdempotencyKey(refType models.LedgerRefType, refID string, userID primitive.ObjectID, level int) string {
	return fmt.Sprintf("%s:%s:%s:%s:l%d", models.LedgerCategoryReferralCommission, refType, refID, userID.Hex(), level)
}
