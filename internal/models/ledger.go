package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LedgerEntryType string
type LedgerEntryCategory string
type LedgerEntryStatus string
type LedgerRefType string

const (
	LedgerEntryTypeCredit LedgerEntryType = "credit"
	LedgerEntryTypeDebit  LedgerEntryType = "debit"

	LedgerCategoryTaskReward         LedgerEntryCategory = "task_reward"
	LedgerCategoryReferralCommission LedgerEntryCategory = "referral_commission"
	LedgerCategoryPayout             LedgerEntryCategory = "payout"
	LedgerCategoryManual             LedgerEntryCategory = "manual"

	LedgerEntryStatusCompleted LedgerEntryStatus = "completed"

	LedgerRefTypeTask     LedgerRefType = "task"
	LedgerRefTypeReferral LedgerRefType = "referral"
	LedgerRefTypePayout   LedgerRefType = "payout"
	LedgerRefTypeManual   LedgerRefType = "manual"
)

// LedgerAccount caches per-user balances derived from the entry stream. The
// available balance must equal the signed sum of all completed entries; the
// recalculate operation repairs any drift.
type LedgerAccount struct {
	ID               primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	UserID           primitive.ObjectID   `json:"user_id" bson:"user_id" validate:"required"`
	Currency         string               `json:"currency" bson:"currency" default:"RUB"`
	BalanceAvailable primitive.Decimal128 `json:"balance_available" bson:"balance_available"`
	BalancePending   primitive.Decimal128 `json:"balance_pending" bson:"balance_pending"`
	BalanceFrozen    primitive.Decimal128 `json:"balance_frozen" bson:"balance_frozen"`
	CreatedAt        time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at" bson:"updated_at"`
}

// LedgerEntry is the immutable record of a single financial event. Entries are
// write-once; corrections are new offsetting entries, never updates. Amount is
// always positive, the direction is carried by Type.
type LedgerEntry struct {
	ID             primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	AccountID      primitive.ObjectID     `json:"account_id" bson:"account_id" validate:"required"`
	UserID         primitive.ObjectID     `json:"user_id" bson:"user_id" validate:"required"`
	Type           LedgerEntryType        `json:"type" bson:"type" validate:"required"`
	Category       LedgerEntryCategory    `json:"category" bson:"category" validate:"required"`
	Amount         primitive.Decimal128   `json:"amount" bson:"amount" validate:"required"`
	Currency       string                 `json:"currency" bson:"currency"`
	Status         LedgerEntryStatus      `json:"status" bson:"status" default:"completed"`
	RefType        LedgerRefType          `json:"ref_type" bson:"ref_type" validate:"required"`
	RefID          string                 `json:"ref_id" bson:"ref_id" validate:"required"`
	Description    string                 `json:"description" bson:"description"`
	Metadata       map[string]interface{} `json:"metadata" bson:"metadata"`
	IdempotencyKey string                 `json:"idempotency_key" bson:"idempotency_key,omitempty"`
	CreatedBy      *primitive.ObjectID    `json:"created_by" bson:"created_by"`
	CreatedAt      time.Time              `json:"created_at" bson:"created_at"`
}

// Balance is the read model returned by balance queries. It is never stored,
// so the exact decimal type is used directly.
type Balance struct {
	Available decimal.Decimal `json:"available"`
	Pending   decimal.Decimal `json:"pending"`
	Frozen    decimal.Decimal `json:"frozen"`
	Total     decimal.Decimal `json:"total"`
}
