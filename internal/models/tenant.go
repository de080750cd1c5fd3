package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReferralConfig holds the per-level commission percentages paid out of an
// approved task reward. Levels absent from the tenant record fall back to the
// defaults applied by the tenant service. Percentages are config knobs; the
// commission math itself runs on decimals.
type ReferralConfig struct {
	L1 float64 `json:"l1" bson:"l1"`
	L2 float64 `json:"l2" bson:"l2"`
	L3 float64 `json:"l3" bson:"l3"`
	L4 float64 `json:"l4" bson:"l4"`
	L5 float64 `json:"l5" bson:"l5"`
	L6 float64 `json:"l6" bson:"l6"`
	L7 float64 `json:"l7" bson:"l7"`
}

// Percentage returns the configured percentage for a level 1..7 as an exact
// decimal, zero for anything else.
func (c ReferralConfig) Percentage(level int) decimal.Decimal {
	var pct float64
	switch level {
	case 1:
		pct = c.L1
	case 2:
		pct = c.L2
	case 3:
		pct = c.L3
	case 4:
		pct = c.L4
	case 5:
		pct = c.L5
	case 6:
		pct = c.L6
	case 7:
		pct = c.L7
	default:
		return decimal.Zero
	}
	return decimal.NewFromFloat(pct)
}

type PayoutSettings struct {
	MinPayout           float64 `json:"min_payout" bson:"min_payout"`
	MaxPayout           float64 `json:"max_payout" bson:"max_payout"`
	PayoutCooldownDays  int     `json:"payout_cooldown_days" bson:"payout_cooldown_days"`
	RequireKYCForPayout bool    `json:"require_kyc_for_payout" bson:"require_kyc_for_payout"`
	SupportEmail        string  `json:"support_email" bson:"support_email"`
	SupportPhone        string  `json:"support_phone" bson:"support_phone"`
}

type Tenant struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name" validate:"required"`
	Slug           string             `json:"slug" bson:"slug" validate:"required"`
	Hostnames      []string           `json:"hostnames" bson:"hostnames"`
	Currency       string             `json:"currency" bson:"currency" default:"RUB"`
	IsActive       bool               `json:"is_active" bson:"is_active" default:"true"`
	ReferralConfig *ReferralConfig    `json:"referral_config" bson:"referral_config"`
	PayoutSettings *PayoutSettings    `json:"payout_settings" bson:"payout_settings"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}
