package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxReferralLevels caps the depth of the upline. A user never has more than
// seven ancestor edges, and commissions never fan out past level seven.
const MaxReferralLevels = 7

// Referral is one edge of the upline graph: the inviter at the given level
// above the invitee. Level 1 is always the direct inviter. Edges are created
// once at registration and never change afterwards.
type Referral struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID  primitive.ObjectID `json:"tenant_id" bson:"tenant_id" validate:"required"`
	InviterID primitive.ObjectID `json:"inviter_id" bson:"inviter_id" validate:"required"`
	InviteeID primitive.ObjectID `json:"invitee_id" bson:"invitee_id" validate:"required"`
	Level     int                `json:"level" bson:"level" validate:"required,min=1,max=7"`
	Path      string             `json:"path" bson:"path"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Commission describes one credited referral commission.
type Commission struct {
	UserID     primitive.ObjectID `json:"user_id"`
	Amount     decimal.Decimal    `json:"amount"`
	Level      int                `json:"level"`
	Percentage decimal.Decimal    `json:"percentage"`
}

// ReferralStats summarizes a user's downline.
type ReferralStats struct {
	Total       int         `json:"total"`
	ByLevel     map[int]int `json:"by_level"`
	ActiveUsers int         `json:"active_users"`
}
