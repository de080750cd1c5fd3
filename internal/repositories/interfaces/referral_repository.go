package interfaces

import (
	"context"

	"offerhive/internal/models"
	"offerhive/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralRepository interface {
	// CreateMany inserts upline edges, silently skipping any that collide
	// with the unique (inviter, invitee) index. Returns the number inserted.
	CreateMany(ctx context.Context, referrals []*models.Referral) (int, error)

	// GetUpline returns the invitee's ancestor edges ordered by level
	// ascending, at most models.MaxReferralLevels of them.
	GetUpline(ctx context.Context, inviteeID primitive.ObjectID) ([]*models.Referral, error)

	// GetDirectUplineEdge returns the level-1 edge for the invitee, if any.
	GetDirectUplineEdge(ctx context.Context, inviteeID primitive.ObjectID) (*models.Referral, error)

	ListDownline(ctx context.Context, inviterID primitive.ObjectID, level int, params *utils.PaginationParams) ([]*models.Referral, int64, error)
	GetStats(ctx context.Context, inviterID primitive.ObjectID) (*models.ReferralStats, error)
}
