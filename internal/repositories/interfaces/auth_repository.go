package interfaces

import (
	"context"

	"offerhive/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OTPRepository interface {
	Create(ctx context.Context, otp *models.OTPCode) error

	// GetActive returns the newest unused, unexpired code for the tenant
	// and identifier.
	GetActive(ctx context.Context, tenantID primitive.ObjectID, identifier string) (*models.OTPCode, error)

	// MarkUsed consumes the code. Returns false when it was already used,
	// so two concurrent verifications cannot both succeed.
	MarkUsed(ctx context.Context, id primitive.ObjectID) (bool, error)

	InvalidateForIdentifier(ctx context.Context, tenantID primitive.ObjectID, identifier string) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error
}
