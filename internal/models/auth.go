package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTPCode is a one-time login code scoped to a tenant and identifier (email
// or phone). Single use: UsedAt is set the moment it is consumed.
type OTPCode struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID   primitive.ObjectID `json:"tenant_id" bson:"tenant_id" validate:"required"`
	Identifier string             `json:"identifier" bson:"identifier" validate:"required"`
	Code       string             `json:"code" bson:"code" validate:"required"`
	ExpiresAt  time.Time          `json:"expires_at" bson:"expires_at"`
	UsedAt     *time.Time         `json:"used_at" bson:"used_at"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}

// Session is a refresh-token session.
type Session struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID       primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	RefreshToken string             `json:"-" bson:"refresh_token"`
	UserAgent    string             `json:"user_agent" bson:"user_agent"`
	IPAddress    string             `json:"ip_address" bson:"ip_address"`
	ExpiresAt    time.Time          `json:"expires_at" bson:"expires_at"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}
