package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRole string
type UserStatus string

const (
	UserRoleUser    UserRole = "user"
	UserRoleManager UserRole = "manager"
	UserRoleAdmin   UserRole = "admin"

	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

type User struct {
	ID              primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	TenantID        primitive.ObjectID     `json:"tenant_id" bson:"tenant_id" validate:"required"`
	Role            UserRole               `json:"role" bson:"role" default:"user"`
	Email           string                 `json:"email" bson:"email,omitempty"`
	Phone           string                 `json:"phone" bson:"phone,omitempty"`
	IsEmailVerified bool                   `json:"is_email_verified" bson:"is_email_verified" default:"false"`
	IsPhoneVerified bool                   `json:"is_phone_verified" bson:"is_phone_verified" default:"false"`
	Status          UserStatus             `json:"status" bson:"status" default:"active"`
	ReferralCode    string                 `json:"referral_code" bson:"referral_code"`
	ReferredBy      *primitive.ObjectID    `json:"referred_by" bson:"referred_by"`
	Profile         map[string]interface{} `json:"profile" bson:"profile"`
	LastLoginAt     *time.Time             `json:"last_login_at" bson:"last_login_at"`
	CreatedAt       time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at" bson:"updated_at"`
}

// IsManager reports whether the user may review submitted tasks.
func (u *User) IsManager() bool {
	return u.Role == UserRoleManager || u.Role == UserRoleAdmin
}
