package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OfferCategory string
type OfferDifficulty string
type OfferStepType string

const (
	OfferCategoryFinance   OfferCategory = "finance"
	OfferCategorySurveys   OfferCategory = "surveys"
	OfferCategoryApps      OfferCategory = "apps"
	OfferCategoryECommerce OfferCategory = "e_commerce"
	OfferCategoryInsurance OfferCategory = "insurance"
	OfferCategoryEducation OfferCategory = "education"
	OfferCategoryOther     OfferCategory = "other"

	OfferDifficultyEasy   OfferDifficulty = "easy"
	OfferDifficultyMedium OfferDifficulty = "medium"
	OfferDifficultyHard   OfferDifficulty = "hard"

	OfferStepTypeInfo    OfferStepType = "info"
	OfferStepTypeForm    OfferStepType = "form"
	OfferStepTypeUpload  OfferStepType = "upload"
	OfferStepTypeConfirm OfferStepType = "confirm"
	OfferStepTypeQuiz    OfferStepType = "quiz"
)

// OfferStep is one ordered step of an offer's task flow. Schema describes the
// form/quiz fields the client renders; the core only checks completion.
type OfferStep struct {
	ID          primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Order       int                    `json:"order" bson:"order"`
	Type        OfferStepType          `json:"type" bson:"type" validate:"required"`
	Title       string                 `json:"title" bson:"title" validate:"required"`
	Description string                 `json:"description" bson:"description"`
	Schema      map[string]interface{} `json:"schema" bson:"schema"`
	IsRequired  bool                   `json:"is_required" bson:"is_required" default:"true"`
}

type Offer struct {
	ID                   primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	TenantID             primitive.ObjectID   `json:"tenant_id" bson:"tenant_id" validate:"required"`
	Title                string               `json:"title" bson:"title" validate:"required"`
	Description          string               `json:"description" bson:"description" validate:"required,min=10"`
	Category             OfferCategory        `json:"category" bson:"category" validate:"required"`
	ImageURL             string               `json:"image_url" bson:"image_url"`
	RewardAmount         primitive.Decimal128 `json:"reward_amount" bson:"reward_amount" validate:"required"`
	RewardCurrency       string               `json:"reward_currency" bson:"reward_currency" default:"RUB"`
	DifficultyLevel      OfferDifficulty      `json:"difficulty_level" bson:"difficulty_level" default:"medium"`
	EstimatedTime        int                  `json:"estimated_time" bson:"estimated_time" default:"10"`
	RequiresVerification bool                 `json:"requires_verification" bson:"requires_verification"`
	TermsAndConditions   string               `json:"terms_and_conditions" bson:"terms_and_conditions"`
	Disclaimers          []string             `json:"disclaimers" bson:"disclaimers"`
	IsActive             bool                 `json:"is_active" bson:"is_active" default:"true"`
	Steps                []OfferStep          `json:"steps" bson:"steps"`
	StartsAt             *time.Time           `json:"starts_at" bson:"starts_at"`
	EndsAt               *time.Time           `json:"ends_at" bson:"ends_at"`
	CreatedAt            time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at" bson:"updated_at"`
}
