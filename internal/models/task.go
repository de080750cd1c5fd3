package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	TaskStatusDraft      TaskStatus = "draft"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusSubmitted  TaskStatus = "submitted"
	TaskStatusApproved   TaskStatus = "approved"
	TaskStatusRejected   TaskStatus = "rejected"
)

// ActiveTaskStatuses are the non-terminal states that block starting another
// task for the same offer.
var ActiveTaskStatuses = []TaskStatus{
	TaskStatusDraft,
	TaskStatusInProgress,
	TaskStatusSubmitted,
}

// IsTerminal reports whether the status permits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusApproved || s == TaskStatusRejected
}

// TaskStepData carries the payload a user submitted for one offer step.
type TaskStepData struct {
	StepID      primitive.ObjectID     `json:"step_id" bson:"step_id"`
	Payload     map[string]interface{} `json:"payload" bson:"payload"`
	FileRefs    []string               `json:"file_refs" bson:"file_refs"`
	CompletedAt time.Time              `json:"completed_at" bson:"completed_at"`
}

type Task struct {
	ID              primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	TenantID        primitive.ObjectID  `json:"tenant_id" bson:"tenant_id" validate:"required"`
	UserID          primitive.ObjectID  `json:"user_id" bson:"user_id" validate:"required"`
	OfferID         primitive.ObjectID  `json:"offer_id" bson:"offer_id" validate:"required"`
	Status          TaskStatus          `json:"status" bson:"status" default:"draft"`
	CurrentStep     int                 `json:"current_step" bson:"current_step"`
	StepData        []TaskStepData      `json:"step_data" bson:"step_data"`
	StartedAt       *time.Time          `json:"started_at" bson:"started_at"`
	SubmittedAt     *time.Time          `json:"submitted_at" bson:"submitted_at"`
	ReviewedAt      *time.Time          `json:"reviewed_at" bson:"reviewed_at"`
	ReviewedBy      *primitive.ObjectID `json:"reviewed_by" bson:"reviewed_by"`
	ApprovalNotes   string              `json:"approval_notes" bson:"approval_notes"`
	RejectionReason string              `json:"rejection_reason" bson:"rejection_reason"`
	CreatedAt       time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" bson:"updated_at"`
}

// StepDataFor returns the submitted data for a step, if any.
func (t *Task) StepDataFor(stepID primitive.ObjectID) *TaskStepData {
	for i := range t.StepData {
		if t.StepData[i].StepID == stepID {
			return &t.StepData[i]
		}
	}
	return nil
}
