package interfaces

import (
	"context"

	"offerhive/internal/models"
	"offerhive/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskFilter struct {
	Status  models.TaskStatus
	OfferID primitive.ObjectID
	UserID  primitive.ObjectID
}

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// UpdateStatusIf applies updates only when the task is still in the
	// expected status. Returns false without error when the guard misses,
	// which is how concurrent reviews of the same task lose cleanly.
	UpdateStatusIf(ctx context.Context, id primitive.ObjectID, expected models.TaskStatus, updates map[string]interface{}) (bool, error)

	// GetActiveByUserAndOffer returns the user's non-terminal task for the
	// offer, if one exists.
	GetActiveByUserAndOffer(ctx context.Context, userID, offerID primitive.ObjectID) (*models.Task, error)

	ListByUser(ctx context.Context, userID primitive.ObjectID, filter *TaskFilter, params *utils.PaginationParams) ([]*models.Task, int64, error)
	ListByTenant(ctx context.Context, tenantID primitive.ObjectID, filter *TaskFilter, params *utils.PaginationParams) ([]*models.Task, int64, error)

	CountByStatus(ctx context.Context, tenantID primitive.ObjectID, status models.TaskStatus) (int64, error)
}
