package mongodb

import (
	"context"
	"fmt"
	"time"

	"offerhive/internal/models"
	"offerhive/internal/repositories/interfaces"
	"offerhive/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type taskRepository struct {
	collection *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) interfaces.TaskRepository {
	return &taskRepository{
		collection: db.Collection("tasks"),
	}
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	task.ID = primitive.NewObjectID()
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (r *taskRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *taskRepository) UpdateStatusIf(ctx context.Context, id primitive.ObjectID, expected models.TaskStatus, updates map[string]interface{}) (bool, error) {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": expected},
		bson.M{"$set": updates},
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition task: %w", err)
	}

	return result.MatchedCount == 1, nil
}

func (r *taskRepository) GetActiveByUserAndOffer(ctx context.Context, userID, offerID primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.collection.FindOne(ctx, bson.M{
		"user_id":  userID,
		"offer_id": offerID,
		"status":   bson.M{"$in": models.ActiveTaskStatuses},
	}).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active task: %w", err)
	}
	return &task, nil
}

func (r *taskRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, filter *interfaces.TaskFilter, params *utils.PaginationParams) ([]*models.Task, int64, error) {
	query := bson.M{"user_id": userID}
	applyTaskFilter(query, filter)
	return r.findWithFilter(ctx, query, params)
}

func (r *taskRepository) ListByTenant(ctx context.Context, tenantID primitive.ObjectID, filter *interfaces.TaskFilter, params *utils.PaginationParams) ([]*models.Task, int64, error) {
	query := bson.M{"tenant_id": tenantID}
	applyTaskFilter(query, filter)
	return r.findWithFilter(ctx, query, params)
}

func (r *taskRepository) CountByStatus(ctx context.Context, tenantID primitive.ObjectID, status models.TaskStatus) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"tenant_id": tenantID, "status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

func applyTaskFilter(query bson.M, filter *interfaces.TaskFilter) {
	if filter == nil {
		return
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if !filter.OfferID.IsZero() {
		query["offer_id"] = filter.OfferID
	}
	if !filter.UserID.IsZero() {
		query["user_id"] = filter.UserID
	}
}

func (r *taskRepository) findWithFilter(ctx context.Context, query bson.M, params *utils.PaginationParams) ([]*models.Task, int64, error) {
	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []*models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, 0, fmt.Errorf("failed to decode tasks: %w", err)
	}

	return tasks, total, nil
}
