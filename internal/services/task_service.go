package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"offerhive/internal/models"
	"offerhive/internal/repositories/interfaces"
	"offerhive/internal/repositories/mongodb"
	"offerhive/internal/utils"
	"offerhive/pkg/database"
	"offerhive/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "approve"
	ReviewActionReject  ReviewAction = "reject"
)

// TaskService drives a task through its lifecycle. Approval is the only
// place money enters the system: the reward credit and every referral
// commission commit in one transaction with the status change.
type TaskService interface {
	StartTask(ctx context.Context, tenantID, userID, offerID primitive.ObjectID) (*models.Task, error)
	SaveStep(ctx context.Context, userID, taskID primitive.ObjectID, request *SaveStepRequest) (*models.Task, error)
	SubmitTask(ctx context.Context, userID, taskID primitive.ObjectID) (*models.Task, error)
	GetTask(ctx context.Context, taskID primitive.ObjectID) (*models.Task, error)
	ListUserTasks(ctx context.Context, userID primitive.ObjectID, filter *interfaces.TaskFilter, params *utils.PaginationParams) ([]*models.Task, int64, error)

	GetReviewQueue(ctx context.Context, tenantID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Task, int64, error)
	ReviewTask(ctx context.Context, reviewerID, taskID primitive.ObjectID, request *ReviewRequest) (*ReviewResult, error)
}

type SaveStepRequest struct {
	StepID   primitive.ObjectID     `json:"step_id" validate:"required"`
	Payload  map[string]interface{} `json:"payload"`
	FileRefs []string               `json:"file_refs"`
}

type ReviewRequest struct {
	Action ReviewAction `json:"action" validate:"required,oneof=approve reject"`
	Notes  string       `json:"notes"`
	Reason string       `json:"reason"`
}

// ReviewResult reports what an approval moved: the reward entry and the
// commissions fanned out to the upline. Both are nil for rejections.
type ReviewResult struct {
	Task        *models.Task        `json:"task"`
	RewardEntry *models.LedgerEntry `json:"reward_entry,omitempty"`
	Commissions []models.Commission `json:"commissions,omitempty"`
}

type taskService struct {
	taskRepo  interfaces.TaskRepository
	offerRepo interfaces.OfferRepository
	ledger    *ledgerService
	referrals ReferralService
	tenants   TenantService
	tx        database.TxRunner
	logger    *logger.Logger
}

func NewTaskService(taskRepo interfaces.TaskRepository, offerRepo interfaces.OfferRepository, ledger LedgerService, referrals ReferralService, tenants TenantService, tx database.TxRunner, log *logger.Logger) TaskService {
	return &taskService{
		taskRepo:  taskRepo,
		offerRepo: offerRepo,
		ledger:    ledger.(*ledgerService),
		referrals: referrals,
		tenants:   tenants,
		tx:        tx,
		logger:    log,
	}
}

func (s *taskService) StartTask(ctx context.Context, tenantID, userID, offerID primitive.ObjectID) (*models.Task, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	if offer.TenantID != tenantID {
		return nil, ErrOfferNotFound
	}
	if !offerIsLive(offer) {
		return nil, ErrOfferInactive
	}

	if _, err := s.taskRepo.GetActiveByUserAndOffer(ctx, userID, offerID); err == nil {
		return nil, ErrTaskAlreadyActive
	} else if !errors.Is(err, mongodb.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	task := &models.Task{
		TenantID:    tenantID,
		UserID:      userID,
		OfferID:     offerID,
		Status:      models.TaskStatusInProgress,
		CurrentStep: 0,
		StepData:    []models.TaskStepData{},
		StartedAt:   &now,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *taskService) SaveStep(ctx context.Context, userID, taskID primitive.ObjectID, request *SaveStepRequest) (*models.Task, error) {
	task, err := s.getOwnedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusDraft && task.Status != models.TaskStatusInProgress {
		return nil, ErrTaskNotInProgress
	}

	offer, err := s.offerRepo.GetByID(ctx, task.OfferID)
	if err != nil {
		return nil, err
	}

	step := offerStepByID(offer, request.StepID)
	if step == nil {
		return nil, ErrStepNotFound
	}

	data := models.TaskStepData{
		StepID:      request.StepID,
		Payload:     request.Payload,
		FileRefs:    request.FileRefs,
		CompletedAt: time.Now(),
	}

	// Re-saving a step replaces the earlier submission.
	replaced := false
	for i := range task.StepData {
		if task.StepData[i].StepID == request.StepID {
			task.StepData[i] = data
			replaced = true
			break
		}
	}
	if !replaced {
		task.StepData = append(task.StepData, data)
	}

	if step.Order > task.CurrentStep {
		task.CurrentStep = step.Order
	}

	updates := map[string]interface{}{
		"step_data":    task.StepData,
		"current_step": task.CurrentStep,
	}
	if task.Status == models.TaskStatusDraft {
		task.Status = models.TaskStatusInProgress
		updates["status"] = task.Status
	}
	if err := s.taskRepo.Update(ctx, taskID, updates); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *taskService) SubmitTask(ctx context.Context, userID, taskID primitive.ObjectID) (*models.Task, error) {
	task, err := s.getOwnedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusInProgress {
		return nil, ErrTaskNotInProgress
	}

	offer, err := s.offerRepo.GetByID(ctx, task.OfferID)
	if err != nil {
		return nil, err
	}
	for i := range offer.Steps {
		step := &offer.Steps[i]
		if step.IsRequired && task.StepDataFor(step.ID) == nil {
			return nil, fmt.Errorf("step %q: %w", step.Title, ErrStepsIncomplete)
		}
	}

	now := time.Now()
	ok, err := s.taskRepo.UpdateStatusIf(ctx, taskID, models.TaskStatusInProgress, map[string]interface{}{
		"status":       models.TaskStatusSubmitted,
		"submitted_at": now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTaskNotInProgress
	}

	task.Status = models.TaskStatusSubmitted
	task.SubmittedAt = &now
	return task, nil
}

func (s *taskService) GetTask(ctx context.Context, taskID primitive.ObjectID) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func (s *taskService) ListUserTasks(ctx context.Context, userID primitive.ObjectID, filter *interfaces.TaskFilter, params *utils.PaginationParams) ([]*models.Task, int64, error) {
	return s.taskRepo.ListByUser(ctx, userID, filter, params)
}

func (s *taskService) GetReviewQueue(ctx context.Context, tenantID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Task, int64, error) {
	filter := &interfaces.TaskFilter{Status: models.TaskStatusSubmitted}
	return s.taskRepo.ListByTenant(ctx, tenantID, filter, params)
}

func (s *taskService) ReviewTask(ctx context.Context, reviewerID, taskID primitive.ObjectID, request *ReviewRequest) (*ReviewResult, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	switch request.Action {
	case ReviewActionApprove:
		return s.approve(ctx, reviewerID, task, request.Notes)
	case ReviewActionReject:
		return s.reject(ctx, reviewerID, task, request.Reason)
	default:
		return nil, fmt.Errorf("unknown review action %q", request.Action)
	}
}

// approve commits the status change, the reward credit and the commission
// fan-out as one transaction. A second reviewer racing on the same task
// misses the status guard and gets ErrTaskAlreadyDecided, so the reward is
// paid exactly once.
func (s *taskService) approve(ctx context.Context, reviewerID primitive.ObjectID, task *models.Task, notes string) (*ReviewResult, error) {
	offer, err := s.offerRepo.GetByID(ctx, task.OfferID)
	if err != nil {
		return nil, err
	}
	reward, err := utils.FromDecimal128(offer.RewardAmount)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenants.GetTenantByID(ctx, task.TenantID)
	if err != nil {
		return nil, err
	}

	result, err := s.tx.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		now := time.Now()
		ok, err := s.taskRepo.UpdateStatusIf(ctx, task.ID, models.TaskStatusSubmitted, map[string]interface{}{
			"status":         models.TaskStatusApproved,
			"reviewed_at":    now,
			"reviewed_by":    reviewerID,
			"approval_notes": notes,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, s.transitionError(ctx, task.ID)
		}

		entry, err := s.ledger.creditTaskRewardTx(ctx, task, offer, reward, reviewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to credit task reward: %w", err)
		}

		commissions, err := s.referrals.DistributeCommissions(ctx, tenant, task.UserID, models.LedgerRefTypeTask, task.ID.Hex(), reward)
		if err != nil {
			return nil, err
		}

		task.Status = models.TaskStatusApproved
		task.ReviewedAt = &now
		task.ReviewedBy = &reviewerID
		task.ApprovalNotes = notes

		return &ReviewResult{Task: task, RewardEntry: entry, Commissions: commissions}, nil
	})
	if err != nil {
		return nil, err
	}

	review := result.(*ReviewResult)
	s.logger.WithUserID(task.UserID).WithFields(map[string]interface{}{
		"task_id":     task.ID.Hex(),
		"reward":      reward.String(),
		"commissions": len(review.Commissions),
	}).Info("task approved")

	return review, nil
}

func (s *taskService) reject(ctx context.Context, reviewerID primitive.ObjectID, task *models.Task, reason string) (*ReviewResult, error) {
	if reason == "" {
		return nil, ErrRejectionReason
	}

	now := time.Now()
	ok, err := s.taskRepo.UpdateStatusIf(ctx, task.ID, models.TaskStatusSubmitted, map[string]interface{}{
		"status":           models.TaskStatusRejected,
		"reviewed_at":      now,
		"reviewed_by":      reviewerID,
		"rejection_reason": reason,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionError(ctx, task.ID)
	}

	task.Status = models.TaskStatusRejected
	task.ReviewedAt = &now
	task.ReviewedBy = &reviewerID
	task.RejectionReason = reason

	return &ReviewResult{Task: task}, nil
}

// transitionError distinguishes a task that was never submitted from one a
// concurrent reviewer already decided.
func (s *taskService) transitionError(ctx context.Context, taskID primitive.ObjectID) error {
	current, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return ErrTaskNotSubmitted
	}
	if current.Status.IsTerminal() {
		return ErrTaskAlreadyDecided
	}
	return ErrTaskNotSubmitted
}

func (s *taskService) getOwnedTask(ctx context.Context, userID, taskID primitive.ObjectID) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, ErrForbidden
	}
	return task, nil
}

func offerStepByID(offer *models.Offer, stepID primitive.ObjectID) *models.OfferStep {
	for i := range offer.Steps {
		if offer.Steps[i].ID == stepID {
			return &offer.Steps[i]
		}
	}
	return nil
}

func offerIsLive(offer *models.Offer) bool {
	if !offer.IsActive {
		return false
	}
	now := time.Now()
	if offer.StartsAt != nil && now.Before(*offer.StartsAt) {
		return false
	}
	if offer.EndsAt != nil && now.After(*offer.EndsAt) {
		return false
	}
	return true
}
