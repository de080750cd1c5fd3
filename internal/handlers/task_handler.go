package handlers

import (
	"fmt"
	"path/filepath"
	"time"

	"offerhive/internal/middleware"
	"offerhive/internal/models"
	"offerhive/internal/repositories/interfaces"
	"offerhive/internal/services"
	"offerhive/internal/utils"
	"offerhive/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	taskService services.TaskService
	storage     storage.Provider
}

func NewTaskHandler(taskService services.TaskService, store storage.Provider) *TaskHandler {
	return &TaskHandler{taskService: taskService, storage: store}
}

type startTaskRequest struct {
	OfferID string `json:"offer_id" validate:"required"`
}

func (h *TaskHandler) Start(c *gin.Context) {
	var request startTaskRequest
	if !bindAndValidate(c, &request) {
		return
	}
	offerID, err := primitive.ObjectIDFromHex(request.OfferID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid offer id")
		return
	}

	tenant := middleware.TenantFromContext(c)
	userID, _ := middleware.UserIDFromContext(c)

	task, err := h.taskService.StartTask(c.Request.Context(), tenant.ID, userID, offerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Task started", task)
}

func (h *TaskHandler) Get(c *gin.Context) {
	taskID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid task id")
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	task, err := h.taskService.GetTask(c.Request.Context(), taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if task.UserID != userID {
		utils.ForbiddenResponse(c)
		return
	}

	utils.SuccessResponse(c, "Task", task)
}

func (h *TaskHandler) List(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	params := utils.GetPaginationParams(c)
	filter := &interfaces.TaskFilter{Status: models.TaskStatus(c.Query("status"))}

	tasks, total, err := h.taskService.ListUserTasks(c.Request.Context(), userID, filter, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Tasks", tasks, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(tasks),
	})
}

func (h *TaskHandler) SaveStep(c *gin.Context) {
	taskID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid task id")
		return
	}

	var request services.SaveStepRequest
	if !bindAndValidate(c, &request) {
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	task, err := h.taskService.SaveStep(c.Request.Context(), userID, taskID, &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Step saved", task)
}

// UploadProof stores an attachment for an upload step and returns the file
// key the client then includes in the step's file_refs.
func (h *TaskHandler) UploadProof(c *gin.Context) {
	taskID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid task id")
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	// Ownership check before touching storage.
	task, err := h.taskService.GetTask(c.Request.Context(), taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if task.UserID != userID {
		utils.ForbiddenResponse(c)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "A file field is required")
		return
	}
	defer file.Close()

	if header.Size > utils.MaxProofFileSize {
		utils.BadRequestResponse(c, "File too large")
		return
	}

	tenant := middleware.TenantFromContext(c)
	key := fmt.Sprintf("proofs/%s/%s/%d%s",
		tenant.ID.Hex(), taskID.Hex(), time.Now().UnixNano(), filepath.Ext(header.Filename))

	result, err := h.storage.Upload(c.Request.Context(), &storage.UploadRequest{
		Key:         key,
		Reader:      file,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Metadata: map[string]string{
			"task_id": taskID.Hex(),
			"user_id": userID.Hex(),
		},
	})
	if err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.CreatedResponse(c, "Proof uploaded", gin.H{
		"key": result.Key,
		"url": result.URL,
	})
}

func (h *TaskHandler) Submit(c *gin.Context) {
	taskID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid task id")
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	task, err := h.taskService.SubmitTask(c.Request.Context(), userID, taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Task submitted", task)
}
