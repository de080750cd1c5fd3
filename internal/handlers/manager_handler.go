package handlers

import (
	"offerhive/internal/middleware"
	"offerhive/internal/services"
	"offerhive/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ManagerHandler struct {
	taskService services.TaskService
}

func NewManagerHandler(taskService services.TaskService) *ManagerHandler {
	return &ManagerHandler{taskService: taskService}
}

// Queue lists tasks awaiting review, oldest submission first unless the
// caller asks for another order.
func (h *ManagerHandler) Queue(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	params := utils.GetPaginationParams(c)
	if c.Query("sort") == "" {
		params.Sort = "submitted_at"
		params.Order = "asc"
	}

	tasks, total, err := h.taskService.GetReviewQueue(c.Request.Context(), tenant.ID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Review queue", tasks, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(tasks),
	})
}

func (h *ManagerHandler) Review(c *gin.Context) {
	taskID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid task id")
		return
	}

	var request services.ReviewRequest
	if !bindAndValidate(c, &request) {
		return
	}
	reviewerID, _ := middleware.UserIDFromContext(c)

	result, err := h.taskService.ReviewTask(c.Request.Context(), reviewerID, taskID, &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Task reviewed", result)
}
