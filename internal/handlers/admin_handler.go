package handlers

import (
	"offerhive/internal/middleware"
	"offerhive/internal/models"
	"offerhive/internal/services"
	"offerhive/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AdminHandler struct {
	ledgerService services.LedgerService
	offerService  services.OfferService
}

func NewAdminHandler(ledgerService services.LedgerService, offerService services.OfferService) *AdminHandler {
	return &AdminHandler{
		ledgerService: ledgerService,
		offerService:  offerService,
	}
}

type manualAdjustmentRequest struct {
	UserID         string `json:"user_id" validate:"required"`
	Type           string `json:"type" validate:"required,oneof=credit debit"`
	Amount         string `json:"amount" validate:"required"`
	Description    string `json:"description" validate:"required"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ManualAdjustment records an admin-initiated credit or debit. It goes
// through the same ledger path as everything else: append an entry, move
// the cached balance, never edit history.
func (h *AdminHandler) ManualAdjustment(c *gin.Context) {
	var request manualAdjustmentRequest
	if !bindAndValidate(c, &request) {
		return
	}

	userID, err := primitive.ObjectIDFromHex(request.UserID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user id")
		return
	}
	amount, err := decimal.NewFromString(request.Amount)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid amount")
		return
	}

	adminID, _ := middleware.UserIDFromContext(c)
	tenant := middleware.TenantFromContext(c)

	entry, err := h.ledgerService.ManualAdjustment(c.Request.Context(), &services.ManualAdjustmentRequest{
		UserID:         userID,
		Type:           models.LedgerEntryType(request.Type),
		Amount:         amount,
		Currency:       tenant.Currency,
		Description:    request.Description,
		IdempotencyKey: request.IdempotencyKey,
		AdminID:        adminID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Adjustment recorded", entry)
}

func (h *AdminHandler) RecalculateBalance(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user id")
		return
	}

	balance, err := h.ledgerService.RecalculateBalance(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Balance recalculated", balance)
}

func (h *AdminHandler) CreateOffer(c *gin.Context) {
	var offer models.Offer
	if err := c.ShouldBindJSON(&offer); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	tenant := middleware.TenantFromContext(c)
	offer.TenantID = tenant.ID

	if err := h.offerService.CreateOffer(c.Request.Context(), &offer); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Offer created", offer)
}

func (h *AdminHandler) UpdateOffer(c *gin.Context) {
	offerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid offer id")
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	tenant := middleware.TenantFromContext(c)
	if err := h.offerService.UpdateOffer(c.Request.Context(), tenant.ID, offerID, updates); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Offer updated", nil)
}

func (h *AdminHandler) DeactivateOffer(c *gin.Context) {
	offerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid offer id")
		return
	}

	tenant := middleware.TenantFromContext(c)
	if err := h.offerService.DeactivateOffer(c.Request.Context(), tenant.ID, offerID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Offer deactivated", nil)
}
