package handlers

import (
	"offerhive/internal/middleware"
	"offerhive/internal/models"
	"offerhive/internal/repositories/interfaces"
	"offerhive/internal/services"
	"offerhive/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OfferHandler struct {
	offerService services.OfferService
}

func NewOfferHandler(offerService services.OfferService) *OfferHandler {
	return &OfferHandler{offerService: offerService}
}

func (h *OfferHandler) List(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	params := utils.GetPaginationParams(c)

	filter := &interfaces.OfferFilter{
		Category:   models.OfferCategory(c.Query("category")),
		Difficulty: models.OfferDifficulty(c.Query("difficulty")),
		ActiveOnly: true,
	}

	offers, total, err := h.offerService.ListOffers(c.Request.Context(), tenant.ID, filter, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Offers", offers, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(offers),
	})
}

func (h *OfferHandler) Get(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	offerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid offer id")
		return
	}

	offer, err := h.offerService.GetOffer(c.Request.Context(), tenant.ID, offerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Offer", offer)
}
