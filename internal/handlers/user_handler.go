package handlers

import (
	"strconv"

	"offerhive/internal/middleware"
	"offerhive/internal/models"
	"offerhive/internal/repositories/interfaces"
	"offerhive/internal/services"
	"offerhive/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	authService     services.AuthService
	ledgerService   services.LedgerService
	referralService services.ReferralService
}

func NewUserHandler(authService services.AuthService, ledgerService services.LedgerService, referralService services.ReferralService) *UserHandler {
	return &UserHandler{
		authService:     authService,
		ledgerService:   ledgerService,
		referralService: referralService,
	}
}

func (h *UserHandler) Profile(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile", user)
}

// Balance returns the cached balance plus a page of recent ledger history.
func (h *UserHandler) Balance(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	if c.Query("page_size") == "" {
		params.PageSize = utils.DefaultHistoryLimit
	}
	entries, total, err := h.ledgerService.GetEntries(c.Request.Context(), userID, nil, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Balance", gin.H{
		"balance": balance,
		"history": entries,
	}, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(entries),
	})
}

func (h *UserHandler) History(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	params := utils.GetPaginationParams(c)
	filter := &interfaces.LedgerEntryFilter{
		Category: models.LedgerEntryCategory(c.Query("category")),
		Type:     models.LedgerEntryType(c.Query("type")),
	}

	entries, total, err := h.ledgerService.GetEntries(c.Request.Context(), userID, filter, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Ledger history", entries, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(entries),
	})
}

// Referrals reports the caller's share code, downline stats and commission
// earnings in one payload.
func (h *UserHandler) Referrals(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	stats, err := h.referralService.GetStats(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	earnings, err := h.referralService.GetTotalEarnings(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Referrals", gin.H{
		"referral_code":  user.ReferralCode,
		"stats":          stats,
		"total_earnings": earnings,
	})
}

func (h *UserHandler) Downline(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	params := utils.GetPaginationParams(c)
	level, _ := strconv.Atoi(c.Query("level"))

	referrals, total, err := h.referralService.GetDownline(c.Request.Context(), userID, level, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Downline", referrals, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(referrals),
	})
}
