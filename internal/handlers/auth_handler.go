package handlers

import (
	"offerhive/internal/middleware"
	"offerhive/internal/services"
	"offerhive/internal/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var request services.SendOTPRequest
	if !bindAndValidate(c, &request) {
		return
	}

	tenant := middleware.TenantFromContext(c)
	if err := h.authService.SendOTP(c.Request.Context(), tenant, &request); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Code sent", nil)
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var request services.VerifyOTPRequest
	if !bindAndValidate(c, &request) {
		return
	}
	request.UserAgent = c.Request.UserAgent()
	request.IPAddress = c.ClientIP()

	tenant := middleware.TenantFromContext(c)
	response, err := h.authService.VerifyOTP(c.Request.Context(), tenant, &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Logged in", response)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var request refreshRequest
	if !bindAndValidate(c, &request) {
		return
	}

	response, err := h.authService.RefreshToken(c.Request.Context(), request.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Token refreshed", response)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var request refreshRequest
	if !bindAndValidate(c, &request) {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), request.RefreshToken); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Logged out", nil)
}
