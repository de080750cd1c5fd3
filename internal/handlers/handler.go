package handlers

import (
	"errors"
	"net/http"

	"offerhive/internal/services"
	"offerhive/internal/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service sentinels onto the response envelope.
// Anything unmapped is a 500 and the details stay in the server log.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTenantNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrOfferNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrEntryNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())

	case errors.Is(err, services.ErrInvalidReferralCode),
		errors.Is(err, services.ErrSelfReferral),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrCurrencyMismatch),
		errors.Is(err, services.ErrRejectionReason),
		errors.Is(err, services.ErrStepNotFound),
		errors.Is(err, services.ErrStepsIncomplete),
		errors.Is(err, services.ErrEmailOrPhone):
		utils.BadRequestResponse(c, err.Error())

	case errors.Is(err, services.ErrAlreadyReferred),
		errors.Is(err, services.ErrDuplicateEntry),
		errors.Is(err, services.ErrTaskAlreadyActive),
		errors.Is(err, services.ErrTaskAlreadyDecided),
		errors.Is(err, services.ErrIdentifierExists):
		utils.ConflictResponse(c, err.Error())

	case errors.Is(err, services.ErrTaskNotSubmitted),
		errors.Is(err, services.ErrTaskNotInProgress),
		errors.Is(err, services.ErrOfferInactive):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "INVALID_STATE", err.Error())

	case errors.Is(err, services.ErrInsufficientBalance):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", err.Error())

	case errors.Is(err, services.ErrOTPInvalid),
		errors.Is(err, services.ErrSessionNotFound):
		utils.UnauthorizedResponse(c)

	case errors.Is(err, services.ErrOTPRateLimited):
		utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", err.Error())

	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrUserBlocked),
		errors.Is(err, services.ErrTenantInactive):
		utils.ForbiddenResponse(c)

	default:
		utils.InternalServerErrorResponse(c)
	}
}

func bindAndValidate(c *gin.Context, request interface{}) bool {
	if err := c.ShouldBindJSON(request); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return false
	}
	if fields := utils.ValidateStruct(request); fields != nil {
		utils.ValidationErrorResponse(c, fields)
		return false
	}
	return true
}
