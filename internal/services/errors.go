package services

import "errors"

// Sentinel errors returned by the services. Handlers map them onto HTTP
// responses; anything not listed here is treated as an internal error.
var (
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrTenantInactive  = errors.New("tenant is not active")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserBlocked     = errors.New("user is blocked")
	ErrOfferNotFound   = errors.New("offer not found")
	ErrOfferInactive   = errors.New("offer is not active")
	ErrTaskNotFound    = errors.New("task not found")
	ErrAccountNotFound = errors.New("ledger account not found")
	ErrEntryNotFound   = errors.New("ledger entry not found")

	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrSelfReferral        = errors.New("cannot refer yourself")
	ErrAlreadyReferred     = errors.New("user already has an inviter")

	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateEntry      = errors.New("ledger entry already recorded")
	ErrCurrencyMismatch    = errors.New("currency does not match account")

	ErrTaskAlreadyActive  = errors.New("an active task already exists for this offer")
	ErrTaskNotInProgress  = errors.New("task is not in progress")
	ErrTaskNotSubmitted   = errors.New("task is not awaiting review")
	ErrTaskAlreadyDecided = errors.New("task has already been reviewed")
	ErrStepNotFound       = errors.New("offer step not found")
	ErrStepsIncomplete    = errors.New("required steps are not complete")
	ErrRejectionReason    = errors.New("rejection requires a reason")

	ErrOTPInvalid       = errors.New("invalid or expired code")
	ErrOTPRateLimited   = errors.New("too many code requests")
	ErrSessionNotFound  = errors.New("session not found or expired")
	ErrForbidden        = errors.New("operation not permitted")
	ErrEmailOrPhone     = errors.New("either email or phone is required")
	ErrIdentifierExists = errors.New("an account with this identifier already exists")
)
