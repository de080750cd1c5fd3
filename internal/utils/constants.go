package utils

import "time"

// Application Constants
const (
	AppName    = "OfferHive"
	AppVersion = "1.0.0"

	// Default values
	DefaultCurrency = "RUB"
	DefaultTimeZone = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Ledger
	DefaultHistoryLimit = 50

	// Authentication
	OTPLength          = 6
	OTPExpiry          = 5 * time.Minute
	OTPRateLimit       = 3
	SessionTTL         = 30 * 24 * time.Hour
	ReferralCodeLength = 10

	// File Upload
	MaxProofFileSize = 10 * 1024 * 1024 // 10MB

	// Tenant cache
	TenantCacheTTL      = time.Hour
	TenantCacheCapacity = 512
)

// Response status
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Common error messages
const (
	ErrValidationFailed = "Validation failed"
	ErrInternalServer   = "Internal server error"
	ErrUnauthorized     = "Unauthorized access"
	ErrForbidden        = "Access forbidden"
)
