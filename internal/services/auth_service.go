package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"offerhive/internal/config"
	"offerhive/internal/models"
	"offerhive/internal/repositories/interfaces"
	"offerhive/internal/repositories/mongodb"
	"offerhive/internal/utils"
	"offerhive/pkg/cache"
	"offerhive/pkg/logger"
	"offerhive/pkg/mailer"
	"offerhive/pkg/sms"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthService implements passwordless OTP login. Verification registers the
// user on first contact: referral code, ledger account and upline edges all
// come into existence here.
type AuthService interface {
	SendOTP(ctx context.Context, tenant *models.Tenant, request *SendOTPRequest) error
	VerifyOTP(ctx context.Context, tenant *models.Tenant, request *VerifyOTPRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
}

type SendOTPRequest struct {
	Identifier string `json:"identifier" validate:"required"`
}

type VerifyOTPRequest struct {
	Identifier   string `json:"identifier" validate:"required"`
	Code         string `json:"code" validate:"required"`
	ReferralCode string `json:"referral_code"`
	UserAgent    string `json:"-"`
	IPAddress    string `json:"-"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
}

type authService struct {
	userRepo    interfaces.UserRepository
	otpRepo     interfaces.OTPRepository
	sessionRepo interfaces.SessionRepository
	referrals   ReferralService
	ledger      *ledgerService
	cache       cache.Cache
	smsProvider sms.Provider
	mail        mailer.Mailer
	security    *config.SecurityConfig
	logger      *logger.Logger
}

func NewAuthService(
	userRepo interfaces.UserRepository,
	otpRepo interfaces.OTPRepository,
	sessionRepo interfaces.SessionRepository,
	referrals ReferralService,
	ledger LedgerService,
	c cache.Cache,
	smsProvider sms.Provider,
	mail mailer.Mailer,
	security *config.SecurityConfig,
	log *logger.Logger,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		otpRepo:     otpRepo,
		sessionRepo: sessionRepo,
		referrals:   referrals,
		ledger:      ledger.(*ledgerService),
		cache:       c,
		smsProvider: smsProvider,
		mail:        mail,
		security:    security,
		logger:      log,
	}
}

func (s *authService) SendOTP(ctx context.Context, tenant *models.Tenant, request *SendOTPRequest) error {
	identifier := normalizeIdentifier(request.Identifier)
	if identifier == "" {
		return ErrEmailOrPhone
	}

	rateKey := fmt.Sprintf("otp:rate:%s:%s", tenant.ID.Hex(), identifier)
	count, err := s.cache.Increment(ctx, rateKey, s.security.OTPRateWindow)
	if err != nil {
		s.logger.WithError(err).Warn("otp rate limiter unavailable")
	} else if count > int64(s.security.OTPRateLimit) {
		return ErrOTPRateLimited
	}

	if err := s.otpRepo.InvalidateForIdentifier(ctx, tenant.ID, identifier); err != nil {
		return err
	}

	code := utils.GenerateOTPCode(s.security.OTPLength)
	otp := &models.OTPCode{
		TenantID:   tenant.ID,
		Identifier: identifier,
		Code:       code,
		ExpiresAt:  time.Now().Add(s.security.OTPExpiry),
	}
	if err := s.otpRepo.Create(ctx, otp); err != nil {
		return err
	}

	return s.deliverOTP(ctx, tenant, identifier, code)
}

func (s *authService) deliverOTP(ctx context.Context, tenant *models.Tenant, identifier, code string) error {
	message := fmt.Sprintf("%s: your login code is %s. It expires in %d minutes.",
		tenant.Name, code, int(s.security.OTPExpiry.Minutes()))

	if isEmail(identifier) {
		if s.mail == nil {
			return fmt.Errorf("email delivery is not configured")
		}
		if err := s.mail.Send(identifier, fmt.Sprintf("%s login code", tenant.Name), message); err != nil {
			return fmt.Errorf("failed to send otp email: %w", err)
		}
		return nil
	}

	if s.smsProvider == nil {
		return fmt.Errorf("sms delivery is not configured")
	}
	_, err := s.smsProvider.SendSMS(ctx, &sms.Request{
		To:      identifier,
		Message: message,
		Type:    "otp",
	})
	if err != nil {
		return fmt.Errorf("failed to send otp sms: %w", err)
	}
	return nil
}

func (s *authService) VerifyOTP(ctx context.Context, tenant *models.Tenant, request *VerifyOTPRequest) (*AuthResponse, error) {
	identifier := normalizeIdentifier(request.Identifier)
	if identifier == "" {
		return nil, ErrEmailOrPhone
	}

	otp, err := s.otpRepo.GetActive(ctx, tenant.ID, identifier)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrOTPInvalid
		}
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(request.Code)) != 1 {
		return nil, ErrOTPInvalid
	}

	used, err := s.otpRepo.MarkUsed(ctx, otp.ID)
	if err != nil {
		return nil, err
	}
	if !used {
		return nil, ErrOTPInvalid
	}

	user, err := s.lookupUser(ctx, tenant.ID, identifier)
	if err != nil {
		if !errors.Is(err, mongodb.ErrNotFound) {
			return nil, err
		}
		user, err = s.registerUser(ctx, tenant, identifier, request.ReferralCode)
		if err != nil {
			return nil, err
		}
	}
	if user.Status == models.UserStatusBlocked {
		return nil, ErrUserBlocked
	}

	return s.issueSession(ctx, user, request.UserAgent, request.IPAddress)
}

// registerUser creates the user, their ledger account and, best effort,
// their upline. A bad referral code is logged and swallowed: it must never
// block registration.
func (s *authService) registerUser(ctx context.Context, tenant *models.Tenant, identifier, referralCode string) (*models.User, error) {
	user := &models.User{
		TenantID: tenant.ID,
		Role:     models.UserRoleUser,
		Status:   models.UserStatusActive,
		Profile:  map[string]interface{}{},
	}
	if isEmail(identifier) {
		user.Email = identifier
		user.IsEmailVerified = true
	} else {
		user.Phone = identifier
		user.IsPhoneVerified = true
	}

	// Retry on the rare referral-code collision.
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		user.ReferralCode = utils.GenerateReferralCode()
		err = s.userRepo.Create(ctx, user)
		if err == nil {
			break
		}
		if !errors.Is(err, mongodb.ErrDuplicateKey) {
			return nil, err
		}
	}
	if err != nil {
		if errors.Is(err, mongodb.ErrDuplicateKey) {
			return nil, ErrIdentifierExists
		}
		return nil, err
	}

	currency := tenant.Currency
	if currency == "" {
		currency = utils.DefaultCurrency
	}
	if _, err := s.ledger.ensureAccount(ctx, user.ID, currency); err != nil {
		return nil, err
	}

	if referralCode != "" {
		if _, err := s.referrals.CreateReferralRelationships(ctx, tenant.ID, user.ID, referralCode); err != nil {
			s.logger.WithUserID(user.ID).WithError(err).Warn("referral link skipped at registration")
		}
	}

	s.logger.WithTenantID(tenant.ID).WithUserID(user.ID).Info("user registered")
	return user, nil
}

func (s *authService) issueSession(ctx context.Context, user *models.User, userAgent, ipAddress string) (*AuthResponse, error) {
	tokens, err := utils.GenerateTokenPair(
		user.ID, user.TenantID, string(user.Role),
		s.security.JWTAccessSecret, s.security.JWTRefreshSecret,
		s.security.JWTAccessTokenTTL, s.security.JWTRefreshTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: tokens.RefreshToken,
		UserAgent:    userAgent,
		IPAddress:    ipAddress,
		ExpiresAt:    time.Now().Add(s.security.JWTRefreshTokenTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.WithUserID(user.ID).WithError(err).Warn("failed to record last login")
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	user, err := s.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user.Status == models.UserStatusBlocked {
		return nil, ErrUserBlocked
	}

	// Rotation: the presented token dies with its session.
	if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user, session.UserAgent, session.IPAddress)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.sessionRepo.Delete(ctx, session.ID)
}

func (s *authService) GetUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) lookupUser(ctx context.Context, tenantID primitive.ObjectID, identifier string) (*models.User, error) {
	if isEmail(identifier) {
		return s.userRepo.GetByEmail(ctx, tenantID, identifier)
	}
	return s.userRepo.GetByPhone(ctx, tenantID, identifier)
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func isEmail(identifier string) bool {
	return strings.Contains(identifier, "@")
}
