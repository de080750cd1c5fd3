package services

import (
	"context"
	"testing"
	"time"

	"offerhive/internal/config"
	"offerhive/internal/models"
	"offerhive/internal/utils"
	"offerhive/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type authFixture struct {
	tenant   *models.Tenant
	users    *fakeUserRepo
	otps     *fakeOTPRepo
	sessions *fakeSessionRepo
	ledger   *fakeLedgerRepo
	sms      *fakeSMS
	mail     *fakeMailer
	svc      AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := newFakeUserRepo()
	otps := newFakeOTPRepo()
	sessions := newFakeSessionRepo()
	referrals := newFakeReferralRepo()
	ledgerRepo := newFakeLedgerRepo()
	smsFake := &fakeSMS{}
	mailFake := &fakeMailer{}
	log := testLogger()

	security := &config.SecurityConfig{
		JWTAccessSecret:    "access-secret",
		JWTRefreshSecret:   "refresh-secret",
		JWTAccessTokenTTL:  15 * time.Minute,
		JWTRefreshTokenTTL: 30 * 24 * time.Hour,
		OTPLength:          6,
		OTPExpiry:          5 * time.Minute,
		OTPRateLimit:       3,
		OTPRateWindow:      time.Minute,
	}

	ledgerSvc := NewLedgerService(ledgerRepo, fakeTxRunner{}, utils.DefaultCurrency, log)
	refSvc := NewReferralService(referrals, users, ledgerRepo, ledgerSvc, log)
	svc := NewAuthService(users, otps, sessions, refSvc, ledgerSvc,
		cache.NewMemoryCache(64, time.Now), smsFake, mailFake, security, log)

	return &authFixture{
		tenant: &models.Tenant{
			ID:       primitive.NewObjectID(),
			Name:     "Acme",
			Currency: utils.DefaultCurrency,
			IsActive: true,
		},
		users:    users,
		otps:     otps,
		sessions: sessions,
		ledger:   ledgerRepo,
		sms:      smsFake,
		mail:     mailFake,
		svc:      svc,
	}
}

func (f *authFixture) sentCode(t *testing.T, identifier string) string {
	t.Helper()
	otp, err := f.otps.GetActive(context.Background(), f.tenant.ID, identifier)
	require.NoError(t, err)
	return otp.Code
}

func (f *authFixture) login(t *testing.T, identifier, referralCode string) *AuthResponse {
	t.Helper()
	require.NoError(t, f.svc.SendOTP(context.Background(), f.tenant, &SendOTPRequest{Identifier: identifier}))
	resp, err := f.svc.VerifyOTP(context.Background(), f.tenant, &VerifyOTPRequest{
		Identifier:   identifier,
		Code:         f.sentCode(t, identifier),
		ReferralCode: referralCode,
	})
	require.NoError(t, err)
	return resp
}

func TestSendOTPDeliversByChannel(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.SendOTP(context.Background(), f.tenant, &SendOTPRequest{Identifier: "user@example.com"}))
	assert.Len(t, f.mail.sent, 1)
	assert.Empty(t, f.sms.sent)

	require.NoError(t, f.svc.SendOTP(context.Background(), f.tenant, &SendOTPRequest{Identifier: "+79001234567"}))
	assert.Len(t, f.sms.sent, 1)
}

func TestSendOTPRateLimit(t *testing.T) {
	f := newAuthFixture(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.SendOTP(context.Background(), f.tenant, &SendOTPRequest{Identifier: "user@example.com"}))
	}
	err := f.svc.SendOTP(context.Background(), f.tenant, &SendOTPRequest{Identifier: "user@example.com"})
	assert.ErrorIs(t, err, ErrOTPRateLimited)
}

func TestSendOTPInvalidatesPriorCodes(t *testing.T) {
	f := newAuthFixture(t)
	identifier := "user@example.com"

	require.NoError(t, f.svc.SendOTP(context.Background(), f.tenant, &SendOTPRequest{Identifier: identifier}))
	first := f.sentCode(t, identifier)

	require.NoError(t, f.svc.SendOTP(context.Background(), f.tenant, &SendOTPRequest{Identifier: identifier}))

	_, err := f.svc.VerifyOTP(context.Background(), f.tenant, &VerifyOTPRequest{
		Identifier: identifier,
		Code:       first,
	})
	// The superseded code only works if it happens to equal the new one.
	if first != f.sentCode(t, identifier) {
		assert.ErrorIs(t, err, ErrOTPInvalid)
	}
}

func TestVerifyOTPRegistersFirstTimeUser(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.login(t, "user@example.com", "")
	require.NotNil(t, resp.User)
	assert.Equal(t, "user@example.com", resp.User.Email)
	assert.True(t, resp.User.IsEmailVerified)
	assert.Len(t, resp.User.ReferralCode, utils.ReferralCodeLength)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	// Registration opened a ledger account.
	_, err := f.ledger.GetAccountByUserID(context.Background(), resp.User.ID)
	require.NoError(t, err)

	claims, err := utils.ValidateToken(resp.AccessToken, "access-secret")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID.Hex(), claims.UserID)
	assert.Equal(t, f.tenant.ID.Hex(), claims.TenantID)
}

func TestVerifyOTPSecondLoginReusesUser(t *testing.T) {
	f := newAuthFixture(t)

	first := f.login(t, "user@example.com", "")
	second := f.login(t, "user@example.com", "")
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.svc.SendOTP(context.Background(), f.tenant, &SendOTPRequest{Identifier: "user@example.com"}))

	_, err := f.svc.VerifyOTP(context.Background(), f.tenant, &VerifyOTPRequest{
		Identifier: "user@example.com",
		Code:       "000000x",
	})
	assert.ErrorIs(t, err, ErrOTPInvalid)
}

func TestVerifyOTPSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	identifier := "user@example.com"
	require.NoError(t, f.svc.SendOTP(context.Background(), f.tenant, &SendOTPRequest{Identifier: identifier}))
	code := f.sentCode(t, identifier)

	_, err := f.svc.VerifyOTP(context.Background(), f.tenant, &VerifyOTPRequest{Identifier: identifier, Code: code})
	require.NoError(t, err)

	_, err = f.svc.VerifyOTP(context.Background(), f.tenant, &VerifyOTPRequest{Identifier: identifier, Code: code})
	assert.ErrorIs(t, err, ErrOTPInvalid)
}

func TestVerifyOTPLinksReferral(t *testing.T) {
	f := newAuthFixture(t)

	inviter := f.login(t, "inviter@example.com", "")
	invitee := f.login(t, "invitee@example.com", inviter.User.ReferralCode)

	stored, err := f.users.GetByID(context.Background(), invitee.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReferredBy)
	assert.Equal(t, inviter.User.ID, *stored.ReferredBy)
}

func TestVerifyOTPBadReferralCodeStillRegisters(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.login(t, "user@example.com", "DOESNOTEXIST")
	require.NotNil(t, resp.User)

	stored, err := f.users.GetByID(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ReferredBy, "bad code is ignored, registration proceeds")
}

func TestRefreshTokenRotates(t *testing.T) {
	f := newAuthFixture(t)
	login := f.login(t, "user@example.com", "")

	refreshed, err := f.svc.RefreshToken(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, refreshed.User.ID)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The old token died with the rotation.
	_, err = f.svc.RefreshToken(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)
	login := f.login(t, "user@example.com", "")

	require.NoError(t, f.svc.Logout(context.Background(), login.RefreshToken))
	_, err := f.svc.RefreshToken(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Logging out an unknown token is a no-op.
	assert.NoError(t, f.svc.Logout(context.Background(), "gone"))
}

func TestVerifyOTPBlockedUser(t *testing.T) {
	f := newAuthFixture(t)
	login := f.login(t, "user@example.com", "")

	require.NoError(t, f.users.Update(context.Background(), login.User.ID, map[string]interface{}{
		"status": models.UserStatusBlocked,
	}))

	require.NoError(t, f.svc.SendOTP(context.Background(), f.tenant, &SendOTPRequest{Identifier: "user@example.com"}))
	_, err := f.svc.VerifyOTP(context.Background(), f.tenant, &VerifyOTPRequest{
		Identifier: "user@example.com",
		Code:       f.sentCode(t, "user@example.com"),
	})
	assert.ErrorIs(t, err, ErrUserBlocked)
}
