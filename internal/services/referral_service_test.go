package services

import (
	"context"
	"testing"

	"offerhive/internal/models"
	"offerhive/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type referralFixture struct {
	tenant    *models.Tenant
	users     *fakeUserRepo
	referrals *fakeReferralRepo
	ledger    *fakeLedgerRepo
	svc       ReferralService
	ledgerSvc LedgerService
}

func newReferralFixture(t *testing.T) *referralFixture {
	t.Helper()
	users := newFakeUserRepo()
	referrals := newFakeReferralRepo()
	ledgerRepo := newFakeLedgerRepo()
	ledgerSvc := NewLedgerService(ledgerRepo, fakeTxRunner{}, utils.DefaultCurrency, testLogger())
	svc := NewReferralService(referrals, users, ledgerRepo, ledgerSvc, testLogger())

	return &referralFixture{
		tenant: &models.Tenant{
			ID:       primitive.NewObjectID(),
			Name:     "Acme",
			Currency: utils.DefaultCurrency,
			IsActive: true,
		},
		users:     users,
		referrals: referrals,
		ledger:    ledgerRepo,
		svc:       svc,
		ledgerSvc: ledgerSvc,
	}
}

func (f *referralFixture) addUser(t *testing.T, code string) *models.User {
	t.Helper()
	user := &models.User{
		TenantID:     f.tenant.ID,
		Role:         models.UserRoleUser,
		Status:       models.UserStatusActive,
		ReferralCode: code,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

// link registers invitee under inviter's code.
func (f *referralFixture) link(t *testing.T, inviterCode string, invitee *models.User) {
	t.Helper()
	_, err := f.svc.CreateReferralRelationships(context.Background(), f.tenant.ID, invitee.ID, inviterCode)
	require.NoError(t, err)
}

func TestCreateReferralRelationshipsDirectEdge(t *testing.T) {
	f := newReferralFixture(t)
	inviter := f.addUser(t, "AAAA")
	invitee := f.addUser(t, "BBBB")

	inserted, err := f.svc.CreateReferralRelationships(context.Background(), f.tenant.ID, invitee.ID, "AAAA")
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	upline, err := f.referrals.GetUpline(context.Background(), invitee.ID)
	require.NoError(t, err)
	require.Len(t, upline, 1)
	assert.Equal(t, 1, upline[0].Level)
	assert.Equal(t, inviter.ID, upline[0].InviterID)
	assert.Equal(t, inviter.ID.Hex()+"."+invitee.ID.Hex(), upline[0].Path)

	stored, err := f.users.GetByID(context.Background(), invitee.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReferredBy)
	assert.Equal(t, inviter.ID, *stored.ReferredBy)
}

func TestCreateReferralRelationshipsChain(t *testing.T) {
	f := newReferralFixture(t)

	// u0 invites u1 invites u2 ... nine users deep.
	users := []*models.User{f.addUser(t, "CODE0")}
	for i := 1; i < 10; i++ {
		u := f.addUser(t, "CODE"+string(rune('0'+i)))
		f.link(t, users[i-1].ReferralCode, u)
		users = append(users, u)
	}

	last := users[len(users)-1]
	upline, err := f.referrals.GetUpline(context.Background(), last.ID)
	require.NoError(t, err)

	// Depth is capped even though the chain is longer.
	require.Len(t, upline, models.MaxReferralLevels)
	assert.Equal(t, users[8].ID, upline[0].InviterID, "level 1 is the direct inviter")
	for i, edge := range upline {
		assert.Equal(t, i+1, edge.Level)
		assert.Equal(t, users[8-i].ID, edge.InviterID)
	}
}

func TestCreateReferralRelationshipsInvalidCode(t *testing.T) {
	f := newReferralFixture(t)
	invitee := f.addUser(t, "BBBB")

	_, err := f.svc.CreateReferralRelationships(context.Background(), f.tenant.ID, invitee.ID, "NOPE")
	assert.ErrorIs(t, err, ErrInvalidReferralCode)

	_, err = f.svc.CreateReferralRelationships(context.Background(), f.tenant.ID, invitee.ID, "")
	assert.ErrorIs(t, err, ErrInvalidReferralCode)
}

func TestCreateReferralRelationshipsSelfReferral(t *testing.T) {
	f := newReferralFixture(t)
	user := f.addUser(t, "AAAA")

	_, err := f.svc.CreateReferralRelationships(context.Background(), f.tenant.ID, user.ID, "AAAA")
	assert.ErrorIs(t, err, ErrSelfReferral)
	assert.Empty(t, f.referrals.edges)
}

func TestCreateReferralRelationshipsAlreadyReferred(t *testing.T) {
	f := newReferralFixture(t)
	inviterA := f.addUser(t, "AAAA")
	f.addUser(t, "CCCC")
	invitee := f.addUser(t, "BBBB")

	f.link(t, inviterA.ReferralCode, invitee)

	_, err := f.svc.CreateReferralRelationships(context.Background(), f.tenant.ID, invitee.ID, "CCCC")
	assert.ErrorIs(t, err, ErrAlreadyReferred)

	// Retrying under the original inviter is also rejected; the graph is
	// immutable after registration.
	_, err = f.svc.CreateReferralRelationships(context.Background(), f.tenant.ID, invitee.ID, "AAAA")
	assert.ErrorIs(t, err, ErrAlreadyReferred)
}

func TestDistributeCommissionsTwoLevels(t *testing.T) {
	f := newReferralFixture(t)
	f.tenant.ReferralConfig = &models.ReferralConfig{L1: 10, L2: 5}

	u1 := f.addUser(t, "U1")
	u2 := f.addUser(t, "U2")
	u3 := f.addUser(t, "U3")
	f.link(t, u1.ReferralCode, u2)
	f.link(t, u2.ReferralCode, u3)

	commissions, err := f.svc.DistributeCommissions(
		context.Background(), f.tenant, u3.ID,
		models.LedgerRefTypeTask, "task1", decimal.NewFromInt(500),
	)
	require.NoError(t, err)
	require.Len(t, commissions, 2)

	assert.Equal(t, u2.ID, commissions[0].UserID)
	assert.Equal(t, 1, commissions[0].Level)
	assert.True(t, decimal.NewFromInt(50).Equal(commissions[0].Amount))

	assert.Equal(t, u1.ID, commissions[1].UserID)
	assert.Equal(t, 2, commissions[1].Level)
	assert.True(t, decimal.NewFromInt(25).Equal(commissions[1].Amount))

	b2, err := f.ledgerSvc.GetBalance(context.Background(), u2.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(b2.Available))

	b1, err := f.ledgerSvc.GetBalance(context.Background(), u1.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25).Equal(b1.Available))

	// The earner gets nothing from the fan-out itself.
	b3, err := f.ledgerSvc.GetBalance(context.Background(), u3.ID)
	require.NoError(t, err)
	assert.True(t, b3.Available.IsZero())
}

func TestDistributeCommissionsIdempotent(t *testing.T) {
	f := newReferralFixture(t)
	f.tenant.ReferralConfig = &models.ReferralConfig{L1: 10}

	u1 := f.addUser(t, "U1")
	u2 := f.addUser(t, "U2")
	f.link(t, u1.ReferralCode, u2)

	base := decimal.NewFromInt(500)
	first, err := f.svc.DistributeCommissions(context.Background(), f.tenant, u2.ID, models.LedgerRefTypeTask, "task1", base)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A retry for the same source event credits nothing new.
	second, err := f.svc.DistributeCommissions(context.Background(), f.tenant, u2.ID, models.LedgerRefTypeTask, "task1", base)
	require.NoError(t, err)
	assert.Empty(t, second)

	balance, err := f.ledgerSvc.GetBalance(context.Background(), u1.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(balance.Available))
}

func TestDistributeCommissionsFractionalPercentExact(t *testing.T) {
	f := newReferralFixture(t)
	f.tenant.ReferralConfig = &models.ReferralConfig{L1: 0.5}

	u1 := f.addUser(t, "U1")
	u2 := f.addUser(t, "U2")
	f.link(t, u1.ReferralCode, u2)

	commissions, err := f.svc.DistributeCommissions(
		context.Background(), f.tenant, u2.ID,
		models.LedgerRefTypeTask, "task1", decimal.RequireFromString("333.33"),
	)
	require.NoError(t, err)
	require.Len(t, commissions, 1)
	assert.Equal(t, "1.66665", commissions[0].Amount.String())
}

func TestDistributeCommissionsSkipsZeroLevels(t *testing.T) {
	f := newReferralFixture(t)
	f.tenant.ReferralConfig = &models.ReferralConfig{L1: 0, L2: 5}

	u1 := f.addUser(t, "U1")
	u2 := f.addUser(t, "U2")
	u3 := f.addUser(t, "U3")
	f.link(t, u1.ReferralCode, u2)
	f.link(t, u2.ReferralCode, u3)

	commissions, err := f.svc.DistributeCommissions(
		context.Background(), f.tenant, u3.ID,
		models.LedgerRefTypeTask, "task1", decimal.NewFromInt(100),
	)
	require.NoError(t, err)
	require.Len(t, commissions, 1)
	assert.Equal(t, 2, commissions[0].Level)
	assert.Equal(t, u1.ID, commissions[0].UserID)
}

func TestDistributeCommissionsNoUpline(t *testing.T) {
	f := newReferralFixture(t)
	lone := f.addUser(t, "LONE")

	commissions, err := f.svc.DistributeCommissions(
		context.Background(), f.tenant, lone.ID,
		models.LedgerRefTypeTask, "task1", decimal.NewFromInt(100),
	)
	require.NoError(t, err)
	assert.Empty(t, commissions)
}
