package services

import (
	"context"
	"testing"
	"time"

	"offerhive/internal/models"
	"offerhive/pkg/cache"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTenantFixture(t *testing.T) (*fakeTenantRepo, TenantService) {
	t.Helper()
	repo := newFakeTenantRepo()
	svc := NewTenantService(repo, cache.NewMemoryCache(16, time.Now), testLogger())
	return repo, svc
}

func TestNormalizeHostname(t *testing.T) {
	cases := map[string]string{
		"Example.COM":          "example.com",
		"www.example.com":      "example.com",
		"example.com:8080":     "example.com",
		"WWW.Example.com:3000": "example.com",
		" example.com ":        "example.com",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeHostname(in), "input %q", in)
	}
}

func TestGetTenantByHost(t *testing.T) {
	repo, svc := newTenantFixture(t)
	tenant := &models.Tenant{
		Name:      "Acme",
		Slug:      "acme",
		Hostnames: []string{"acme.example.com"},
		IsActive:  true,
	}
	require.NoError(t, repo.Create(context.Background(), tenant))

	got, err := svc.GetTenantByHost(context.Background(), "www.acme.example.com:443")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, got.ID)

	_, err = svc.GetTenantByHost(context.Background(), "unknown.example.com")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestGetTenantByHostCaches(t *testing.T) {
	repo, svc := newTenantFixture(t)
	tenant := &models.Tenant{
		Name:      "Acme",
		Slug:      "acme",
		Hostnames: []string{"acme.example.com"},
		IsActive:  true,
	}
	require.NoError(t, repo.Create(context.Background(), tenant))

	for i := 0; i < 5; i++ {
		_, err := svc.GetTenantByHost(context.Background(), "acme.example.com")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, repo.HostnameLookups, "repeated resolutions must hit the cache")

	require.NoError(t, svc.ClearTenantCache(context.Background(), "acme.example.com"))
	_, err := svc.GetTenantByHost(context.Background(), "acme.example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.HostnameLookups)
}

func TestGetTenantByHostInactive(t *testing.T) {
	repo, svc := newTenantFixture(t)
	tenant := &models.Tenant{
		Name:      "Dormant",
		Slug:      "dormant",
		Hostnames: []string{"dormant.example.com"},
		IsActive:  false,
	}
	require.NoError(t, repo.Create(context.Background(), tenant))

	_, err := svc.GetTenantByHost(context.Background(), "dormant.example.com")
	assert.ErrorIs(t, err, ErrTenantInactive)
}

func TestReferralConfigDefaults(t *testing.T) {
	_, svc := newTenantFixture(t)

	config := svc.GetReferralConfig(&models.Tenant{})
	assert.True(t, decimal.NewFromInt(10).Equal(config.Percentage(1)))
	assert.True(t, decimal.NewFromInt(5).Equal(config.Percentage(2)))
	assert.True(t, decimal.NewFromInt(2).Equal(config.Percentage(3)))
	assert.True(t, decimal.NewFromInt(1).Equal(config.Percentage(4)))
	assert.True(t, decimal.NewFromInt(1).Equal(config.Percentage(5)))
	assert.True(t, decimal.NewFromFloat(0.5).Equal(config.Percentage(6)))
	assert.True(t, decimal.NewFromFloat(0.5).Equal(config.Percentage(7)))
	assert.True(t, config.Percentage(8).IsZero())
	assert.True(t, config.Percentage(0).IsZero())

	// A tenant with its own table owns every level, including zeros.
	custom := svc.GetReferralConfig(&models.Tenant{
		ReferralConfig: &models.ReferralConfig{L1: 3},
	})
	assert.True(t, decimal.NewFromInt(3).Equal(custom.Percentage(1)))
	assert.True(t, custom.Percentage(2).IsZero())
}

func TestPayoutSettingsDefaults(t *testing.T) {
	_, svc := newTenantFixture(t)

	settings := svc.GetPayoutSettings(&models.Tenant{})
	assert.EqualValues(t, 100, settings.MinPayout)
	assert.EqualValues(t, 50000, settings.MaxPayout)
	assert.Equal(t, 7, settings.PayoutCooldownDays)
	assert.True(t, settings.RequireKYCForPayout)
}
