package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"offerhive/internal/models"
	"offerhive/internal/repositories/interfaces"
	"offerhive/internal/repositories/mongodb"
	"offerhive/internal/utils"
	"offerhive/pkg/cache"
	"offerhive/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TenantService resolves tenants from request hostnames and answers config
// questions with defaults filled in for anything the tenant record omits.
type TenantService interface {
	GetTenantByHost(ctx context.Context, host string) (*models.Tenant, error)
	GetTenantByID(ctx context.Context, id primitive.ObjectID) (*models.Tenant, error)
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	UpdateTenant(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	ListTenants(ctx context.Context, params *utils.PaginationParams) ([]*models.Tenant, int64, error)

	GetReferralConfig(tenant *models.Tenant) models.ReferralConfig
	GetPayoutSettings(tenant *models.Tenant) models.PayoutSettings

	ClearTenantCache(ctx context.Context, host string) error
}

// DefaultReferralConfig is the commission table applied when a tenant has
// not configured its own.
func DefaultReferralConfig() models.ReferralConfig {
	return models.ReferralConfig{
		L1: 10, L2: 5, L3: 2, L4: 1, L5: 1, L6: 0.5, L7: 0.5,
	}
}

func DefaultPayoutSettings() models.PayoutSettings {
	return models.PayoutSettings{
		MinPayout:           100,
		MaxPayout:           50000,
		PayoutCooldownDays:  7,
		RequireKYCForPayout: true,
	}
}

type tenantService struct {
	tenantRepo interfaces.TenantRepository
	cache      cache.Cache
	logger     *logger.Logger
}

func NewTenantService(tenantRepo interfaces.TenantRepository, c cache.Cache, log *logger.Logger) TenantService {
	return &tenantService{
		tenantRepo: tenantRepo,
		cache:      c,
		logger:     log,
	}
}

func (s *tenantService) GetTenantByHost(ctx context.Context, host string) (*models.Tenant, error) {
	hostname := NormalizeHostname(host)
	if hostname == "" {
		return nil, ErrTenantNotFound
	}

	cacheKey := tenantCacheKey(hostname)
	var cached models.Tenant
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	tenant, err := s.tenantRepo.GetByHostname(ctx, hostname)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	if !tenant.IsActive {
		return nil, ErrTenantInactive
	}

	if err := s.cache.Set(ctx, cacheKey, tenant, utils.TenantCacheTTL); err != nil {
		s.logger.WithError(err).Warn("failed to cache tenant")
	}

	return tenant, nil
}

func (s *tenantService) GetTenantByID(ctx context.Context, id primitive.ObjectID) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

func (s *tenantService) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.Currency == "" {
		tenant.Currency = utils.DefaultCurrency
	}
	tenant.IsActive = true

	for i, h := range tenant.Hostnames {
		tenant.Hostnames[i] = NormalizeHostname(h)
	}

	return s.tenantRepo.Create(ctx, tenant)
}

func (s *tenantService) UpdateTenant(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	if err := s.tenantRepo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return ErrTenantNotFound
		}
		return err
	}
	return nil
}

func (s *tenantService) ListTenants(ctx context.Context, params *utils.PaginationParams) ([]*models.Tenant, int64, error) {
	return s.tenantRepo.List(ctx, params)
}

// GetReferralConfig returns the tenant's commission table with defaults for
// every missing value. A tenant that sets any level explicitly owns the
// whole table; zero there means zero.
func (s *tenantService) GetReferralConfig(tenant *models.Tenant) models.ReferralConfig {
	if tenant == nil || tenant.ReferralConfig == nil {
		return DefaultReferralConfig()
	}
	return *tenant.ReferralConfig
}

func (s *tenantService) GetPayoutSettings(tenant *models.Tenant) models.PayoutSettings {
	if tenant == nil || tenant.PayoutSettings == nil {
		return DefaultPayoutSettings()
	}
	return *tenant.PayoutSettings
}

func (s *tenantService) ClearTenantCache(ctx context.Context, host string) error {
	return s.cache.Delete(ctx, tenantCacheKey(NormalizeHostname(host)))
}

// NormalizeHostname lowercases the host, strips any port and a leading
// "www." so all spellings of a storefront resolve to the same tenant.
func NormalizeHostname(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimPrefix(host, "www.")
}

func tenantCacheKey(hostname string) string {
	return fmt.Sprintf("tenant:host:%s", hostname)
}
