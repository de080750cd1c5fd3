package services

import (
	"context"
	"errors"
	"fmt"

	"offerhive/internal/models"
	"offerhive/internal/repositories/interfaces"
	"offerhive/internal/repositories/mongodb"
	"offerhive/internal/utils"
	"offerhive/pkg/logger"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReferralService builds the upline graph at registration time and fans
// commissions out along it when a task reward is credited.
type ReferralService interface {
	// CreateReferralRelationships links the invitee under the owner of the
	// given code and materializes up to seven ancestor edges. Returns the
	// number of edges inserted.
	CreateReferralRelationships(ctx context.Context, tenantID, inviteeID primitive.ObjectID, code string) (int, error)

	// DistributeCommissions credits each of the earner's ancestors their
	// configured percentage of baseAmount. It joins the caller's
	// transaction; any failure aborts the whole unit.
	DistributeCommissions(ctx context.Context, tenant *models.Tenant, earnerID primitive.ObjectID, refType models.LedgerRefType, refID string, baseAmount decimal.Decimal) ([]models.Commission, error)

	ValidateReferralCode(ctx context.Context, tenantID primitive.ObjectID, code string) (*models.User, error)
	GetStats(ctx context.Context, userID primitive.ObjectID) (*models.ReferralStats, error)
	GetDownline(ctx context.Context, userID primitive.ObjectID, level int, params *utils.PaginationParams) ([]*models.Referral, int64, error)
	GetTotalEarnings(ctx context.Context, userID primitive.ObjectID) (decimal.Decimal, error)
}

type referralService struct {
	referralRepo interfaces.ReferralRepository
	userRepo     interfaces.UserRepository
	ledgerRepo   interfaces.LedgerRepository
	ledger       *ledgerService
	logger       *logger.Logger
}

func NewReferralService(referralRepo interfaces.ReferralRepository, userRepo interfaces.UserRepository, ledgerRepo interfaces.LedgerRepository, ledger LedgerService, log *logger.Logger) ReferralService {
	return &referralService{
		referralRepo: referralRepo,
		userRepo:     userRepo,
		ledgerRepo:   ledgerRepo,
		ledger:       ledger.(*ledgerService),
		logger:       log,
	}
}

func (s *referralService) ValidateReferralCode(ctx context.Context, tenantID primitive.ObjectID, code string) (*models.User, error) {
	if code == "" {
		return nil, ErrInvalidReferralCode
	}

	inviter, err := s.userRepo.GetByReferralCode(ctx, tenantID, code)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrInvalidReferralCode
		}
		return nil, err
	}

	return inviter, nil
}

func (s *referralService) CreateReferralRelationships(ctx context.Context, tenantID, inviteeID primitive.ObjectID, code string) (int, error) {
	inviter, err := s.ValidateReferralCode(ctx, tenantID, code)
	if err != nil {
		return 0, err
	}
	if inviter.ID == inviteeID {
		return 0, ErrSelfReferral
	}

	if _, err := s.referralRepo.GetDirectUplineEdge(ctx, inviteeID); err == nil {
		return 0, ErrAlreadyReferred
	} else if !errors.Is(err, mongodb.ErrNotFound) {
		return 0, err
	}

	// The invitee's path extends the inviter's. An inviter with no upline
	// roots a new path at their own id.
	parentPath := inviter.ID.Hex()
	inviterUpline, err := s.referralRepo.GetUpline(ctx, inviter.ID)
	if err != nil {
		return 0, err
	}
	if len(inviterUpline) > 0 {
		parentPath = inviterUpline[0].Path
	}
	path := parentPath + "." + inviteeID.Hex()

	edges := []*models.Referral{{
		TenantID:  tenantID,
		InviterID: inviter.ID,
		InviteeID: inviteeID,
		Level:     1,
		Path:      path,
	}}

	// Each of the inviter's ancestors sits one level further from the
	// invitee, capped at seven.
	for _, edge := range inviterUpline {
		level := edge.Level + 1
		if level > models.MaxReferralLevels {
			break
		}
		edges = append(edges, &models.Referral{
			TenantID:  tenantID,
			InviterID: edge.InviterID,
			InviteeID: inviteeID,
			Level:     level,
			Path:      path,
		})
	}

	inserted, err := s.referralRepo.CreateMany(ctx, edges)
	if err != nil {
		return 0, err
	}

	if err := s.userRepo.Update(ctx, inviteeID, map[string]interface{}{"referred_by": inviter.ID}); err != nil {
		return inserted, err
	}

	s.logger.LogReferralEvent(inviteeID, "upline_created", map[string]interface{}{
		"inviter_id": inviter.ID.Hex(),
		"edges":      inserted,
	})

	return inserted, nil
}

func (s *referralService) DistributeCommissions(ctx context.Context, tenant *models.Tenant, earnerID primitive.ObjectID, refType models.LedgerRefType, refID string, baseAmount decimal.Decimal) ([]models.Commission, error) {
	if !baseAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	config := tenant.ReferralConfig
	if config == nil {
		defaults := DefaultReferralConfig()
		config = &defaults
	}

	upline, err := s.referralRepo.GetUpline(ctx, earnerID)
	if err != nil {
		return nil, err
	}

	var commissions []models.Commission
	for _, edge := range upline {
		pct := config.Percentage(edge.Level)
		if !pct.IsPositive() {
			continue
		}
		amount := utils.PercentageOf(baseAmount, pct)
		if !amount.IsPositive() {
			continue
		}

		_, err := s.ledger.creditReferralCommissionTx(ctx, edge.InviterID, earnerID, refType, refID, edge.Level, pct, amount, tenant.Currency)
		if err != nil {
			if errors.Is(err, ErrDuplicateEntry) {
				continue
			}
			return nil, fmt.Errorf("failed to credit level %d commission: %w", edge.Level, err)
		}

		commissions = append(commissions, models.Commission{
			UserID:     edge.InviterID,
			Amount:     amount,
			Level:      edge.Level,
			Percentage: pct,
		})
	}

	return commissions, nil
}

func (s *referralService) GetStats(ctx context.Context, userID primitive.ObjectID) (*models.ReferralStats, error) {
	return s.referralRepo.GetStats(ctx, userID)
}

func (s *referralService) GetDownline(ctx context.Context, userID primitive.ObjectID, level int, params *utils.PaginationParams) ([]*models.Referral, int64, error) {
	return s.referralRepo.ListDownline(ctx, userID, level, params)
}

func (s *referralService) GetTotalEarnings(ctx context.Context, userID primitive.ObjectID) (decimal.Decimal, error) {
	params := &utils.PaginationParams{Page: 1, PageSize: utils.MaxPageSize, Sort: "created_at", Order: "desc"}
	filter := &interfaces.LedgerEntryFilter{Category: models.LedgerCategoryReferralCommission}

	total := decimal.Zero
	for {
		entries, count, err := s.ledgerRepo.ListEntriesByUser(ctx, userID, filter, params)
		if err != nil {
			return decimal.Zero, err
		}
		for _, entry := range entries {
			amount, err := utils.FromDecimal128(entry.Amount)
			if err != nil {
				return decimal.Zero, err
			}
			total = total.Add(amount)
		}
		if int64(params.Page*params.PageSize) >= count || len(entries) == 0 {
			break
		}
		params.Page++
	}

	return total, nil
}
