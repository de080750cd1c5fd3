package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"offerhive/internal/models"
	"offerhive/internal/repositories/interfaces"
	"offerhive/internal/repositories/mongodb"
	"offerhive/internal/utils"
	"offerhive/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OfferService interface {
	ListOffers(ctx context.Context, tenantID primitive.ObjectID, filter *interfaces.OfferFilter, params *utils.PaginationParams) ([]*models.Offer, int64, error)
	GetOffer(ctx context.Context, tenantID, offerID primitive.ObjectID) (*models.Offer, error)
	CreateOffer(ctx context.Context, offer *models.Offer) error
	UpdateOffer(ctx context.Context, tenantID, offerID primitive.ObjectID, updates map[string]interface{}) error
	DeactivateOffer(ctx context.Context, tenantID, offerID primitive.ObjectID) error
}

type offerService struct {
	offerRepo interfaces.OfferRepository
	logger    *logger.Logger
}

func NewOfferService(offerRepo interfaces.OfferRepository, log *logger.Logger) OfferService {
	return &offerService{
		offerRepo: offerRepo,
		logger:    log,
	}
}

func (s *offerService) ListOffers(ctx context.Context, tenantID primitive.ObjectID, filter *interfaces.OfferFilter, params *utils.PaginationParams) ([]*models.Offer, int64, error) {
	return s.offerRepo.List(ctx, tenantID, filter, params)
}

func (s *offerService) GetOffer(ctx context.Context, tenantID, offerID primitive.ObjectID) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	if offer.TenantID != tenantID {
		return nil, ErrOfferNotFound
	}

	sort.SliceStable(offer.Steps, func(i, j int) bool {
		return offer.Steps[i].Order < offer.Steps[j].Order
	})

	return offer, nil
}

func (s *offerService) CreateOffer(ctx context.Context, offer *models.Offer) error {
	if fields := utils.ValidateStruct(offer); fields != nil {
		return fmt.Errorf("invalid offer: %v", fields)
	}
	if offer.RewardCurrency == "" {
		offer.RewardCurrency = utils.DefaultCurrency
	}
	if offer.DifficultyLevel == "" {
		offer.DifficultyLevel = models.OfferDifficultyMedium
	}
	offer.IsActive = true

	return s.offerRepo.Create(ctx, offer)
}

func (s *offerService) UpdateOffer(ctx context.Context, tenantID, offerID primitive.ObjectID, updates map[string]interface{}) error {
	if _, err := s.GetOffer(ctx, tenantID, offerID); err != nil {
		return err
	}
	return s.offerRepo.Update(ctx, offerID, updates)
}

func (s *offerService) DeactivateOffer(ctx context.Context, tenantID, offerID primitive.ObjectID) error {
	return s.UpdateOffer(ctx, tenantID, offerID, map[string]interface{}{"is_active": false})
}
