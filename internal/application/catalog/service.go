package catalog

import (
	"context"
	"encoding/json"
	"strings"

	"coinvest-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is the asset catalog: fixed-price items, each with a menu of yield
// plans. Settlement resolves a purchase through it and snapshots the result;
// the catalog is never re-read for open positions.
type Service struct {
	DB *gorm.DB
}

// WithTx returns a copy of the service bound to the given transaction.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{DB: tx}
}

// PlanQuote is the resolved price and plan terms for a purchase.
type PlanQuote struct {
	Price    float64
	Days     int
	Rate     float64
	Snapshot datatypes.JSON
}

// CreateAssetInput for the admin surface.
type CreateAssetInput struct {
	Name     string        `json:"name"`
	Symbol   string        `json:"symbol"`
	Category string        `json:"category"`
	Price    float64       `json:"price"`
	Plans    []domain.Plan `json:"plans"`
}

// ListAssets returns the active catalog.
func (s *Service) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	var assets []domain.Asset
	err := s.DB.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&assets).Error
	return assets, err
}

// GetAsset loads one asset by id.
func (s *Service) GetAsset(ctx context.Context, assetID uuid.UUID) (*domain.Asset, error) {
	var asset domain.Asset
	if err := s.DB.WithContext(ctx).Where("asset_id = ?", assetID).First(&asset).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

// ResolvePlan resolves the asset's price and the chosen plan's term and rate,
// and builds the snapshot stored on the position.
func (s *Service) ResolvePlan(ctx context.Context, assetID uuid.UUID, planIndex int) (*PlanQuote, error) {
	asset, err := s.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if !asset.Active {
		return nil, domain.ErrInvalidPlan
	}
	var plans []domain.Plan
	if err := json.Unmarshal(asset.Plans, &plans); err != nil {
		return nil, domain.ErrInvalidPlan
	}
	if planIndex < 0 || planIndex >= len(plans) {
		return nil, domain.ErrInvalidPlan
	}
	plan := plans[planIndex]
	if plan.Days <= 0 || plan.Rate < 0 {
		return nil, domain.ErrInvalidPlan
	}

	snapshot, err := json.Marshal(map[string]interface{}{
		"name":     asset.Name,
		"symbol":   asset.Symbol,
		"category": asset.Category,
		"price":    asset.Price,
		"plan":     plan,
	})
	if err != nil {
		return nil, err
	}
	return &PlanQuote{
		Price:    asset.Price,
		Days:     plan.Days,
		Rate:     plan.Rate,
		Snapshot: datatypes.JSON(snapshot),
	}, nil
}

// CreateAsset adds a catalog item (admin). Every plan in the menu must be
// purchasable.
func (s *Service) CreateAsset(ctx context.Context, in CreateAssetInput) (*domain.Asset, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Symbol) == "" {
		return nil, domain.ErrInvalidPlan
	}
	if in.Price <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if in.Category != domain.CategoryCrypto && in.Category != domain.CategoryRealEstate {
		return nil, domain.ErrInvalidPlan
	}
	if len(in.Plans) == 0 {
		return nil, domain.ErrInvalidPlan
	}
	for _, p := range in.Plans {
		if p.Days <= 0 || p.Rate < 0 {
			return nil, domain.ErrInvalidPlan
		}
	}
	plansJSON, err := json.Marshal(in.Plans)
	if err != nil {
		return nil, err
	}
	asset := &domain.Asset{
		Name:     strings.TrimSpace(in.Name),
		Symbol:   strings.ToUpper(strings.TrimSpace(in.Symbol)),
		Category: in.Category,
		Price:    domain.Round2(in.Price),
		Plans:    datatypes.JSON(plansJSON),
		Active:   true,
	}
	if err := s.DB.WithContext(ctx).Create(asset).Error; err != nil {
		return nil, err
	}
	return asset, nil
}

// SetActive flips an asset's availability without touching open positions.
func (s *Service) SetActive(ctx context.Context, assetID uuid.UUID, active bool) error {
	res := s.DB.WithContext(ctx).Model(&domain.Asset{}).
		Where("asset_id = ?", assetID).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
