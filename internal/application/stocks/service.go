package stocks

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"stock-admin/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrStockNotFound         = errors.New("Stock not found")
	ErrOrganizationNotFound  = errors.New("Organization not found")
	ErrInvalidOrganizationID = errors.New("organization_id must be a valid id")
	ErrIncompleteInput       = errors.New("stock input is missing required prices")
)

const (
	defaultLimit = 25
	maxLimit     = 100
)

// Service persists stocks and their event history.
type Service struct {
	DB *gorm.DB
}

// ListFilter narrows List. Zero values mean "any".
type ListFilter struct {
	Name           string
	Valuation      string
	Timeframe      string
	OrganizationID *uuid.UUID
	Page           int
	Limit          int
}

// Create inserts a stock and its "created" event. The server assigns id and timestamps.
func (s *Service) Create(ctx context.Context, in domain.StockInput, actorID *uuid.UUID) (*domain.Stock, error) {
	st := &domain.Stock{}
	if err := s.apply(ctx, st, in); err != nil {
		return nil, err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(st).Error; err != nil {
			return err
		}
		return recordEvent(tx, st, domain.StockEventCreated, actorID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, st.ID)
}

// GetByID returns the stock with its organization snapshot and event count.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Stock, error) {
	var st domain.Stock
	if err := s.DB.WithContext(ctx).Preload("Organization").Where("id = ?", id).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStockNotFound
		}
		return nil, err
	}
	var events int64
	if err := s.DB.WithContext(ctx).Model(&domain.StockEvent{}).Where("stock_id = ?", id).Count(&events).Error; err != nil {
		return nil, err
	}
	st.Count = map[string]int64{"stock_events": events}
	return &st, nil
}

// UpdateByID replaces the editable fields of a stock and records an "updated" event.
func (s *Service) UpdateByID(ctx context.Context, id uuid.UUID, in domain.StockInput, actorID *uuid.UUID) (*domain.Stock, error) {
	var st domain.Stock
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStockNotFound
		}
		return nil, err
	}
	if err := s.apply(ctx, &st, in); err != nil {
		return nil, err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Explicit columns so zero prices and a cleared organization are written too.
		if err := tx.Model(&st).Select("name", "predicted_price", "buying_price", "selling_price",
			"valuation", "timeframe", "organization_id", "updated_at").Updates(&st).Error; err != nil {
			return err
		}
		return recordEvent(tx, &st, domain.StockEventUpdated, actorID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// List returns a page of stocks (newest first) and the total matching count.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Stock, int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Stock{})
	if f.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Name)+"%")
	}
	if f.Valuation != "" {
		q = q.Where("valuation = ?", f.Valuation)
	}
	if f.Timeframe != "" {
		q = q.Where("timeframe = ?", f.Timeframe)
	}
	if f.OrganizationID != nil {
		q = q.Where("organization_id = ?", *f.OrganizationID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	var out []domain.Stock
	err := q.Preload("Organization").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// apply copies validated input onto st, resolving the organization reference.
func (s *Service) apply(ctx context.Context, st *domain.Stock, in domain.StockInput) error {
	if in.PredictedPrice == nil || in.BuyingPrice == nil || in.SellingPrice == nil {
		return ErrIncompleteInput
	}
	st.Name = strings.TrimSpace(in.Name)
	st.PredictedPrice = *in.PredictedPrice
	st.BuyingPrice = *in.BuyingPrice
	st.SellingPrice = *in.SellingPrice
	st.Valuation = strings.TrimSpace(in.Valuation)
	st.Timeframe = strings.TrimSpace(in.Timeframe)
	st.OrganizationID = nil
	st.Organization = nil
	if in.OrganizationID == nil || *in.OrganizationID == "" {
		return nil
	}
	orgID, err := uuid.Parse(*in.OrganizationID)
	if err != nil {
		return ErrInvalidOrganizationID
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Organization{}).Where("id = ?", orgID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrOrganizationNotFound
	}
	st.OrganizationID = &orgID
	return nil
}

func recordEvent(tx *gorm.DB, st *domain.Stock, eventType string, actorID *uuid.UUID) error {
	snapshot := *st
	snapshot.Organization = nil
	snapshot.Count = nil
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	ev := &domain.StockEvent{
		StockID:   st.ID,
		EventType: eventType,
		EventData: datatypes.JSON(data),
		ActorID:   actorID,
	}
	if err := tx.Create(ev).Error; err != nil {
		log.Warn().Err(err).Str("stock_id", st.ID.String()).Str("event_type", eventType).Msg("stock event insert failed")
		return err
	}
	return nil
}
