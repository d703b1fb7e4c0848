package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stock is a tracked security with the organization's price expectations.
type Stock struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name           string           `gorm:"column:name;not null" json:"name"`
	PredictedPrice int              `gorm:"column:predicted_price;not null" json:"predicted_price"`
	BuyingPrice    int              `gorm:"column:buying_price;not null" json:"buying_price"`
	SellingPrice   int              `gorm:"column:selling_price;not null" json:"selling_price"`
	Valuation      string           `gorm:"column:valuation;not null" json:"valuation"`
	Timeframe      string           `gorm:"column:timeframe;not null" json:"timeframe"`
	OrganizationID *uuid.UUID       `gorm:"column:organization_id;type:uuid;index" json:"organization_id"`
	CreatedAt      time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at" json:"updated_at"`
	Organization   *Organization    `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Count          map[string]int64 `gorm:"-" json:"_count,omitempty"`
}

func (Stock) TableName() string {
	return "stocks"
}

// BeforeCreate assigns the id for DBs without a uuid default.
func (s *Stock) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// StockInput is the editable part of a stock. Prices are pointers so that a
// missing value can be told apart from zero.
type StockInput struct {
	Name           string  `json:"name"`
	PredictedPrice *int    `json:"predicted_price"`
	BuyingPrice    *int    `json:"buying_price"`
	SellingPrice   *int    `json:"selling_price"`
	Valuation      string  `json:"valuation"`
	Timeframe      string  `json:"timeframe"`
	OrganizationID *string `json:"organization_id"`
}

// BlankStockInput is the create-form default: numbers zero, strings empty.
func BlankStockInput(organizationID *string) StockInput {
	return StockInput{
		PredictedPrice: IntPtr(0),
		BuyingPrice:    IntPtr(0),
		SellingPrice:   IntPtr(0),
		OrganizationID: organizationID,
	}
}

// Input returns the editable fields of s.
func (s *Stock) Input() StockInput {
	in := StockInput{
		Name:           s.Name,
		PredictedPrice: IntPtr(s.PredictedPrice),
		BuyingPrice:    IntPtr(s.BuyingPrice),
		SellingPrice:   IntPtr(s.SellingPrice),
		Valuation:      s.Valuation,
		Timeframe:      s.Timeframe,
	}
	if s.OrganizationID != nil {
		id := s.OrganizationID.String()
		in.OrganizationID = &id
	}
	return in
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}
