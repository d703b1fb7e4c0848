package forms

import (
	"context"

	"stock-admin/internal/client"
	"stock-admin/internal/domain"
	"stock-admin/internal/infrastructure/cache"
	"stock-admin/internal/pkg/entity"
	"stock-admin/internal/pkg/validation"
)

type (
	StockCreateForm = CreateForm[domain.Stock, domain.StockInput]
	StockEditForm   = EditForm[domain.Stock, domain.StockInput]
	StockView       = View[domain.Stock, domain.StockInput]
	StockResult     = Result[domain.Stock]
	StockFetches    = SharedFetches[domain.Stock]
)

// StockClient is the part of *client.Client a stock form needs.
type StockClient interface {
	CreateStock(ctx context.Context, in domain.StockInput) (*domain.Stock, error)
	GetStockByID(ctx context.Context, id string) (*domain.Stock, error)
	UpdateStockByID(ctx context.Context, id string, in domain.StockInput) (*domain.Stock, error)
}

var _ StockClient = (*client.Client)(nil)

// StockAccessor adapts the API client to Accessor.
type StockAccessor struct {
	Client StockClient
}

func (a StockAccessor) Create(ctx context.Context, d domain.StockInput) (*domain.Stock, error) {
	return a.Client.CreateStock(ctx, d)
}

func (a StockAccessor) Fetch(ctx context.Context, id string) (*domain.Stock, error) {
	return a.Client.GetStockByID(ctx, id)
}

func (a StockAccessor) Update(ctx context.Context, id string, d domain.StockInput) (*domain.Stock, error) {
	return a.Client.UpdateStockByID(ctx, id, d)
}

// StockConfig wires the stock schema, decoder and accessor.
func StockConfig(acc Accessor[domain.Stock, domain.StockInput]) Config[domain.Stock, domain.StockInput] {
	schema, _ := validation.Default.Lookup(entity.Stock)
	return Config[domain.Stock, domain.StockInput]{
		Entity:   entity.Stock,
		Schema:   schema,
		Accessor: acc,
		Decode:   validation.DecodeStock,
		Blank:    func() domain.StockInput { return domain.BlankStockInput(nil) },
		ToDraft:  (*domain.Stock).Input,
	}
}

// NewStockCreateForm seeds a blank draft with organizationID, when one is given.
func NewStockCreateForm(acc Accessor[domain.Stock, domain.StockInput], organizationID string) *StockCreateForm {
	var org *string
	if organizationID != "" {
		org = domain.StringPtr(organizationID)
	}
	return NewCreateForm(StockConfig(acc), domain.BlankStockInput(org))
}

func NewStockEditForm(acc Accessor[domain.Stock, domain.StockInput], store cache.Store, id string) *StockEditForm {
	return NewEditForm(StockConfig(acc), store, id)
}
