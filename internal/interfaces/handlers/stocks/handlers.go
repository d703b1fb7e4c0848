package stocks

import (
	"errors"

	stocksvc "stock-admin/internal/application/stocks"
	"stock-admin/internal/middleware"
	"stock-admin/internal/pkg/response"
	"stock-admin/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *stocksvc.Service
}

func actorID(c *fiber.Ctx) *uuid.UUID {
	user := middleware.GetUser(c)
	if user == nil {
		return nil
	}
	id, err := uuid.Parse(user.UserID)
	if err != nil {
		return nil
	}
	return &id
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// serviceError maps service sentinels to the error envelope.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, stocksvc.ErrStockNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, stocksvc.ErrOrganizationNotFound), errors.Is(err, stocksvc.ErrInvalidOrganizationID):
		return response.ValidationFailed(c, map[string]interface{}{"organization_id": err.Error()})
	case errors.Is(err, stocksvc.ErrIncompleteInput):
		return response.Error(c, err.Error(), fiber.StatusUnprocessableEntity, nil)
	default:
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("stock request failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
}

// Create POST /api/v1/stocks
func (h *Handlers) Create(c *fiber.Ctx) error {
	in, errs, err := validation.BindJSON(c.Body(), validation.DecodeStock, validation.StockSchema)
	if err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if len(errs) > 0 {
		return response.ValidationFailed(c, errs.Details())
	}
	stock, err := h.Service.Create(c.UserContext(), in, actorID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return response.SuccessCreated(c, "Stock created successfully", stock, nil)
}

// List GET /api/v1/stocks
func (h *Handlers) List(c *fiber.Ctx) error {
	f := stocksvc.ListFilter{
		Name:      c.Query("name"),
		Valuation: c.Query("valuation"),
		Timeframe: c.Query("timeframe"),
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 0),
	}
	if s := c.Query("organization_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return response.Error(c, "Invalid organization_id format", fiber.StatusBadRequest, nil)
		}
		f.OrganizationID = &id
	}
	stocks, total, err := h.Service.List(c.UserContext(), f)
	if err != nil {
		return serviceError(c, err)
	}
	return response.Success(c, "Stocks fetched successfully", stocks, fiber.Map{
		"total": total,
		"page":  f.Page,
		"count": len(stocks),
	})
}

// GetByID GET /api/v1/stocks/:id
func (h *Handlers) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.Error(c, "Invalid stock id format", fiber.StatusBadRequest, nil)
	}
	stock, err := h.Service.GetByID(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return response.Success(c, "Stock fetched successfully", stock, nil)
}

// UpdateByID PUT /api/v1/stocks/:id
func (h *Handlers) UpdateByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.Error(c, "Invalid stock id format", fiber.StatusBadRequest, nil)
	}
	in, errs, err := validation.BindJSON(c.Body(), validation.DecodeStock, validation.StockSchema)
	if err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if len(errs) > 0 {
		return response.ValidationFailed(c, errs.Details())
	}
	stock, err := h.Service.UpdateByID(c.UserContext(), id, in, actorID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return response.Success(c, "Stock updated successfully", stock, nil)
}
