package organizations

import (
	"errors"

	orgsvc "stock-admin/internal/application/orgs"
	"stock-admin/internal/middleware"
	"stock-admin/internal/pkg/response"
	"stock-admin/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *orgsvc.Service
}

// Search GET /api/v1/organizations?q=
func (h *Handlers) Search(c *fiber.Ctx) error {
	orgs, err := h.Service.Search(c.UserContext(), orgsvc.Query{Search: c.Query("q"), Limit: c.QueryInt("limit", 0)})
	if err != nil {
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("organization search failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Organizations fetched successfully", orgs, fiber.Map{"count": len(orgs)})
}

// Create POST /api/v1/organizations
func (h *Handlers) Create(c *fiber.Ctx) error {
	in, errs, err := validation.BindJSON(c.Body(), validation.DecodeOrganization, validation.OrganizationSchema)
	if err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if len(errs) > 0 {
		return response.ValidationFailed(c, errs.Details())
	}
	org, err := h.Service.Create(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, orgsvc.ErrNameTaken) {
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		}
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("organization create failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.SuccessCreated(c, "Organization created successfully", org, nil)
}

// GetByID GET /api/v1/organizations/:id
func (h *Handlers) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid organization id format", fiber.StatusBadRequest, nil)
	}
	org, err := h.Service.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, orgsvc.ErrOrganizationNotFound) {
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		}
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Organization fetched successfully", org, nil)
}
