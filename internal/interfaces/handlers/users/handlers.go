package users

import (
	"errors"

	usersvc "stock-admin/internal/application/users"
	"stock-admin/internal/middleware"
	"stock-admin/internal/pkg/response"
	"stock-admin/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *usersvc.Service
}

type roleRequest struct {
	Role string `json:"role"`
}

func actorRole(c *fiber.Ctx) string {
	if u := middleware.GetUser(c); u != nil {
		return u.Role
	}
	return ""
}

func roleChangeStatus(err error) int {
	switch {
	case errors.Is(err, usersvc.ErrInvalidRole):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, usersvc.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, usersvc.ErrOnlyOwnersAssignPrivileged),
		errors.Is(err, usersvc.ErrCannotChangeOwnRole):
		return fiber.StatusForbidden
	case errors.Is(err, usersvc.ErrLastOwner):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// List GET /api/v1/users
func (h *Handlers) List(c *fiber.Ctx) error {
	users, err := h.Service.List(c.UserContext())
	if err != nil {
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("user list failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Users fetched successfully", users, fiber.Map{"count": len(users)})
}

// Create POST /api/v1/users
func (h *Handlers) Create(c *fiber.Ctx) error {
	in, errs, err := validation.BindJSON(c.Body(), validation.DecodeUser, validation.UserSchema)
	if err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if len(errs) > 0 {
		return response.ValidationFailed(c, errs.Details())
	}
	if err := usersvc.CanAssign(actorRole(c), in.Role); err != nil {
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	}
	user, err := h.Service.Create(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, usersvc.ErrEmailTaken) {
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		}
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("user create failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.SuccessCreated(c, "User created successfully", user, nil)
}

// UpdateRole PATCH /api/v1/users/:id/role
func (h *Handlers) UpdateRole(c *fiber.Ctx) error {
	var req roleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	rc := usersvc.RoleChange{ActorRole: actorRole(c), TargetID: c.Params("id"), Role: req.Role}
	if u := middleware.GetUser(c); u != nil {
		rc.ActorID = u.UserID
	}
	user, err := h.Service.UpdateRole(c.UserContext(), rc)
	if err != nil {
		status := roleChangeStatus(err)
		if status == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("role update failed")
			return response.Error(c, "Internal Server Error", status, nil)
		}
		if status == fiber.StatusUnprocessableEntity {
			return response.ValidationFailed(c, map[string]interface{}{"role": err.Error()})
		}
		return response.Error(c, err.Error(), status, nil)
	}
	return response.Success(c, "Role updated successfully", user, nil)
}
