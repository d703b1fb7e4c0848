package auth

import (
	"errors"

	authsvc "stock-admin/internal/application/auth"
	"stock-admin/internal/domain"
	"stock-admin/internal/middleware"
	"stock-admin/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	UserFinder authsvc.UserFinder
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

// LoginRequest body.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Authenticate checks credentials and, on success, binds a fresh session to the user.
// The returned error is one of the authsvc sentinels or an internal failure.
func (h *Handlers) Authenticate(c *fiber.Ctx, req LoginRequest) (*middleware.SessionUser, error) {
	if h.UserFinder == nil {
		return nil, errors.New("auth: no user finder configured")
	}
	user, err := h.UserFinder.FindByEmailAndPassword(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return h.startSession(c, user)
}

func (h *Handlers) startSession(c *fiber.Ctx, user *domain.User) (*middleware.SessionUser, error) {
	sessionID := middleware.RegenerateSessionID(c)
	su := middleware.SessionUser{
		UserID:   user.ID.String(),
		Fullname: user.Fullname,
		Email:    user.Email,
		Role:     user.Role,
	}
	middleware.SetSessionUser(c, su)

	if h.Rdb != nil {
		if err := h.Rdb.SAdd(c.UserContext(), middleware.UserSessionsPrefix+su.UserID, sessionID).Err(); err != nil {
			return nil, err
		}
	}
	c.Cookie(middleware.SessionCookie(h.Config, sessionID))
	return &su, nil
}

// LoginStatus maps an Authenticate error to its HTTP status.
func LoginStatus(err error) int {
	switch {
	case errors.Is(err, authsvc.ErrEmailPasswordRequired):
		return fiber.StatusBadRequest
	case errors.Is(err, authsvc.ErrInvalidEmail), errors.Is(err, authsvc.ErrIncorrectPassword):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// Login POST /api/v1/auth/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return response.Error(c, authsvc.ErrEmailPasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}

	user, err := h.Authenticate(c, req)
	if err != nil {
		status := LoginStatus(err)
		if status == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("login failed")
			return response.Error(c, "Internal Server Error", status, nil)
		}
		return response.Error(c, err.Error(), status, nil)
	}
	return response.Success(c, "Login successful", fiber.Map{"user": user}, nil)
}

// Me GET /api/v1/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		log.Info().Str("path", c.Path()).Bool("session_present", middleware.GetSessionID(c) != "").
			Msg("auth/me: not authenticated")
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// EndSession drops the session from Redis and clears the cookie.
func (h *Handlers) EndSession(c *fiber.Ctx) {
	sessionID := middleware.GetSessionID(c)
	if user := middleware.GetUser(c); user != nil && sessionID != "" && h.Rdb != nil {
		_ = h.Rdb.SRem(c.UserContext(), middleware.UserSessionsPrefix+user.UserID, sessionID).Err()
	}
	middleware.DestroySession(c)
	c.Cookie(middleware.ClearSessionCookie(h.Config))
}

// Logout DELETE /api/v1/auth/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	h.EndSession(c)
	return response.Success(c, "Logged out successfully", nil, nil)
}
