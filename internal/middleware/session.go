package middleware

import (
	"encoding/json"
	"time"

	"stock-admin/internal/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig controls the session cookie flags and lifetime.
type SessionConfig struct {
	IsProduction bool
	TTL          time.Duration
}

// SessionRedisPrefix prefixes session keys in Redis.
const SessionRedisPrefix = "session:"

// UserSessionsPrefix prefixes the Redis set of session ids held by one user.
const UserSessionsPrefix = "user_sessions:"

const (
	sessionIDLocal    = "session_id"
	sessionDirtyLocal = "session_dirty"
	sessionStaleLocal = "session_stale"
	defaultSessionTTL = 24 * time.Hour
)

// SessionUser is the identity stored in the session.
type SessionUser struct {
	UserID   string `json:"user_id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type sessionData struct {
	User *SessionUser `json:"user,omitempty"`
}

func (cfg SessionConfig) ttl() time.Duration {
	if cfg.TTL <= 0 {
		return defaultSessionTTL
	}
	return cfg.TTL
}

// Session loads the session named by the cookie from Redis into Locals and writes
// it back after the handler chain when it changed.
func Session(rdb *redis.Client, cfg SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		sessionID := c.Cookies(constants.SessionCookieName)

		var data sessionData
		if sessionID != "" {
			b, err := rdb.Get(ctx, SessionRedisPrefix+sessionID).Bytes()
			switch {
			case err == nil:
				if err := json.Unmarshal(b, &data); err != nil {
					log.Warn().Err(err).Msg("session: discarding unreadable session")
				}
			case err != redis.Nil:
				log.Warn().Err(err).Msg("session: redis get failed")
			}
		}
		c.Locals(sessionIDLocal, sessionID)
		c.Locals(userLocal, data.User)

		if err := c.Next(); err != nil {
			return err
		}

		if stale, _ := c.Locals(sessionStaleLocal).(string); stale != "" {
			rdb.Del(ctx, SessionRedisPrefix+stale)
		}
		if dirty, _ := c.Locals(sessionDirtyLocal).(bool); !dirty {
			return nil
		}
		sid := GetSessionID(c)
		if sid == "" {
			return nil
		}
		user, _ := c.Locals(userLocal).(*SessionUser)
		if user == nil {
			return rdb.Del(ctx, SessionRedisPrefix+sid).Err()
		}
		b, err := json.Marshal(sessionData{User: user})
		if err != nil {
			return err
		}
		return rdb.Set(ctx, SessionRedisPrefix+sid, b, cfg.ttl()).Err()
	}
}

// GetSessionID returns the current session ID from context.
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionIDLocal).(string)
	return sid
}

// SetSessionUser sets the user in the session and marks it for saving.
func SetSessionUser(c *fiber.Ctx, user SessionUser) {
	c.Locals(userLocal, &user)
	c.Locals(sessionDirtyLocal, true)
}

// RegenerateSessionID issues a new session ID; the previous session is deleted after the request.
func RegenerateSessionID(c *fiber.Ctx) string {
	if old := GetSessionID(c); old != "" {
		c.Locals(sessionStaleLocal, old)
	}
	newID := uuid.New().String()
	c.Locals(sessionIDLocal, newID)
	c.Locals(sessionDirtyLocal, true)
	return newID
}

// DestroySession clears the session user; the Redis key is removed after the request.
func DestroySession(c *fiber.Ctx) {
	c.Locals(userLocal, (*SessionUser)(nil))
	c.Locals(sessionDirtyLocal, true)
}

// SessionCookie returns the session cookie carrying value.
func SessionCookie(cfg SessionConfig, value string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     constants.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cfg.ttl().Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// ClearSessionCookie returns a cookie that removes the session cookie.
func ClearSessionCookie(cfg SessionConfig) *fiber.Cookie {
	cookie := SessionCookie(cfg, "")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	return cookie
}
