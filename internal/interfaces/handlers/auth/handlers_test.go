package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	authsvc "stock-admin/internal/application/auth"
	"stock-admin/internal/constants"
	"stock-admin/internal/domain"
	"stock-admin/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserFinder struct {
	user *domain.User
	err  error
}

func (f *fakeUserFinder) FindByEmailAndPassword(_ context.Context, email, password string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if email == "" || password == "" {
		return nil, authsvc.ErrEmailPasswordRequired
	}
	if f.user != nil && f.user.Email == email && password == "password123" {
		return f.user, nil
	}
	if f.user != nil && f.user.Email == email {
		return nil, authsvc.ErrIncorrectPassword
	}
	return nil, authsvc.ErrInvalidEmail
}

func setupAuthApp(t *testing.T, finder authsvc.UserFinder) (*fiber.App, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	cfg := middleware.SessionConfig{}
	h := &Handlers{UserFinder: finder, Rdb: rdb, Config: cfg}
	app := fiber.New()
	app.Use(middleware.Session(rdb, cfg))
	app.Post("/login", h.Login)
	app.Get("/me", h.Me)
	app.Delete("/logout", h.Logout)
	return app, mr
}

func postLogin(t *testing.T, app *fiber.App, body map[string]string) *httpResponse {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	var sid string
	for _, ck := range resp.Cookies() {
		if ck.Name == constants.SessionCookieName {
			sid = ck.Value
		}
	}
	return &httpResponse{status: resp.StatusCode, body: out, sessionID: sid}
}

type httpResponse struct {
	status    int
	body      map[string]interface{}
	sessionID string
}

func errorMessage(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	s, _ := e["message"].(string)
	return s
}

var testUser = &domain.User{ID: uuid.New(), Email: "ed@example.com", Fullname: "Ed Itor", Role: constants.Editor}

func TestLogin_MissingCredentials(t *testing.T) {
	app, _ := setupAuthApp(t, &fakeUserFinder{user: testUser})
	resp := postLogin(t, app, map[string]string{"email": "ed@example.com"})
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	assert.Equal(t, "Email and password are required", errorMessage(resp.body))
}

func TestLogin_InvalidEmail(t *testing.T) {
	app, _ := setupAuthApp(t, &fakeUserFinder{user: testUser})
	resp := postLogin(t, app, map[string]string{"email": "nobody@example.com", "password": "password123"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)
	assert.Equal(t, "Invalid Email", errorMessage(resp.body))
}

func TestLogin_IncorrectPassword(t *testing.T) {
	app, _ := setupAuthApp(t, &fakeUserFinder{user: testUser})
	resp := postLogin(t, app, map[string]string{"email": "ed@example.com", "password": "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)
	assert.Equal(t, "Incorrect Password", errorMessage(resp.body))
}

func TestLogin_Success(t *testing.T) {
	app, mr := setupAuthApp(t, &fakeUserFinder{user: testUser})
	resp := postLogin(t, app, map[string]string{"email": "ed@example.com", "password": "password123"})
	require.Equal(t, fiber.StatusOK, resp.status)
	require.NotEmpty(t, resp.sessionID)

	data := resp.body["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	assert.Equal(t, testUser.ID.String(), user["user_id"])
	assert.Equal(t, constants.Editor, user["role"])

	assert.True(t, mr.Exists(middleware.SessionRedisPrefix+resp.sessionID))
	members, err := mr.Members("user_sessions:" + testUser.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []string{resp.sessionID}, members)
}

func TestLogin_InternalError(t *testing.T) {
	app, _ := setupAuthApp(t, &fakeUserFinder{err: assert.AnError})
	resp := postLogin(t, app, map[string]string{"email": "ed@example.com", "password": "password123"})
	assert.Equal(t, fiber.StatusInternalServerError, resp.status)
	assert.Equal(t, "Internal Server Error", errorMessage(resp.body))
}

func TestMe_NoSession(t *testing.T) {
	app, _ := setupAuthApp(t, &fakeUserFinder{})
	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMe_AndLogout(t *testing.T) {
	app, mr := setupAuthApp(t, &fakeUserFinder{user: testUser})
	login := postLogin(t, app, map[string]string{"email": "ed@example.com", "password": "password123"})
	require.Equal(t, fiber.StatusOK, login.status)
	cookie := constants.SessionCookieName + "=" + login.sessionID

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", cookie)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("DELETE", "/logout", nil)
	req.Header.Set("Cookie", cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, mr.Exists(middleware.SessionRedisPrefix+login.sessionID))

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
