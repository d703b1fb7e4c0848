package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	usersvc "stock-admin/internal/application/users"
	"stock-admin/internal/client"
	"stock-admin/internal/config"
	"stock-admin/internal/constants"
	"stock-admin/internal/domain"
	"stock-admin/internal/infrastructure/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stack struct {
	app *fiber.App
	srv *httptest.Server
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

// setupStack serves the app over real HTTP so the admin pages reach the API through the client.
func setupStack(t *testing.T) *stack {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	users := &usersvc.Service{DB: db}
	ctx := context.Background()
	_, err = users.Create(ctx, domain.UserInput{Email: "ed@example.com", Fullname: "Ed Itor", Password: "Secr3t!pass", Role: constants.Editor})
	require.NoError(t, err)
	_, err = users.Create(ctx, domain.UserInput{Email: "vi@example.com", Fullname: "Vi Ewer", Password: "Secr3t!pass", Role: constants.Viewer})
	require.NoError(t, err)

	s := &stack{db: db, mr: mr}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adaptor.FiberApp(s.app)(w, r)
	}))
	t.Cleanup(s.srv.Close)

	cfg := &config.Config{
		Env:            "test",
		APIBaseURL:     s.srv.URL,
		HTTPTimeout:    5 * time.Second,
		CacheTTL:       time.Minute,
		SessionTTL:     time.Hour,
		HealthAdminKey: "k",
	}
	s.app = NewApp(cfg, Deps{DB: db, Rdb: rdb})
	return s
}

func noRedirects() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
}

func (s *stack) login(t *testing.T, email string) string {
	body, _ := json.Marshal(map[string]string{"email": email, "password": "Secr3t!pass"})
	resp, err := http.Post(s.srv.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, ck := range resp.Cookies() {
		if ck.Name == constants.SessionCookieName {
			return ck.Value
		}
	}
	t.Fatal("no session cookie")
	return ""
}

func (s *stack) request(t *testing.T, method, path, sid string, form url.Values) (*http.Response, string) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, s.srv.URL+path, body)
	require.NoError(t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: sid})
	}
	resp, err := noRedirects().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp, string(raw)
}

func TestAPI_RequiresSession(t *testing.T) {
	s := setupStack(t)
	resp, _ := s.request(t, "GET", "/api/v1/stocks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	sid := s.login(t, "vi@example.com")
	resp, _ = s.request(t, "GET", "/api/v1/stocks", sid, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.request(t, "GET", "/api/v1/users", sid, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdmin_CreateThenEditThroughAPI(t *testing.T) {
	s := setupStack(t)
	sid := s.login(t, "ed@example.com")

	form := url.Values{
		"name": {"AAPL"}, "predicted_price": {"150"}, "buying_price": {"140"}, "selling_price": {"160"},
		"valuation": {"growth"}, "timeframe": {"1y"}, "organization_id": {""},
	}
	resp, _ := s.request(t, "POST", "/stocks/create", sid, form)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/stocks", resp.Header.Get("Location"))

	var stock domain.Stock
	require.NoError(t, s.db.First(&stock, "name = ?", "AAPL").Error)

	resp, body := s.request(t, "GET", "/stocks/edit/"+stock.ID.String(), sid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="150"`)

	form.Set("selling_price", "175")
	resp, _ = s.request(t, "POST", "/stocks/edit/"+stock.ID.String(), sid, form)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	require.NoError(t, s.db.First(&stock, "id = ?", stock.ID).Error)
	assert.Equal(t, 175, stock.SellingPrice)
	assert.True(t, s.mr.Exists("cache:stock:"+stock.ID.String()))

	var events int64
	require.NoError(t, s.db.Model(&domain.StockEvent{}).Where("stock_id = ?", stock.ID).Count(&events).Error)
	assert.Equal(t, int64(2), events)

	resp, body = s.request(t, "GET", "/stocks", sid, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "AAPL")
}

func TestAdmin_ViewerCannotOpenCreatePage(t *testing.T) {
	s := setupStack(t)
	resp, _ := s.request(t, "GET", "/stocks/create", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	sid := s.login(t, "vi@example.com")
	resp, _ = s.request(t, "GET", "/stocks/create", sid, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestClient_AgainstApp(t *testing.T) {
	s := setupStack(t)
	c := client.New(client.Config{BaseURL: s.srv.URL, Timeout: 5 * time.Second})
	authed, who, err := c.Login(context.Background(), "ed@example.com", "Secr3t!pass")
	require.NoError(t, err)
	assert.Equal(t, constants.Editor, who.Role)

	_, err = authed.CreateStock(context.Background(), domain.StockInput{Name: "AAPL"})
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusUnprocessableEntity))

	me, err := authed.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ed@example.com", me.Email)
}

func TestHealth(t *testing.T) {
	s := setupStack(t)
	resp, body := s.request(t, "GET", "/health/json", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)
}
