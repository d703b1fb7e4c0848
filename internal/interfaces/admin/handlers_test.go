package admin

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	authsvc "stock-admin/internal/application/auth"
	"stock-admin/internal/application/forms"
	"stock-admin/internal/client"
	"stock-admin/internal/constants"
	"stock-admin/internal/domain"
	"stock-admin/internal/infrastructure/cache"
	authhandlers "stock-admin/internal/interfaces/handlers/auth"
	"stock-admin/internal/middleware"
	"stock-admin/web"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu         sync.Mutex
	stocks     map[string]*domain.Stock
	orgs       []domain.Organization
	creates    int
	updates    int
	fetchGate  chan struct{}
	fetchDelay time.Duration
	fetches    int
	createErr  error
	updateErr  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{stocks: map[string]*domain.Stock{}}
}

func (b *fakeBackend) CreateStock(_ context.Context, in domain.StockInput) (*domain.Stock, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.creates++
	if b.createErr != nil {
		return nil, b.createErr
	}
	s := &domain.Stock{ID: uuid.New(), Name: in.Name, PredictedPrice: *in.PredictedPrice,
		BuyingPrice: *in.BuyingPrice, SellingPrice: *in.SellingPrice, Valuation: in.Valuation, Timeframe: in.Timeframe}
	b.stocks[s.ID.String()] = s
	return s, nil
}

func (b *fakeBackend) GetStockByID(_ context.Context, id string) (*domain.Stock, error) {
	b.mu.Lock()
	b.fetches++
	b.mu.Unlock()
	if b.fetchGate != nil {
		<-b.fetchGate
	}
	time.Sleep(b.fetchDelay)
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.stocks[id]
	if !ok {
		return nil, &client.APIError{StatusCode: 404, Message: "Stock not found"}
	}
	cp := *s
	return &cp, nil
}

func (b *fakeBackend) UpdateStockByID(_ context.Context, id string, in domain.StockInput) (*domain.Stock, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates++
	if b.updateErr != nil {
		return nil, b.updateErr
	}
	s := b.stocks[id]
	s.Name, s.Valuation, s.Timeframe = in.Name, in.Valuation, in.Timeframe
	s.PredictedPrice, s.BuyingPrice, s.SellingPrice = *in.PredictedPrice, *in.BuyingPrice, *in.SellingPrice
	cp := *s
	return &cp, nil
}

func (b *fakeBackend) ListStocks(context.Context, client.StockQuery) ([]domain.Stock, int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Stock, 0, len(b.stocks))
	for _, s := range b.stocks {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (b *fakeBackend) GetOrganizations(_ context.Context, search string) ([]domain.Organization, error) {
	var out []domain.Organization
	for _, o := range b.orgs {
		if strings.Contains(strings.ToLower(o.Name), strings.ToLower(search)) {
			out = append(out, o)
		}
	}
	return out, nil
}

type finder struct{ user *domain.User }

func (f finder) FindByEmailAndPassword(_ context.Context, email, password string) (*domain.User, error) {
	if email == f.user.Email && password == "password123" {
		return f.user, nil
	}
	return nil, authsvc.ErrIncorrectPassword
}

type testEnv struct {
	app     *fiber.App
	h       *Handlers
	backend *fakeBackend
	store   *cache.Memory
}

func (b *fakeBackend) fetchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches
}

func (b *fakeBackend) updateCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updates
}

func setupAdmin(t *testing.T) *testEnv {
	backend := newFakeBackend()
	store := cache.NewMemory()
	h := &Handlers{
		Backend:    func(string) Backend { return backend },
		Cache:      store,
		Auth:       &authhandlers.Handlers{UserFinder: finder{user: &domain.User{ID: uuid.New(), Email: "ed@example.com", Role: constants.Editor}}},
		Fetches:    forms.NewSharedFetches[domain.Stock](time.Minute),
		RenderWait: 30 * time.Millisecond,
		SubmitWait: 2 * time.Second,
	}
	app := fiber.New(fiber.Config{Views: web.Engine()})
	app.Use(func(c *fiber.Ctx) error {
		if role := c.Get("X-Test-Role"); role != "" {
			middleware.SetSessionUser(c, middleware.SessionUser{UserID: uuid.NewString(), Fullname: "Test", Role: role})
		}
		return c.Next()
	})
	h.Register(app)
	return &testEnv{app: app, h: h, backend: backend, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, role string, form url.Values) (int, string, string) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	resp, err := e.app.Test(req, 5000)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(raw), resp.Header.Get("Location")
}

func validForm() url.Values {
	return url.Values{
		"name": {"AAPL"}, "predicted_price": {"150"}, "buying_price": {"140"}, "selling_price": {"160"},
		"valuation": {"growth"}, "timeframe": {"1y"}, "organization_id": {""},
	}
}

func (e *testEnv) seedStock() *domain.Stock {
	org := domain.Organization{ID: uuid.New(), Name: "Microsoft Corp"}
	s := &domain.Stock{ID: uuid.New(), Name: "MSFT", PredictedPrice: 420, BuyingPrice: 400, SellingPrice: 450,
		Valuation: "fair", Timeframe: "6m", OrganizationID: &org.ID, Organization: &org}
	e.backend.stocks[s.ID.String()] = s
	return s
}

func TestGate_AnonymousRedirectsToLanding(t *testing.T) {
	env := setupAdmin(t)
	for _, path := range []string{"/stocks", "/stocks/create", "/stocks/edit/" + uuid.NewString()} {
		status, _, loc := env.do(t, "GET", path, "", nil)
		assert.Equal(t, fiber.StatusFound, status, path)
		assert.Equal(t, "/", loc, path)
	}
}

func TestGate_ViewerForbidden(t *testing.T) {
	env := setupAdmin(t)
	status, body, _ := env.do(t, "GET", "/stocks/create", constants.Viewer, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Contains(t, body, forbiddenMessage)
	assert.NotContains(t, body, `name="predicted_price"`)

	status, _, _ = env.do(t, "POST", "/stocks/create", constants.Viewer, validForm())
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, 0, env.backend.creates)

	status, _, _ = env.do(t, "GET", "/stocks", constants.Viewer, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestCreatePage_BlankDraftWithOrganization(t *testing.T) {
	env := setupAdmin(t)
	orgID := uuid.NewString()
	status, body, _ := env.do(t, "GET", "/stocks/create?organization_id="+orgID, constants.Editor, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `name="predicted_price" inputmode="numeric" value="0"`)
	assert.Contains(t, body, `<option value="`+orgID+`" selected>`)
	assert.Contains(t, body, "Select Organization")
}

func TestCreate_MissingNameShowsFieldError(t *testing.T) {
	env := setupAdmin(t)
	form := validForm()
	form.Set("name", "")
	status, body, _ := env.do(t, "POST", "/stocks/create", constants.Editor, form)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "name is a required field")
	assert.Equal(t, 0, env.backend.creates)
}

func TestCreate_ValidDraftRedirects(t *testing.T) {
	env := setupAdmin(t)
	status, _, loc := env.do(t, "POST", "/stocks/create", constants.Editor, validForm())
	assert.Equal(t, fiber.StatusSeeOther, status)
	assert.Equal(t, "/stocks", loc)
	assert.Equal(t, 1, env.backend.creates)
}

func TestCreate_RemoteFailureStaysOnPage(t *testing.T) {
	env := setupAdmin(t)
	env.backend.createErr = errors.New("dial tcp: connection refused")
	status, body, loc := env.do(t, "POST", "/stocks/create", constants.Editor, validForm())
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Empty(t, loc)
	assert.Contains(t, body, "error-panel")
	assert.Contains(t, body, "connection refused")
	assert.Contains(t, body, `value="AAPL"`)
}

func TestEditPage_PendingFetchShowsSpinner(t *testing.T) {
	env := setupAdmin(t)
	s := env.seedStock()
	gate := make(chan struct{})
	defer close(gate)
	env.backend.fetchGate = gate

	status, body, _ := env.do(t, "GET", "/stocks/edit/"+s.ID.String(), constants.Editor, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `class="spinner"`)
	assert.Contains(t, body, `http-equiv="refresh"`)
	assert.NotContains(t, body, "<form method=\"post\" action=\"/stocks/edit/")
}

func TestEditPage_SlowFetchRendersOnRefresh(t *testing.T) {
	env := setupAdmin(t)
	s := env.seedStock()
	env.backend.fetchDelay = 90 * time.Millisecond
	path := "/stocks/edit/" + s.ID.String()

	_, body, _ := env.do(t, "GET", path, constants.Editor, nil)
	assert.Contains(t, body, `class="spinner"`)

	assert.Eventually(t, func() bool {
		_, body, _ := env.do(t, "GET", path, constants.Editor, nil)
		return strings.Contains(body, `value="420"`)
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, 1, env.backend.fetchCount())
}

func TestEdit_SubmitWaitsForSlowFetch(t *testing.T) {
	env := setupAdmin(t)
	s := env.seedStock()
	env.backend.fetchDelay = 90 * time.Millisecond
	form := validForm()
	form.Set("name", "MSFT Edited")

	status, _, loc := env.do(t, "POST", "/stocks/edit/"+s.ID.String(), constants.Editor, form)
	assert.Equal(t, fiber.StatusSeeOther, status)
	assert.Equal(t, "/stocks", loc)
	assert.Equal(t, 1, env.backend.updateCount())
	assert.Equal(t, "MSFT Edited", env.backend.stocks[s.ID.String()].Name)
}

func TestEdit_SubmitBeforeLoadKeepsInput(t *testing.T) {
	env := setupAdmin(t)
	s := env.seedStock()
	gate := make(chan struct{})
	defer close(gate)
	env.backend.fetchGate = gate
	env.h.SubmitWait = 50 * time.Millisecond
	form := validForm()
	form.Set("name", "MSFT Edited")

	status, body, loc := env.do(t, "POST", "/stocks/edit/"+s.ID.String(), constants.Editor, form)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Empty(t, loc)
	assert.Contains(t, body, "still loading")
	assert.Contains(t, body, `value="MSFT Edited"`)
	assert.NotContains(t, body, `class="spinner"`)
	assert.NotContains(t, body, "could not be reached")
	assert.Equal(t, 0, env.backend.updateCount())
}

func TestEditPage_PrePopulated(t *testing.T) {
	env := setupAdmin(t)
	s := env.seedStock()
	status, body, _ := env.do(t, "GET", "/stocks/edit/"+s.ID.String(), constants.Editor, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "Edit MSFT")
	assert.Contains(t, body, `value="420"`)
	assert.Contains(t, body, `value="fair"`)
	assert.Contains(t, body, "Microsoft Corp")
	assert.NotContains(t, body, `class="spinner"`)
}

func TestEditPage_FetchFailure(t *testing.T) {
	env := setupAdmin(t)
	status, body, _ := env.do(t, "GET", "/stocks/edit/"+uuid.NewString(), constants.Editor, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, body, "Stock not found")
	assert.NotContains(t, body, `name="predicted_price"`)
}

func TestEdit_FailedUpdateKeepsRecord(t *testing.T) {
	env := setupAdmin(t)
	s := env.seedStock()
	env.backend.updateErr = &client.APIError{StatusCode: 500, Message: "database unavailable"}

	form := validForm()
	form.Set("name", "MSFT")
	status, body, loc := env.do(t, "POST", "/stocks/edit/"+s.ID.String(), constants.Editor, form)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Empty(t, loc)
	assert.Contains(t, body, "Edit MSFT")
	assert.Contains(t, body, "database unavailable")
	assert.Contains(t, body, `name="predicted_price"`)
}

func TestEdit_SuccessWritesCache(t *testing.T) {
	env := setupAdmin(t)
	s := env.seedStock()
	form := validForm()
	form.Set("name", "MSFT")
	form.Set("selling_price", "999")

	status, _, loc := env.do(t, "POST", "/stocks/edit/"+s.ID.String(), constants.Editor, form)
	assert.Equal(t, fiber.StatusSeeOther, status)
	assert.Equal(t, "/stocks", loc)
	assert.Equal(t, 1, env.backend.updates)

	var cached domain.Stock
	ok, err := env.store.Get(context.Background(), cache.Key("stock", s.ID.String()), &cached)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 999, cached.SellingPrice)
}

func TestStocksIndex(t *testing.T) {
	env := setupAdmin(t)
	env.seedStock()
	status, body, _ := env.do(t, "GET", "/stocks", constants.Editor, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "MSFT")
	assert.Contains(t, body, "/stocks/create")
	assert.Contains(t, body, "/stocks/edit/")
}

func TestOrganizationOptions(t *testing.T) {
	env := setupAdmin(t)
	acme := domain.Organization{ID: uuid.New(), Name: "Acme"}
	env.backend.orgs = []domain.Organization{acme, {ID: uuid.New(), Name: "Globex"}}

	status, body, _ := env.do(t, "GET", "/organizations/options?q=ac&selected="+acme.ID.String(), constants.Viewer, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `<option value="`+acme.ID.String()+`" selected>Acme</option>`)
	assert.NotContains(t, body, "Globex")
	assert.NotContains(t, body, "<html")
}

func TestLogin(t *testing.T) {
	env := setupAdmin(t)
	status, body, _ := env.do(t, "POST", "/login", "", url.Values{"email": {"ed@example.com"}, "password": {"wrong"}})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "Incorrect Password")

	status, _, loc := env.do(t, "POST", "/login", "", url.Values{"email": {"ed@example.com"}, "password": {"password123"}})
	assert.Equal(t, fiber.StatusSeeOther, status)
	assert.Equal(t, "/stocks", loc)
}
