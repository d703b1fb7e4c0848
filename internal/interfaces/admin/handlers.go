// Package admin serves the server-rendered admin pages. Pages read and write through the
// JSON API with the visitor's session, the same way a browser client would.
package admin

import (
	"context"
	"errors"
	"strconv"
	"time"

	"stock-admin/internal/application/forms"
	"stock-admin/internal/client"
	"stock-admin/internal/constants"
	"stock-admin/internal/domain"
	"stock-admin/internal/infrastructure/cache"
	authhandlers "stock-admin/internal/interfaces/handlers/auth"
	"stock-admin/internal/middleware"
	"stock-admin/internal/pkg/entity"
	"stock-admin/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	layout            = "layout"
	defaultWait       = 2 * time.Second
	defaultSubmitWait = 10 * time.Second
	forbiddenMessage  = "You do not have permission to view this page."
)

// Backend is the API as seen by one signed-in visitor. *client.Client implements it.
type Backend interface {
	forms.StockClient
	ListStocks(ctx context.Context, q client.StockQuery) ([]domain.Stock, int64, error)
	GetOrganizations(ctx context.Context, search string) ([]domain.Organization, error)
}

var _ Backend = (*client.Client)(nil)

type Handlers struct {
	// Backend returns the API bound to a session id.
	Backend func(sessionID string) Backend
	Cache   cache.Store
	Auth    *authhandlers.Handlers
	// Fetches lets edit requests for the same record and session share one fetch. May be nil.
	Fetches *forms.StockFetches
	// RenderWait bounds how long an edit page waits for its record before showing the spinner.
	RenderWait time.Duration
	// SubmitWait bounds how long an edit submit waits for its record to load.
	SubmitWait time.Duration
}

// ClientBackend binds the shared API client to each visitor's session.
func ClientBackend(c *client.Client) func(string) Backend {
	return func(sessionID string) Backend {
		return c.WithSession(sessionID)
	}
}

// Register mounts the admin pages on r.
func (h *Handlers) Register(r fiber.Router) {
	r.Get("/", h.Landing)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	signedIn := middleware.RequireSession("/")
	r.Get("/stocks", signedIn, h.gate(constants.OperationRead), h.StocksIndex)
	r.Get("/stocks/create", signedIn, h.gate(constants.OperationCreate), h.CreateStockPage)
	r.Post("/stocks/create", signedIn, h.gate(constants.OperationCreate), h.CreateStock)
	r.Get("/stocks/edit/:id", signedIn, h.gate(constants.OperationUpdate), h.EditStockPage)
	r.Post("/stocks/edit/:id", signedIn, h.gate(constants.OperationUpdate), h.EditStock)
	r.Get("/organizations/options", signedIn, h.gate(constants.OperationRead), h.OrganizationOptions)
}

// gate renders 403 unless the visitor holds (project, <entity of this path>, operation).
func (h *Handlers) gate(operation string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := constants.Permission{
			Service:   constants.ServiceProject,
			Entity:    entity.FromPath(c.Path()),
			Operation: operation,
		}
		if !middleware.HasPermission(c, p) {
			log.Info().Str("trace_id", middleware.GetTraceID(c)).Str("permission", p.String()).Msg("page permission denied")
			return c.Status(fiber.StatusForbidden).Render("forbidden", page(c, "Forbidden", fiber.Map{
				"Message": forbiddenMessage,
			}), layout)
		}
		return c.Next()
	}
}

func (h *Handlers) backend(c *fiber.Ctx) Backend {
	return h.Backend(middleware.GetSessionID(c))
}

func (h *Handlers) wait() time.Duration {
	if h.RenderWait <= 0 {
		return defaultWait
	}
	return h.RenderWait
}

func (h *Handlers) submitWait() time.Duration {
	if h.SubmitWait <= 0 {
		return defaultSubmitWait
	}
	return h.SubmitWait
}

// page adds the fields every template reads from the layout.
func page(c *fiber.Ctx, title string, m fiber.Map) fiber.Map {
	m["Title"] = title
	if u := middleware.GetUser(c); u != nil {
		m["User"] = u
	}
	return m
}

// Landing GET /
func (h *Handlers) Landing(c *fiber.Ctx) error {
	return c.Render("landing", page(c, "Welcome", fiber.Map{}), layout)
}

// Login POST /login
func (h *Handlers) Login(c *fiber.Ctx) error {
	req := authhandlers.LoginRequest{Email: c.FormValue("email"), Password: c.FormValue("password")}
	if _, err := h.Auth.Authenticate(c, req); err != nil {
		status := authhandlers.LoginStatus(err)
		msg := err.Error()
		if status == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("admin login failed")
			msg = "Sign in failed, try again later."
		}
		return c.Status(status).Render("landing", page(c, "Welcome", fiber.Map{
			"Error": msg,
			"Email": req.Email,
		}), layout)
	}
	return c.Redirect("/stocks", fiber.StatusSeeOther)
}

// Logout POST /logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	h.Auth.EndSession(c)
	return c.Redirect("/", fiber.StatusSeeOther)
}

// StocksIndex GET /stocks
func (h *Handlers) StocksIndex(c *fiber.Ctx) error {
	q := client.StockQuery{
		Name:           c.Query("name"),
		OrganizationID: c.Query("organization_id"),
		Page:           c.QueryInt("page", 1),
	}
	data := fiber.Map{
		"CanCreate": middleware.HasPermission(c, constants.CreateStock),
		"CanUpdate": middleware.HasPermission(c, constants.UpdateStock),
	}
	stocks, total, err := h.backend(c).ListStocks(c.UserContext(), q)
	if err != nil {
		data["Error"] = displayError(err)
		return c.Status(remoteStatus(err)).Render("stocks_index", page(c, "Stocks", data), layout)
	}
	data["Stocks"] = stocks
	data["Total"] = total
	return c.Render("stocks_index", page(c, "Stocks", data), layout)
}

type orgOption struct {
	ID   string
	Name string
}

// OrganizationOptions GET /organizations/options?q=&selected= returns <option> elements
// for the organization selector.
func (h *Handlers) OrganizationOptions(c *fiber.Ctx) error {
	orgs, err := h.backend(c).GetOrganizations(c.UserContext(), c.Query("q"))
	status := fiber.StatusOK
	if err != nil {
		status = remoteStatus(err)
		orgs = nil
	}
	options := make([]orgOption, 0, len(orgs))
	for _, o := range orgs {
		options = append(options, orgOption{ID: o.ID.String(), Name: o.Name})
	}
	return c.Status(status).Render("organization_options", fiber.Map{
		"Options":  options,
		"Selected": c.Query("selected"),
	})
}

// displayError is the error panel text for a remote failure.
func displayError(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, errStillLoading) {
		return err.Error()
	}
	return "The stock service could not be reached. " + err.Error()
}

// remoteStatus picks the page status for a remote failure.
func remoteStatus(err error) int {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case fiber.StatusNotFound, fiber.StatusForbidden, fiber.StatusUnauthorized:
			return apiErr.StatusCode
		}
	}
	return fiber.StatusBadGateway
}

// stockValues are the form inputs as text.
type stockValues struct {
	Name           string
	PredictedPrice string
	BuyingPrice    string
	SellingPrice   string
	Valuation      string
	Timeframe      string
	OrganizationID string
}

var stockFields = []string{"name", "predicted_price", "buying_price", "selling_price", "valuation", "timeframe", "organization_id"}

func intText(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func valuesFromDraft(d domain.StockInput) stockValues {
	v := stockValues{
		Name:           d.Name,
		PredictedPrice: intText(d.PredictedPrice),
		BuyingPrice:    intText(d.BuyingPrice),
		SellingPrice:   intText(d.SellingPrice),
		Valuation:      d.Valuation,
		Timeframe:      d.Timeframe,
	}
	if d.OrganizationID != nil {
		v.OrganizationID = *d.OrganizationID
	}
	return v
}

// postedFields reads the stock form body.
func postedFields(c *fiber.Ctx) (validation.Fields, stockValues) {
	f := validation.Fields{}
	for _, k := range stockFields {
		f[k] = c.FormValue(k)
	}
	return f, stockValues{
		Name:           c.FormValue("name"),
		PredictedPrice: c.FormValue("predicted_price"),
		BuyingPrice:    c.FormValue("buying_price"),
		SellingPrice:   c.FormValue("selling_price"),
		Valuation:      c.FormValue("valuation"),
		Timeframe:      c.FormValue("timeframe"),
		OrganizationID: c.FormValue("organization_id"),
	}
}
