package admin

import (
	"context"
	"errors"
	"time"

	"stock-admin/internal/application/forms"
	"stock-admin/internal/domain"
	"stock-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type formPage struct {
	title   string
	heading string
	action  string
	submit  string
	values  stockValues
	orgName string
	view    forms.StockView
}

func (h *Handlers) renderForm(c *fiber.Ctx, status int, p formPage) error {
	data := fiber.Map{
		"Heading":          p.heading,
		"Action":           p.action,
		"Submit":           p.submit,
		"Values":           p.values,
		"OrganizationName": p.orgName,
		"Loading":          p.view.Loading,
		"ShowForm":         p.view.ShowForm,
		"Stale":            p.view.Stale,
		"Fields":           p.view.Fields,
	}
	if p.view.Err != nil {
		data["Error"] = displayError(p.view.Err)
	}
	if p.view.Loading {
		data["Refresh"] = 1
	}
	return c.Status(status).Render("stock_form", page(c, p.title, data), layout)
}

func createPage(view forms.StockView, values stockValues) formPage {
	return formPage{
		title:   "New stock",
		heading: "Create stock",
		action:  "/stocks/create",
		submit:  "Create",
		values:  values,
		orgName: values.OrganizationID,
		view:    view,
	}
}

func editPage(id string, view forms.StockView, values stockValues) formPage {
	p := formPage{
		title:   "Edit stock",
		heading: "Edit stock",
		action:  "/stocks/edit/" + id,
		submit:  "Save",
		values:  values,
		orgName: values.OrganizationID,
		view:    view,
	}
	if rec := view.Record; rec != nil {
		p.heading = "Edit " + rec.Name
		if rec.Organization != nil && rec.OrganizationID != nil && rec.OrganizationID.String() == values.OrganizationID {
			p.orgName = rec.Organization.Name
		}
	}
	return p
}

// submitStatus is the page status when a submit did not redirect.
func submitStatus(res forms.StockResult) int {
	if res.Err == nil {
		return fiber.StatusUnprocessableEntity
	}
	if errors.Is(res.Err, forms.ErrSubmitInFlight) {
		return fiber.StatusConflict
	}
	return remoteStatus(res.Err)
}

var errStillLoading = errors.New("The stock is still loading, so your changes were not saved. Submit again in a moment.")

func (h *Handlers) accessor(c *fiber.Ctx) forms.Accessor[domain.Stock, domain.StockInput] {
	return forms.SharedAccessor[domain.Stock, domain.StockInput]{
		Accessor: forms.StockAccessor{Client: h.backend(c)},
		Shared:   h.Fetches,
		Scope:    middleware.GetSessionID(c),
	}
}

// CreateStockPage GET /stocks/create[?organization_id=]
func (h *Handlers) CreateStockPage(c *fiber.Ctx) error {
	form := forms.NewStockCreateForm(h.accessor(c), c.Query("organization_id"))
	view := form.View()
	return h.renderForm(c, fiber.StatusOK, createPage(view, valuesFromDraft(view.Draft)))
}

// CreateStock POST /stocks/create
func (h *Handlers) CreateStock(c *fiber.Ctx) error {
	form := forms.NewStockCreateForm(h.accessor(c), "")
	fields, posted := postedFields(c)
	form.Bind(fields)

	res := form.Submit(c.UserContext())
	if res.OK() {
		return c.Redirect(res.Redirect, fiber.StatusSeeOther)
	}
	return h.renderForm(c, submitStatus(res), createPage(form.View(), posted))
}

func (h *Handlers) loadEditForm(c *fiber.Ctx, wait time.Duration) *forms.StockEditForm {
	form := forms.NewStockEditForm(h.accessor(c), h.Cache, c.Params("id"))
	form.Start(c.UserContext())
	ctx, cancel := context.WithTimeout(c.UserContext(), wait)
	defer cancel()
	_ = form.Wait(ctx)
	return form
}

func viewStatus(view forms.StockView) int {
	if view.Err != nil && !view.ShowForm {
		return remoteStatus(view.Err)
	}
	return fiber.StatusOK
}

// EditStockPage GET /stocks/edit/:id
func (h *Handlers) EditStockPage(c *fiber.Ctx) error {
	form := h.loadEditForm(c, h.wait())
	view := form.View()
	return h.renderForm(c, viewStatus(view), editPage(form.ID(), view, valuesFromDraft(view.Draft)))
}

// EditStock POST /stocks/edit/:id
func (h *Handlers) EditStock(c *fiber.Ctx) error {
	form := h.loadEditForm(c, h.submitWait())
	fields, posted := postedFields(c)
	view := form.View()
	if view.Loading {
		// Keep what was typed; the record behind it has not arrived yet.
		view.Loading, view.ShowForm, view.Err = false, true, errStillLoading
		return h.renderForm(c, fiber.StatusServiceUnavailable, editPage(form.ID(), view, posted))
	}
	if !view.ShowForm {
		return h.renderForm(c, viewStatus(view), editPage(form.ID(), view, valuesFromDraft(view.Draft)))
	}

	form.Bind(fields)
	res := form.Submit(c.UserContext())
	if res.OK() {
		return c.Redirect(res.Redirect, fiber.StatusSeeOther)
	}
	return h.renderForm(c, submitStatus(res), editPage(form.ID(), form.View(), posted))
}
