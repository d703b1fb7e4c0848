// Package client is the remote data accessor: it talks to the JSON API over HTTP and
// unwraps the response envelope.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stock-admin/internal/constants"
	"stock-admin/internal/domain"
	"stock-admin/internal/pkg/entity"
	"stock-admin/internal/pkg/validation"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const apiPrefix = "/api/v1/"

// ErrNoSession is returned by Login when the server did not issue a session cookie.
var ErrNoSession = errors.New("client: login response carried no session cookie")

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is safe for concurrent use. Copies made by WithSession share the transport.
type Client struct {
	http    *resty.Client
	session string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: rc}
}

// WithSession returns a copy that sends sessionID as the session cookie.
func (c *Client) WithSession(sessionID string) *Client {
	return &Client{http: c.http, session: sessionID}
}

// SessionID is the session cookie value sent with each request.
func (c *Client) SessionID() string {
	return c.session
}

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	StatusCode int
	Message    string
	Details    map[string]interface{}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d: %s", e.StatusCode, e.Message)
}

// FieldErrors returns the per-field messages of a 422 response.
func (e *APIError) FieldErrors() validation.Errors {
	if e.StatusCode != http.StatusUnprocessableEntity {
		return nil
	}
	out := validation.Errors{}
	for k, v := range e.Details {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type envelope[T any] struct {
	Status   string                 `json:"status"`
	Message  string                 `json:"message"`
	Data     T                      `json:"data"`
	Metadata map[string]interface{} `json:"metadata"`
}

type errorEnvelope struct {
	Error struct {
		Message    string                 `json:"message"`
		StatusCode int                    `json:"statusCode"`
		Details    map[string]interface{} `json:"details"`
	} `json:"error"`
}

type call struct {
	method string
	path   string
	body   interface{}
	query  map[string]string
}

func do[T any](ctx context.Context, c *Client, in call) (*envelope[T], *resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if c.session != "" {
		req.SetCookie(&http.Cookie{Name: constants.SessionCookieName, Value: c.session})
	}
	if in.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(in.body)
	}
	if len(in.query) > 0 {
		req.SetQueryParams(in.query)
	}

	resp, err := req.Execute(in.method, in.path)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("method", in.method).Str("path", in.path).Msg("api request failed")
		return nil, nil, fmt.Errorf("%s %s: %w", in.method, in.path, err)
	}
	if resp.IsError() {
		return nil, resp, decodeError(ctx, resp)
	}

	var env envelope[T]
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, resp, fmt.Errorf("%s %s: decode response: %w", in.method, in.path, err)
	}
	return &env, resp, nil
}

func decodeError(ctx context.Context, resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	var env errorEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err == nil && env.Error.Message != "" {
		apiErr.Message = env.Error.Message
		apiErr.Details = env.Error.Details
	}
	log.Ctx(ctx).Warn().
		Int("status", apiErr.StatusCode).
		Str("path", resp.Request.URL).
		Str("message", apiErr.Message).
		Msg("api returned error")
	return apiErr
}

func collectionPath(entityName string) string {
	return apiPrefix + entity.Collection(entityName)
}

// recordPath escapes id so it stays one path segment.
func recordPath(entityName, id string) string {
	return collectionPath(entityName) + "/" + url.PathEscape(id)
}

// CreateStock posts a new stock and returns the created record.
func (c *Client) CreateStock(ctx context.Context, in domain.StockInput) (*domain.Stock, error) {
	env, _, err := do[domain.Stock](ctx, c, call{method: http.MethodPost, path: collectionPath(entity.Stock), body: in})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// GetStockByID fetches one stock with its organization and event count.
func (c *Client) GetStockByID(ctx context.Context, id string) (*domain.Stock, error) {
	env, _, err := do[domain.Stock](ctx, c, call{method: http.MethodGet, path: recordPath(entity.Stock, id)})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// UpdateStockByID replaces the editable fields of a stock.
func (c *Client) UpdateStockByID(ctx context.Context, id string, in domain.StockInput) (*domain.Stock, error) {
	env, _, err := do[domain.Stock](ctx, c, call{method: http.MethodPut, path: recordPath(entity.Stock, id), body: in})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// StockQuery filters ListStocks. Zero values are omitted.
type StockQuery struct {
	Name           string
	Valuation      string
	Timeframe      string
	OrganizationID string
	Page           int
	Limit          int
}

func (q StockQuery) params() map[string]string {
	out := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set("name", q.Name)
	set("valuation", q.Valuation)
	set("timeframe", q.Timeframe)
	set("organization_id", q.OrganizationID)
	if q.Page > 0 {
		out["page"] = strconv.Itoa(q.Page)
	}
	if q.Limit > 0 {
		out["limit"] = strconv.Itoa(q.Limit)
	}
	return out
}

// ListStocks returns one page of stocks and the total count.
func (c *Client) ListStocks(ctx context.Context, q StockQuery) ([]domain.Stock, int64, error) {
	env, _, err := do[[]domain.Stock](ctx, c, call{method: http.MethodGet, path: collectionPath(entity.Stock), query: q.params()})
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if v, ok := env.Metadata["total"].(float64); ok {
		total = int64(v)
	}
	return env.Data, total, nil
}

// GetOrganizations searches organizations by name. An empty search lists all.
func (c *Client) GetOrganizations(ctx context.Context, search string) ([]domain.Organization, error) {
	q := map[string]string{}
	if search != "" {
		q["q"] = search
	}
	env, _, err := do[[]domain.Organization](ctx, c, call{method: http.MethodGet, path: collectionPath(entity.Organization), query: q})
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Identity is the session user returned by login and me.
type Identity struct {
	UserID   string `json:"user_id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type identityData struct {
	User Identity `json:"user"`
}

// Login authenticates and returns a copy of c bound to the new session.
func (c *Client) Login(ctx context.Context, email, password string) (*Client, *Identity, error) {
	body := map[string]string{"email": email, "password": password}
	env, resp, err := do[identityData](ctx, c, call{method: http.MethodPost, path: apiPrefix + "auth/login", body: body})
	if err != nil {
		return nil, nil, err
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == constants.SessionCookieName && ck.Value != "" {
			return c.WithSession(ck.Value), &env.Data.User, nil
		}
	}
	return nil, nil, ErrNoSession
}

// Me returns the identity bound to the current session.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	env, _, err := do[identityData](ctx, c, call{method: http.MethodGet, path: apiPrefix + "auth/me"})
	if err != nil {
		return nil, err
	}
	return &env.Data.User, nil
}
