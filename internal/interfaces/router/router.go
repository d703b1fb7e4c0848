package router

import (
	"context"
	"time"

	authsvc "stock-admin/internal/application/auth"
	orgsvc "stock-admin/internal/application/orgs"
	stocksvc "stock-admin/internal/application/stocks"
	"stock-admin/internal/application/forms"
	usersvc "stock-admin/internal/application/users"
	"stock-admin/internal/client"
	"stock-admin/internal/config"
	"stock-admin/internal/constants"
	"stock-admin/internal/domain"
	"stock-admin/internal/infrastructure/cache"
	"stock-admin/internal/infrastructure/database"
	"stock-admin/internal/interfaces/admin"
	authhandler "stock-admin/internal/interfaces/handlers/auth"
	healthhandler "stock-admin/internal/interfaces/handlers/health"
	orghandler "stock-admin/internal/interfaces/handlers/organizations"
	stockhandler "stock-admin/internal/interfaces/handlers/stocks"
	userhandler "stock-admin/internal/interfaces/handlers/users"
	"stock-admin/internal/middleware"
	"stock-admin/web"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// editFetchKeep is how long a settled edit-page fetch is reused by later requests.
const editFetchKeep = 30 * time.Second

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) PingContext(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Deps are the connections the app is built on. API defaults to a client for cfg.APIBaseURL.
type Deps struct {
	DB  *gorm.DB
	Rdb *redis.Client
	API *client.Client
}

// CreateApp opens the database and Redis from cfg, migrates and seeds, and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}
	rdb, err := database.OpenRedis(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := (&usersvc.Service{DB: db}).EnsureOwner(ctx, cfg.OwnerEmail, cfg.OwnerPassword); err != nil {
		return nil, nil, nil, err
	}

	return NewApp(cfg, Deps{DB: db, Rdb: rdb}), db, rdb, nil
}

// NewApp wires middleware, the JSON API, health endpoints and the admin pages.
func NewApp(cfg *config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		Views:                   web.Engine(),
	})

	db, rdb := deps.DB, deps.Rdb
	sessionCfg := middleware.SessionConfig{IsProduction: cfg.IsProduction(), TTL: cfg.SessionTTL}

	app.Use(middleware.CORS(middleware.CORSConfig{AllowedSuffixes: cfg.CORSSuffixes}))
	app.Use(middleware.Tracing())
	app.Use(middleware.Session(rdb, sessionCfg))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{Rdb: rdb, DB: &gormDBPinger{db: db}, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/reset", hh.Reset)

	ah := &authhandler.Handlers{
		UserFinder: &authsvc.GormUserFinder{DB: db},
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	app.Post("/api/v1/auth/login", ah.Login)
	app.Get("/api/v1/auth/me", ah.Me)
	app.Delete("/api/v1/auth/logout", ah.Logout)

	can := func(op string) fiber.Handler {
		return middleware.AuthorizeRoute(constants.ServiceProject, op)
	}

	sh := &stockhandler.Handlers{Service: &stocksvc.Service{DB: db}}
	app.Post("/api/v1/stocks", can(constants.OperationCreate), sh.Create)
	app.Get("/api/v1/stocks", can(constants.OperationRead), sh.List)
	app.Get("/api/v1/stocks/:id", can(constants.OperationRead), sh.GetByID)
	app.Put("/api/v1/stocks/:id", can(constants.OperationUpdate), sh.UpdateByID)

	oh := &orghandler.Handlers{Service: &orgsvc.Service{DB: db}}
	app.Get("/api/v1/organizations", can(constants.OperationRead), oh.Search)
	app.Post("/api/v1/organizations", can(constants.OperationCreate), oh.Create)
	app.Get("/api/v1/organizations/:id", can(constants.OperationRead), oh.GetByID)

	uh := &userhandler.Handlers{Service: &usersvc.Service{DB: db, Rdb: rdb}}
	app.Get("/api/v1/users", can(constants.OperationRead), uh.List)
	app.Post("/api/v1/users", can(constants.OperationCreate), uh.Create)
	app.Patch("/api/v1/users/:id/role", can(constants.OperationUpdate), uh.UpdateRole)

	api := deps.API
	if api == nil {
		api = client.New(client.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.HTTPTimeout})
	}
	pages := &admin.Handlers{
		Backend: admin.ClientBackend(api),
		Cache:   cache.NewRedis(rdb, cfg.CacheTTL),
		Auth:    ah,
		// A fetch that outlasts the spinner page is handed to the refresh that follows it.
		Fetches:    forms.NewSharedFetches[domain.Stock](editFetchKeep),
		SubmitWait: cfg.HTTPTimeout,
	}
	pages.Register(app)

	log.Debug().Str("api_base_url", cfg.APIBaseURL).Msg("routes registered")
	return app
}
