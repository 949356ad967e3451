package router

import (
	accrualsvc "coinvest-backend/internal/application/accrual"
	catalogsvc "coinvest-backend/internal/application/catalog"
	investsvc "coinvest-backend/internal/application/investment"
	ledgersvc "coinvest-backend/internal/application/ledger"
	referralsvc "coinvest-backend/internal/application/referral"
	settlesvc "coinvest-backend/internal/application/settlement"
	usersvc "coinvest-backend/internal/application/user"
	walletsvc "coinvest-backend/internal/application/wallet"
	"coinvest-backend/internal/config"
	"coinvest-backend/internal/infrastructure/database"
	adminhandler "coinvest-backend/internal/interfaces/handlers/admin"
	assethandler "coinvest-backend/internal/interfaces/handlers/assets"
	authhandler "coinvest-backend/internal/interfaces/handlers/auth"
	healthhandler "coinvest-backend/internal/interfaces/handlers/health"
	positionhandler "coinvest-backend/internal/interfaces/handlers/positions"
	wallethandler "coinvest-backend/internal/interfaces/handlers/wallet"
	"coinvest-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp builds the Fiber app, opens DB and Redis, and wires every route.
// The returned scheduler is not started; main owns its lifecycle.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, *accrualsvc.Scheduler, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.RequestLogger())

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, nil, err
	}

	// Component services; settlement composes them per transaction.
	walletService := &walletsvc.Service{DB: db}
	ledgerService := &ledgersvc.Service{DB: db}
	investmentService := &investsvc.Service{DB: db}
	referralResolver := &referralsvc.Resolver{DB: db, DefaultPercent: cfg.ReferralPercent}
	catalogService := &catalogsvc.Service{DB: db}
	settlementService := &settlesvc.Service{
		DB:          db,
		Wallet:      walletService,
		Ledger:      ledgerService,
		Investments: investmentService,
		Referrals:   referralResolver,
		Catalog:     catalogService,
	}
	userService := &usersvc.Service{DB: db}
	scheduler := accrualsvc.NewScheduler(db, rdb, walletService, ledgerService, investmentService, referralResolver, cfg.AccrualInterval)

	hh := &healthhandler.Handlers{Rdb: rdb, DB: &gormDBPinger{db: db}}
	app.Get("/health/json", hh.JSON)

	ah := &authhandler.Handlers{Service: userService, Rdb: rdb, Config: sessionCfg}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/register", ah.Register)
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", middleware.RequireAuth(), ah.Me)
	authGroup.Delete("/logout", middleware.RequireAuth(), ah.Logout)

	wh := &wallethandler.Handlers{Service: settlementService}
	walletGroup := app.Group("/api/v1/wallet", middleware.RequireAuth())
	walletGroup.Post("/deposit", wh.Deposit)
	walletGroup.Post("/withdraw", wh.Withdraw)
	walletGroup.Get("/ledger", wh.Ledger)

	ph := &positionhandler.Handlers{Service: settlementService}
	positionGroup := app.Group("/api/v1/positions", middleware.RequireAuth())
	positionGroup.Post("/buy", ph.Buy)
	positionGroup.Post("/redeem", ph.Redeem)
	positionGroup.Get("/", ph.List)

	assetHandlers := &assethandler.Handlers{Service: catalogService}
	assetGroup := app.Group("/api/v1/assets", middleware.RequireAuth())
	assetGroup.Get("/", assetHandlers.List)
	assetGroup.Get("/:id", assetHandlers.Get)
	assetGroup.Post("/", middleware.RequireAdmin(), assetHandlers.Create)
	assetGroup.Patch("/:id", middleware.RequireAdmin(), assetHandlers.SetActive)

	adminHandlers := &adminhandler.Handlers{Referrals: referralResolver, Scheduler: scheduler}
	adminGroup := app.Group("/api/v1/admin", middleware.RequireAuth(), middleware.RequireAdmin())
	adminGroup.Patch("/settings/referral", adminHandlers.SetReferralPercent)
	adminGroup.Post("/accrual/run", adminHandlers.RunAccrual)

	return app, db, rdb, scheduler, nil
}
