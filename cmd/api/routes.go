package main

import (
	"go-pos-ws/internal/cache"
	"go-pos-ws/internal/config"
	"go-pos-ws/internal/handler"
	"go-pos-ws/internal/middleware"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/service"
	"go-pos-ws/internal/ws"
	"go-pos-ws/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newApp(cfg *config.Config, db *gorm.DB, wsHub *ws.Hub, store cache.IdempotencyStore, log *zap.Logger) (*fiber.App, error) {
	// Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	movementRepo := repository.NewStockMovementRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	sessionRepo := repository.NewCashSessionRepo(db)
	fiadoRepo := repository.NewFiadoRepo(db)
	counterRepo := repository.NewCounterRepo(db)
	userRepo := repository.NewUserRepo(db)
	companyRepo := repository.NewCompanyRepo(db)

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	ledger := service.NewStockLedger(productRepo, movementRepo)

	invService := service.NewInventoryService(db, productRepo, movementRepo, ledger, wsHub, log)
	salesService := service.NewSalesService(db, ledger, saleRepo, counterRepo, sessionRepo, wsHub, log)
	registerService := service.NewCashSessionService(db, sessionRepo, saleRepo, orderRepo, wsHub, log)
	fiadoService := service.NewFiadoService(db, ledger, fiadoRepo, saleRepo, counterRepo, sessionRepo, wsHub, log)
	orderService := service.NewOrderService(db, ledger, orderRepo, saleRepo, counterRepo, sessionRepo, wsHub, log)
	dashService := service.NewDashboardService(productRepo, movementRepo, saleRepo, orderRepo, fiadoRepo, sessionRepo, cfg.Inventory.LowStockThreshold)
	companyService := service.NewCompanyService(companyRepo, wsHub)
	authService := service.NewAuthService(userRepo, jwtManager, wsHub, log)
	userService := service.NewUserService(userRepo)

	invHandler := handler.NewInventoryHandler(invService)
	salesHandler := handler.NewSalesHandler(salesService)
	registerHandler := handler.NewCashSessionHandler(registerService)
	fiadoHandler := handler.NewFiadoHandler(fiadoService)
	orderHandler := handler.NewOrderHandler(orderService)
	dashHandler := handler.NewDashboardHandler(dashService)
	companyHandler := handler.NewCompanyHandler(companyService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(userService)

	loginLimit, err := middleware.RateLimit(cfg.RateLimit.Login, log)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 8 << 20,
	})

	// Middleware
	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(requestid.New())
	app.Use(cors.New())
	if cfg.Log.Requests {
		app.Use(middleware.RequestLogger(log))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})

	api := app.Group("/api/v1")
	auth := middleware.RequireAuth(authService)
	once := middleware.Idempotency(store, cfg.Idempotency.TTL, log)
	can := middleware.RequirePermission

	// ============ PUBLIC ROUTES ============
	authGroup := api.Group("/auth")
	authGroup.Post("/login", loginLimit, authHandler.Login)
	authGroup.Post("/validate-token", authHandler.ValidateToken)
	authGroup.Post("/heartbeat", auth, authHandler.Heartbeat)
	authGroup.Post("/change-password", auth, authHandler.ChangePassword)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", auth)

	// Dashboard & reports
	protected.Get("/dashboard/stats", can(model.PermReportView), dashHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", can(model.PermReportView), dashHandler.GetStockMovement)
	protected.Get("/dashboard/sales-summary", can(model.PermReportView), dashHandler.GetSalesSummary)

	// Products (static paths before :id)
	protected.Get("/products", can(model.PermProductView), invHandler.GetProducts)
	protected.Get("/products/export", can(model.PermProductView), invHandler.ExportProducts)
	protected.Get("/products/movements", can(model.PermProductView), invHandler.GetMovements)
	protected.Post("/products/import", can(model.PermProductManage), invHandler.ImportProducts)
	protected.Post("/products/adjust", can(model.PermProductManage), once, invHandler.AdjustStock)
	protected.Get("/products/:id", can(model.PermProductView), invHandler.GetProduct)
	protected.Post("/products", can(model.PermProductManage), once, invHandler.CreateProduct)
	protected.Put("/products/:id", can(model.PermProductManage), invHandler.UpdateProduct)
	protected.Delete("/products/:id", can(model.PermProductManage), invHandler.DeleteProduct)

	// Sales
	protected.Get("/sales", can(model.PermSaleView), salesHandler.ListSales)
	protected.Get("/sales/:id", can(model.PermSaleView), salesHandler.GetSale)
	protected.Post("/sales", can(model.PermSaleCreate), once, salesHandler.CreateSale)
	protected.Post("/sales/:id/cancel", can(model.PermSaleCancel), salesHandler.CancelSale)

	// Cash register
	protected.Get("/register/current", middleware.RequireAnyPermission(model.PermRegisterOperate, model.PermReportView), registerHandler.Current)
	protected.Post("/register/open", can(model.PermRegisterOperate), registerHandler.Open)
	protected.Post("/register/close", can(model.PermRegisterOperate), registerHandler.Close)
	protected.Post("/register/adjustments", can(model.PermRegisterOperate), once, registerHandler.AddAdjustment)
	protected.Get("/register/sessions", can(model.PermRegisterManage), registerHandler.History)
	protected.Get("/register/sessions/:id", can(model.PermRegisterManage), registerHandler.GetSession)
	protected.Delete("/register/sessions/:id", can(model.PermRegisterManage), registerHandler.DeleteSession)

	// Fiado
	protected.Get("/fiado/accounts", can(model.PermFiadoOperate), fiadoHandler.ListAccounts)
	protected.Get("/fiado/accounts/:customer", can(model.PermFiadoOperate), fiadoHandler.GetAccount)
	protected.Post("/fiado/accounts/:customer/reconcile", can(model.PermRegisterManage), fiadoHandler.Reconcile)
	protected.Post("/fiado/sales", can(model.PermFiadoOperate), once, fiadoHandler.CreateSale)
	protected.Post("/fiado/payments", can(model.PermFiadoOperate), once, fiadoHandler.AddPayment)

	// Orders
	protected.Get("/orders", can(model.PermOrderOperate), orderHandler.ListOrders)
	protected.Get("/orders/:id", can(model.PermOrderOperate), orderHandler.GetOrder)
	protected.Post("/orders", can(model.PermOrderOperate), once, orderHandler.CreateOrder)
	protected.Put("/orders/:id/status", can(model.PermOrderOperate), orderHandler.UpdateStatus)

	// Company
	protected.Get("/company/info", companyHandler.GetInfo)
	protected.Put("/company/info", can(model.PermCompanyManage), companyHandler.UpdateInfo)

	// Users & roles
	protected.Get("/users", can(model.PermUserManage), userHandler.GetUsers)
	protected.Get("/users/:id", can(model.PermUserManage), userHandler.GetUser)
	protected.Post("/users", can(model.PermUserManage), userHandler.CreateUser)
	protected.Put("/users/:id", can(model.PermUserManage), userHandler.UpdateUser)
	protected.Delete("/users/:id", can(model.PermUserManage), userHandler.DeleteUser)
	protected.Get("/roles", roleHandler.GetRoles)
	protected.Get("/permissions", roleHandler.GetPermissions)

	// WebSocket Route; browsers pass the token as ?token=
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}, auth)
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	return app, nil
}
