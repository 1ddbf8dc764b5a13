package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-fabric-retail/internal/config"
	"go-fabric-retail/internal/handler"
	"go-fabric-retail/internal/middleware"
	"go-fabric-retail/internal/model"
	"go-fabric-retail/internal/repository"
	"go-fabric-retail/internal/scheduler"
	"go-fabric-retail/internal/service"
	"go-fabric-retail/internal/ws"
	"go-fabric-retail/pkg/cache"
	"go-fabric-retail/pkg/database"
	"go-fabric-retail/pkg/jwt"
	"go-fabric-retail/pkg/logger"
)

func main() {
	log := logger.Must(logger.New())
	defer log.Sync()

	// 1. Load Config
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	// 2. Setup Database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(&model.User{}, &model.Product{}, &model.Sale{}, &model.SaleItem{}, &model.StockHistory{}); err != nil {
		log.Fatal("failed to migrate schema", zap.Error(err))
	}

	// 3. Seed default admin user
	seedAdmin(db, log)

	// 4. Optional Redis cache; absence degrades to direct queries
	var cacheClient *cache.Client
	if cfg.Redis.Addr != "" {
		cacheClient, err = cache.New(cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", zap.Error(err))
			cacheClient = nil
		}
	}

	// 5. Setup WebSocket Hub
	wsHub := ws.NewHub(logger.Named(log, "ws"))
	go wsHub.Run()

	// 6. Dependency Injection (Wiring Layers)
	tokens := jwt.NewManager(cfg.Auth.JWTSecret)

	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	historyRepo := repository.NewStockHistoryRepo(db)
	userRepo := repository.NewUserRepo(db)

	saleService := service.NewSaleService(saleRepo, productRepo, historyRepo, wsHub, logger.Named(log, "sale"))
	invService := service.NewInventoryService(productRepo, historyRepo, wsHub, logger.Named(log, "inventory"))
	reportService := service.NewReportService(productRepo, saleRepo, historyRepo, cacheClient, logger.Named(log, "report"))
	authService := service.NewAuthService(userRepo, tokens)
	userService := service.NewUserService(userRepo)

	saleHandler := handler.NewSaleHandler(saleService)
	invHandler := handler.NewInventoryHandler(invService)
	reportHandler := handler.NewReportHandler(reportService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Fabric Retail API v1.0",
	})

	app.Use(fiberlogger.New()) // Request logging
	app.Use(recover.New())     // Panic recovery
	app.Use(cors.New())        // CORS

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/validate-token", authHandler.ValidateToken)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(tokens, userRepo))
	admin := middleware.RequireRole(model.RoleAdmin)

	// Product Routes (reads for everyone authenticated, writes admin-only)
	protected.Get("/products", invHandler.GetProducts)
	protected.Get("/products/low-stock", invHandler.GetLowStockProducts)
	protected.Get("/products/:id", invHandler.GetProduct)
	protected.Post("/products", admin, invHandler.CreateProduct)
	protected.Put("/products/:id", admin, invHandler.UpdateProduct)
	protected.Patch("/products/:id/stock", admin, invHandler.AdjustStock)
	protected.Delete("/products/:id", admin, invHandler.DeleteProduct)

	// Sale Routes (staff and admin)
	protected.Post("/sales", saleHandler.CreateSale)
	protected.Get("/sales", saleHandler.GetSales)
	protected.Get("/sales/:id", saleHandler.GetSale)
	protected.Get("/sales/:id/receipt", saleHandler.GetReceipt)

	// Ledger Route (admin only)
	protected.Get("/stock-history", admin, invHandler.GetStockHistory)

	// Dashboard Routes (admin only)
	protected.Get("/dashboard/stats", admin, reportHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", admin, reportHandler.GetStockMovement)

	// User Management Routes (admin only)
	protected.Get("/users", admin, userHandler.GetUsers)
	protected.Get("/users/:id", admin, userHandler.GetUser)
	protected.Post("/users", admin, userHandler.CreateUser)
	protected.Put("/users/:id", admin, userHandler.UpdateUser)
	protected.Delete("/users/:id", admin, userHandler.DeleteUser)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
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

	// 8. Low-stock digest scheduler
	sched := scheduler.New(cfg.Scheduler.LowStockCron, productRepo, wsHub, logger.Named(log, "scheduler"))
	if err := sched.Start(); err != nil {
		log.Error("scheduler disabled", zap.Error(err))
	}

	// 9. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	sched.Stop()
	if cacheClient != nil {
		cacheClient.Close()
	}
	if err := app.Shutdown(); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

// seedAdmin creates the default admin user if no user exists yet.
func seedAdmin(db *gorm.DB, log *zap.Logger) {
	userRepo := repository.NewUserRepo(db)

	if _, err := userRepo.FindByEmail("admin@example.com"); err == nil {
		return
	}

	admin := &model.User{
		Email:    "admin@example.com",
		FullName: "Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	if err := admin.SetPassword("admin123"); err != nil {
		log.Warn("failed to hash admin password", zap.Error(err))
		return
	}

	if err := userRepo.Create(admin); err != nil {
		log.Warn("failed to create admin user", zap.Error(err))
		return
	}
	log.Info("admin user created", zap.String("email", admin.Email))
}
