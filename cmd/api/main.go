package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-bar-manager/internal/cache"
	"go-bar-manager/internal/cart"
	"go-bar-manager/internal/config"
	"go-bar-manager/internal/handler"
	"go-bar-manager/internal/realtime"
	"go-bar-manager/internal/repository"
	"go-bar-manager/internal/service"
	"go-bar-manager/internal/ws"
	"go-bar-manager/pkg/database"
	"go-bar-manager/pkg/jwt"
	applog "go-bar-manager/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zlog := applog.New(applog.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer zlog.Sync()
	jwt.Configure(cfg.Auth.Secret, cfg.Auth.TokenTTL())

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database.PoolOptions(), applog.NewGormLogger(zlog, cfg.Database.LogLevel, time.Second))
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	// Auto Migrate; production schemas should move to a migration tool
	if err := repository.AutoMigrate(db); err != nil {
		zlog.Fatal("auto migrate failed", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Setup WebSocket Hub and change broker
	wsHub := ws.NewHub(zlog.Named("ws"))
	go wsHub.Run(ctx)
	broker := realtime.NewBroker()

	// 4. Stats cache: Redis when configured
	var snapshotCache cache.SnapshotCache = cache.NoopSnapshotCache{}
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisSnapshotCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			zlog.Warn("redis unavailable, stats cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			snapshotCache = redisCache
			defer redisCache.Close()
		}
		cancel()
	}

	// 5. Dependency Injection (Wiring Layers)
	credentialRepo := repository.NewCredentialRepo(db)
	accountRepo := repository.NewAccountRepo(db)
	barRepo := repository.NewBarRepo(db)
	employeeRepo := repository.NewEmployeeRepo(db)
	stockRepo := repository.NewStockRepo(db)
	movementRepo := repository.NewMovementRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	statsRepo := repository.NewStatsRepo(db)

	identityService := service.NewIdentityService(credentialRepo, accountRepo, employeeRepo, db, cfg.Auth.Domain, zlog)
	barService := service.NewBarService(barRepo, accountRepo, db, zlog)
	employeeService := service.NewEmployeeService(employeeRepo, credentialRepo, barRepo, db, broker, wsHub, cfg.Auth.Domain, zlog)
	inventoryService := service.NewInventoryService(stockRepo, movementRepo, barRepo, db, broker, wsHub, zlog)
	orderService := service.NewOrderService(orderRepo, stockRepo, movementRepo, employeeRepo, barRepo, db, broker, wsHub, zlog)
	statsService := service.NewStatsService(statsRepo, barRepo, snapshotCache, cfg.Stats.CacheTTL, zlog)
	dashService := service.NewDashboardService(movementRepo, barRepo, zlog)

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(identityService),
		Bar:       handler.NewBarHandler(barService),
		Employee:  handler.NewEmployeeHandler(employeeService),
		Inventory: handler.NewInventoryHandler(inventoryService),
		Cart:      handler.NewCartHandler(orderService, cart.NewStore(2*time.Hour)),
		Order:     handler.NewOrderHandler(orderService),
		Stats:     handler.NewStatsHandler(statsService),
		Dashboard: handler.NewDashboardHandler(dashService),
		Realtime:  handler.NewRealtimeHandler(wsHub, identityService, barService, employeeService, inventoryService, orderService, zlog),
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	handler.SetupRoutes(app, handlers, identityService)

	// 8. Graceful Shutdown
	go func() {
		zlog.Info("listening", zap.String("addr", cfg.Address()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.Address()); err != nil {
			zlog.Panic("listen failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exited")
}
