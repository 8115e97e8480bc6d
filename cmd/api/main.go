package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mindmetric/internal/adapter"
	"mindmetric/internal/cache"
	"mindmetric/internal/config"
	"mindmetric/internal/database"
	"mindmetric/internal/handler"
	"mindmetric/internal/logger"
	"mindmetric/internal/middleware"
	"mindmetric/internal/repository"
	"mindmetric/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// @title mindmetric API
// @version 1.0
// @description Backend for the mindmetric cognitive-test product.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	db, err := database.NewSQLXPostgresDB(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)

	// Repositories
	txManager := repository.NewTransactionManagerAdapter(db)
	questionRepo := repository.NewQuestionDatabaseAdapter(db)
	sessionRepo := repository.NewSessionDatabaseAdapter(db)
	responseRepo := repository.NewResponseDatabaseAdapter(db)
	resultRepo := repository.NewResultDatabaseAdapter(db)
	userRepo := repository.NewUserDatabaseAdapter(db)
	normRepo := repository.NewNormGroupDatabaseAdapter(db)

	// Services
	scoringService := service.NewScoringService(sessionRepo, responseRepo, questionRepo, resultRepo, userRepo, normRepo)
	sessionService := service.NewSessionService(sessionRepo, questionRepo, scoringService, cacheAdapter, cfg)
	responseService := service.NewResponseService(txManager, sessionRepo, responseRepo, questionRepo, scoringService, cacheAdapter, cfg.Cache.SessionStateTTL)
	resultService := service.NewResultService(sessionRepo, resultRepo, scoringService, cacheAdapter, cfg.Cache.ResultTTL, cfg.Cache.SessionStateTTL)
	authService := service.NewAuthService(userRepo, cacheAdapter, cfg)
	userService := service.NewUserService(userRepo)

	// Handlers
	testHandler := handler.NewTestHandler(sessionService, responseService)
	resultHandler := handler.NewResultHandler(resultService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	wsHandler := handler.NewWSHandler(sessionService, authService)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.RequestLogger())

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "database unavailable")
		}
		if err := cacheAdapter.Ping(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "cache unavailable")
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	test := api.Group("/test", middleware.OptionalAuth(authService))
	test.Post("/start", testHandler.StartTest)
	test.Get("/:sessionId/question", testHandler.GetCurrentQuestion)
	test.Post("/:sessionId/response", testHandler.SubmitResponse)
	test.Get("/:sessionId/status", testHandler.GetStatus)
	test.Post("/:sessionId/abandon", testHandler.AbandonTest)

	results := api.Group("/results")
	results.Get("/session/:sessionId", middleware.OptionalAuth(authService), resultHandler.GetSessionResult)
	results.Get("/history", middleware.Protected(authService), resultHandler.GetHistory)

	auth := api.Group("/auth")
	auth.Get("/google/login", authHandler.GoogleLogin)
	auth.Get("/google/callback", authHandler.GoogleCallback)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", middleware.Protected(authService), authHandler.Logout)

	users := api.Group("/users", middleware.Protected(authService))
	users.Get("/me", userHandler.GetMe)
	users.Put("/me/demographics", userHandler.UpdateDemographics)

	ws := app.Group("/ws", wsHandler.Upgrade)
	ws.Get("/test/:sessionId", wsHandler.Serve())

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info("server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			log.Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
