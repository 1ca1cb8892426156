package main

import (
	"context"
	"fmt"
	"log" // standard log for early errors before zap is set up
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/SufailSLX/budget-tracker/internal/config"
	"github.com/SufailSLX/budget-tracker/internal/database"
	"github.com/SufailSLX/budget-tracker/internal/handlers"
	"github.com/SufailSLX/budget-tracker/internal/mailer"
	"github.com/SufailSLX/budget-tracker/internal/middleware"
	"github.com/SufailSLX/budget-tracker/internal/ratelimit"
	"github.com/SufailSLX/budget-tracker/internal/repository"
	"github.com/SufailSLX/budget-tracker/internal/server"
	"github.com/SufailSLX/budget-tracker/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables:", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.App.Env == "development" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer func() {
		_ = logger.Sync()
	}()
	sugar := logger.Sugar()
	sugar.Infof("Starting budget-tracker in %s environment on port %d", cfg.App.Env, cfg.App.Port)

	db, mongoClient, err := database.ConnectMongo(cfg.Mongo.URI, cfg.Mongo.Database, logger)
	if err != nil {
		sugar.Fatal(err)
	}

	// Redis is optional. Without it OTP issuance is not rate limited.
	var limiter services.Limiter
	var closeRedis func() error
	if cfg.Redis.Addr != "" {
		rdb, err := database.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			sugar.Fatal(err)
		}
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.Security.OtpRateLimitPerEmailPerHour, time.Hour)
		closeRedis = rdb.Close
	} else {
		sugar.Warn("Redis not configured. OTP rate limiting is disabled.")
	}

	mail := mailer.NewClient(cfg.Mail.APIKey, cfg.Mail.FromEmail, cfg.Mail.FromName)
	if !mail.IsConfigured() {
		sugar.Warn("Mail client not fully configured. Registration emails will fail.")
	} else {
		sugar.Info("Mail client configured.")
	}

	userRepo := repository.NewMongoUserRepo(db)
	txRepo := repository.NewMongoTransactionRepo(db)
	notifRepo := repository.NewMongoNotificationRepo(db)

	authSvc := services.NewAuthService(
		userRepo,
		notifRepo,
		mail,
		limiter,
		cfg.App.JWT.Secret,
		time.Duration(cfg.App.JWT.TTLHours)*time.Hour,
		time.Duration(cfg.Security.OtpTTLMinutes)*time.Minute,
		cfg.Security.PinHashCost,
		logger,
	)
	txSvc := services.NewTransactionService(txRepo)
	notifSvc := services.NewNotificationService(notifRepo)
	userSvc := services.NewUserService(userRepo)

	h := handlers.NewHandler(authSvc, txSvc, notifSvc, userSvc, cfg.App.Env, logger)
	requireAuth := middleware.RequireAuth(userRepo, cfg.App.JWT.Secret)

	app := server.New(cfg, h, requireAuth, logger)

	go func() {
		listenAddr := fmt.Sprintf(":%d", cfg.App.Port)
		sugar.Infof("Server listening on %s", listenAddr)
		if err := app.Listen(listenAddr); err != nil {
			sugar.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	sugar.Info("Shutting down server...")

	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := app.ShutdownWithContext(ctxShut); err != nil {
		sugar.Errorf("Fiber app shutdown error: %v", err)
	}
	if err := mongoClient.Disconnect(ctxShut); err != nil {
		sugar.Errorf("MongoDB disconnect error: %v", err)
	}
	if closeRedis != nil {
		if err := closeRedis(); err != nil {
			sugar.Errorf("Redis client close error: %v", err)
		}
	}

	sugar.Info("Graceful shutdown complete. Goodbye!")
}
