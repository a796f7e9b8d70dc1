package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"careerflow/internal/account"
	"careerflow/internal/api"
	"careerflow/internal/auth"
	"careerflow/internal/config"
	"careerflow/internal/database"
	"careerflow/internal/generator"
	"careerflow/internal/payment"
	"careerflow/internal/session"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	var accounts account.Store
	if cfg.Offline {
		logger.Warn("offline mode: account state will not persist, demo flows only")
		accounts = account.NewOfflineStore()
	} else {
		db, err := database.InitDatabase(cfg.Database)
		if err != nil {
			log.Fatalf("init database: %v", err)
		}
		if err := db.AutoMigrate(&database.Account{}); err != nil {
			log.Fatalf("auto migrate: %v", err)
		}
		logger.Info("database ready",
			slog.String("host", cfg.Database.Host),
			slog.String("name", cfg.Database.Name),
		)
		accounts = account.NewGormStore(db)
	}

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}
	logger.Info("redis ready", slog.String("addr", redisAddr))

	sessionTTL := time.Duration(cfg.Session.TTLHours) * time.Hour
	sessions := session.NewRedisStore(redisClient, sessionTTL)

	authService, err := auth.NewAuthService(cfg.Session.Secret, sessionTTL)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	var gen api.ResumeGenerator
	if cfg.Offline && cfg.LLM.APIKey == "" {
		gen = offlineGenerator{}
	} else {
		client, err := generator.NewClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			log.Fatalf("init llm client: %v", err)
		}
		gen = client
	}

	verifier := payment.NewVerifier(cfg.Payment.BaseURL, cfg.Payment.SecretKey, cfg.Payment.AllowTestBypass)
	if cfg.Payment.AllowTestBypass {
		logger.Warn("payment test bypass is enabled; never run this in production")
	}

	router := api.NewRouter(logger)
	api.RegisterRoutes(
		router,
		accounts,
		sessions,
		authService,
		gen,
		verifier,
		cfg.Payment,
		cfg.Session.CookieDomain,
		logger,
	)

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address))
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
