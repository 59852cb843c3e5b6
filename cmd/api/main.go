package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mentor-chat/internal/config"
	"mentor-chat/internal/db"
	apihttp "mentor-chat/internal/http"
	"mentor-chat/internal/hub"
	"mentor-chat/internal/repository"
	"mentor-chat/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL not configured")
	}
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	messageRepo := repository.NewPgMessageRepository(pool)
	userRepo := repository.NewPgUserRepository(pool)

	unread := repository.NewMemoryUnreadStore()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory unread counters", zap.Error(err))
		} else {
			unread = repository.NewRedisUnreadStore(redisClient)
		}
		cancel()
	}

	topicHub := hub.NewHub(logger)
	go topicHub.Run()

	jwtSvc := service.NewJWTService(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)
	userSvc := service.NewUserService(logger, userRepo)
	chatSvc := service.NewChatService(logger, messageRepo, unread, topicHub)

	authHandler := apihttp.NewAuthHandler(logger, userSvc, jwtSvc)
	chatHandler := apihttp.NewChatHandler(logger, messageRepo, unread, chatSvc)
	wsHandler := apihttp.NewWSHandler(logger, topicHub, jwtSvc, chatSvc)
	router := apihttp.NewRouter(logger, jwtSvc, authHandler, chatHandler, wsHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
