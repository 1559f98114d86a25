package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files in local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/anyhire/anyhire-server/internal/config"
	"github.com/anyhire/anyhire-server/internal/database"
	"github.com/anyhire/anyhire-server/internal/handler"
	"github.com/anyhire/anyhire-server/internal/middleware"
	"github.com/anyhire/anyhire-server/internal/queue"
	"github.com/anyhire/anyhire-server/internal/repository"
	"github.com/anyhire/anyhire-server/internal/router"
	"github.com/anyhire/anyhire-server/internal/service"
	"github.com/anyhire/anyhire-server/internal/ws"
)

func main() {
	// .env is optional; real deployments configure the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	messages := repository.NewMessageRepo(db)
	tokens := repository.NewTokenStore(rdb, cfg.RefreshTTLDays)

	hub := ws.NewHub()
	chat := service.NewChatService(messages, hub, service.NewQueuePublisher())

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	chatHandler := handler.NewChatHandler(chat)
	wsHandler := ws.NewHandler(cfg.AccessSecret, users, hub, chat)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, users, limiter)
	router.RegisterChat(e, chatHandler, wsHandler, cfg.AccessSecret, users)

	// Notification worker; reconnects on its own and never takes the
	// server down with it.
	go func() {
		if err := queue.StartChatConsumer(); err != nil {
			log.Printf("chat consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
