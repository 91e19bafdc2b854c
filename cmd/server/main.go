package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/brewline/order-service/internal/config"
	"github.com/brewline/order-service/internal/database"
	"github.com/brewline/order-service/internal/gateway"
	"github.com/brewline/order-service/internal/handler"
	custommw "github.com/brewline/order-service/internal/middleware"
	"github.com/brewline/order-service/internal/publisher"
	"github.com/brewline/order-service/internal/queue"
	"github.com/brewline/order-service/internal/repository"
	"github.com/brewline/order-service/internal/router"
	"github.com/brewline/order-service/internal/service"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; features degrade

	orderRepo := repository.NewOrderRepo(db)
	eventRepo := repository.NewEventRepo(db)
	profileRepo := repository.NewProfileRepo(db)
	notificationRepo := repository.NewNotificationRepo(db)

	gw := gateway.NewClient(cfg.StripeBaseURL, cfg.StripeSecretKey, cfg.GatewayTimeout)
	pub := publisher.New("")

	rewards := service.NewRewards(profileRepo)
	orchestrator := service.NewOrchestrator(orderRepo, profileRepo, gw, cfg.Currency)
	rsvp := service.NewRSVP(eventRepo, notificationRepo, pub)

	var dedupe service.Deduper
	if d := service.NewRedisDeduper(rdb, 0); d != nil {
		dedupe = d
	}
	reconciler := service.NewReconciler(orderRepo, notificationRepo, rewards, pub, dedupe, cfg.WebhookSecret)

	h := router.Handlers{
		Order:        handler.NewOrderHandler(orchestrator),
		Webhook:      handler.NewWebhookHandler(reconciler),
		RSVP:         handler.NewRSVPHandler(rsvp),
		Rewards:      handler.NewRewardsHandler(rewards),
		Notification: handler.NewNotificationHandler(notificationRepo),
	}

	e := echo.New()
	e.HideBanner = true
	rateLimit := custommw.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.RegisterRoutes(e, h)
	router.RegisterAPI(e, h, cfg.JWTSecret, rateLimit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background workers: the dispatch consumer drains the notification
	// queue, the reaper sweeps pending orders that never got an intent.
	go func() {
		if err := queue.StartDispatchConsumer(); err != nil {
			log.Printf("consumer: stopped: %v", err)
		}
	}()
	go orchestrator.RunReaper(ctx, cfg.ReaperInterval, cfg.ReaperMaxAge)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		<-ctx.Done()
		if err := e.Shutdown(context.Background()); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()
	if err := e.Start(addr); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
