package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/qr-ordering/config"
	"github.com/yeremiapane/qr-ordering/database"
	"github.com/yeremiapane/qr-ordering/kds"
	"github.com/yeremiapane/qr-ordering/middlewares"
	"github.com/yeremiapane/qr-ordering/router"
	"github.com/yeremiapane/qr-ordering/services"
	"github.com/yeremiapane/qr-ordering/tracking"
	"github.com/yeremiapane/qr-ordering/utils"
)

func main() {
	utils.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}

	if cfg.App.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		utils.SetDebug(true)
	}
	if cfg.JWT.Secret != "" {
		utils.SetJWTSecret(cfg.JWT.Secret)
	} else {
		utils.InfoLogger.Warn("JWT_SECRET not set, using built-in development secret")
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}
	if err := database.SeedTables(db, cfg.Restaurant.TableCount); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed tables: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cache services.SessionCache
	if cfg.Redis.Addr != "" {
		client, err := services.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			utils.ErrorLogger.WithError(err).Warn("Redis unavailable, session cache disabled")
		} else {
			defer client.Close()
			cache = services.NewRedisSessionCache(client)
		}
	}

	sessions := services.NewSessionService(db, cfg.Session.TTL, cache)
	sessions.TakeoutTableID = cfg.Restaurant.TakeoutTableID

	orders := services.NewOrderService(db, services.NewOrderIDGenerator(cfg.Location()))
	orders.PriceSource = cfg.Orders.PriceSource
	orders.IDRetries = cfg.Orders.IDRetries

	hub := tracking.NewHub()
	kdsHub := kds.NewHub()
	defer kdsHub.Close()

	monitor := services.NewChangeMonitor(db, hub, cfg.Tracking.PollInterval)
	monitor.Retention = cfg.Tracking.ChangeRetention
	monitor.AddPublisher(kdsHub)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := services.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			utils.ErrorLogger.WithError(err).Warn("Kafka unavailable, order changes stay in-process")
		} else {
			defer publisher.Close()
			monitor.AddPublisher(publisher)
		}
	}
	monitor.Start()
	defer monitor.Stop()

	r := router.SetupRouter(router.Deps{
		Sessions:     sessions,
		Orders:       orders,
		Query:        services.NewOrderQuery(db),
		Menu:         services.NewMenuService(db),
		Tracking:     hub,
		KDS:          kdsHub,
		CORSOrigin:   cfg.App.CORSOrigin,
		CookieSecure: cfg.Session.CookieSecure,
		RateLimit:    middlewares.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		StrictLimit:  middlewares.NewStrictRateLimiter(),
	})
	r.SetTrustedProxies([]string{"127.0.0.1"})

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: r,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.WithError(err).Error("Server shutdown failed")
	}
}
