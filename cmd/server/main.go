package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"aurave_storefront/internal/cache"
	"aurave_storefront/internal/config"
	"aurave_storefront/internal/database"
	"aurave_storefront/internal/handlers"
	"aurave_storefront/internal/logger"
	"aurave_storefront/internal/middleware"
	"aurave_storefront/internal/order"
	"aurave_storefront/internal/routes"
	"aurave_storefront/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration invalide : %v", err)
	}

	logg, err := logger.New(cfg.Mode)
	if err != nil {
		log.Fatalf("❌ Impossible d'initialiser le logger : %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		slot        cache.Slot
		redisClient *redis.Client
	)
	if cfg.UseRedis() {
		redisClient, err = database.ConnectRedis(ctx, cfg)
		if err != nil {
			logg.Fatal("connexion Redis échouée", "error", err)
		}
		defer redisClient.Close()
		slot = cache.NewRedisSlot(redisClient, cfg.CartTTL)
		logg.Info("slot panier Redis", "addr", cfg.RedisAddr)
	} else {
		slot = cache.NewMemorySlot()
		logg.Warn("REDIS_HOST absent, paniers gardés en mémoire")
	}

	registry := session.NewRegistry(slot, logg, session.Options{})
	defer registry.Close()
	go sweepSessions(ctx, registry, cfg.SessionIdle, logg)

	if cfg.Mode == "production" || cfg.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	routes.RegisterRoutes(r, routes.Deps{
		Handler:        handlers.NewHandler(registry, order.NewBuilder(cfg.WhatsAppPhone), logg),
		Sessions:       middleware.NewCookieStore(cfg.SessionSecret, cfg.SecureCookies),
		Redis:          redisClient,
		CartRateLimit:  cfg.CartRateLimit,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            logg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logg.Info("🚀 serveur Auravé lancé", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("serveur arrêté", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("arrêt du serveur", "error", err)
	}
}

// sweepSessions libère périodiquement les sessions inactives
func sweepSessions(ctx context.Context, registry *session.Registry, idle time.Duration, logg *logger.Logger) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registry.Sweep(idle); n > 0 {
				logg.Debug("sessions inactives libérées", "count", n)
			}
		}
	}
}
