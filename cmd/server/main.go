package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/liveshop-app/liveshop-server/internal/config"
	"github.com/liveshop-app/liveshop-server/internal/database"
	"github.com/liveshop-app/liveshop-server/internal/handler"
	"github.com/liveshop-app/liveshop-server/internal/middleware"
	"github.com/liveshop-app/liveshop-server/internal/queue"
	"github.com/liveshop-app/liveshop-server/internal/repository"
	"github.com/liveshop-app/liveshop-server/internal/router"
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

	// Redis is optional; rate limiting and caching fail open without it.
	rdb := config.NewRedisClient()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	roles := repository.NewRoleRepo(db)
	userRoles := repository.NewUserRoleRepo(db)
	shops := repository.NewShopRepo(db)
	shopRoles := repository.NewUserShopRoleRepo(db)
	channels := repository.NewChannelRepo(db)
	participants := repository.NewChannelParticipantRepo(db)
	products := repository.NewProductRepo(db)
	channelProducts := repository.NewChannelProductRepo(db)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	shopH := handler.NewShopHandler(shops, shopRoles, users)
	productH := handler.NewProductHandler(products, shopRoles, shops)
	channelH := handler.NewChannelHandler(channels, participants)
	channelProductH := handler.NewChannelProductHandler(channelProducts, channels, products, shopRoles)
	roleH := handler.NewRoleHandler(cfg, roles, userRoles, users)

	e := echo.New()
	e.HideBanner = true

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e, cache)
	router.RegisterAuth(e, authH, cfg.JWTSecret, limiter)
	router.RegisterChannels(e, channelH, channelProductH, cfg.JWTSecret, cache)
	router.RegisterShops(e, shopH, productH, cfg.JWTSecret)
	router.RegisterRoles(e, roleH, cfg.JWTSecret)

	// Background consumers; each runs its own reconnect loop.
	go func() {
		if err := queue.StartChannelConsumer(); err != nil {
			log.Printf("channel consumer stopped: %v", err)
		}
	}()
	go func() {
		if err := queue.StartVendorConsumer(); err != nil {
			log.Printf("vendor consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
