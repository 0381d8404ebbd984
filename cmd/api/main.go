package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)
	log.Info("loaded configuration", "environment", cfg.Environment)

	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("failed to close database", "error", err)
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db, cfg.Database.Migrations, log); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	images, err := service.NewImageStore(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to create image store: %w", err)
	}

	// Rate limiting is skipped when Redis is absent or unreachable.
	var limiter *middleware.RateLimiter
	redisClient, err := database.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Warn("rate limiting disabled", "error", err)
	} else if redisClient != nil {
		defer redisClient.Close()
		if cfg.Server.RecipeCreateLimit > 0 {
			limiter = middleware.NewRecipeCreationRateLimiter(redisClient, cfg.Server.RecipeCreateLimit, log)
		}
	}

	auth := service.NewAuthService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	deps := api.Dependencies{
		DB:            db,
		Auth:          auth,
		Users:         service.NewUserService(db, images),
		Catalog:       service.NewCatalogService(db),
		Recipes:       service.NewRecipeService(db, images, cfg.Storage.MaxImageMB<<20, log),
		RecipeLimiter: limiter,
		Log:           log,
	}

	opts := router.Options{CORSOrigins: cfg.Server.CORSOrigins}
	if local, ok := images.(*service.LocalImageStore); ok {
		if cfg.Storage.PublicURL == "" || strings.HasPrefix(cfg.Storage.PublicURL, "/") {
			opts.MediaDir = local.Dir()
			opts.MediaURL = cfg.Storage.PublicURL
		}
	}

	l, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr(), err)
	}

	return server.New(router.New(deps, opts), log, cfg.Server.ShutdownTimeout).Run(ctx, l)
}
